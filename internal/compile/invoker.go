package compile

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	appErr "texforge/pkg/errors"
)

const (
	defaultOutputMaxBytes int64 = 256 * 1024
	waitDelayAfterKill          = 5 * time.Second
)

// Invoker runs the external compiler as a subprocess, once per request.
type Invoker struct {
	cmdTemplate    string
	timeout        time.Duration
	outputMaxBytes int64
}

// NewInvoker creates an invoker. cmdTemplate may use {src} for the
// entry file path and {out} for the output directory.
func NewInvoker(cmdTemplate string, timeout time.Duration, outputMaxBytes int64) *Invoker {
	if outputMaxBytes <= 0 {
		outputMaxBytes = defaultOutputMaxBytes
	}
	return &Invoker{
		cmdTemplate:    cmdTemplate,
		timeout:        timeout,
		outputMaxBytes: outputMaxBytes,
	}
}

// Invoke runs the compiler against entryPath with output directed at
// outputDir, bounded by the configured wall-clock timeout. Standard
// output and standard error are captured interleaved in invocation
// order. The entry document is handed to the compiler untouched;
// nothing here parses or rewrites it. Exit status is not interpreted
// here, that belongs to the classifier.
func (iv *Invoker) Invoke(ctx context.Context, entryPath, outputDir string) (RawResult, error) {
	argv, err := iv.buildCommand(entryPath, outputDir)
	if err != nil {
		return RawResult{}, err
	}

	runCtx := ctx
	if iv.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, iv.timeout)
		defer cancel()
	}

	output := &cappedBuffer{max: iv.outputMaxBytes}
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.Dir = outputDir
	cmd.WaitDelay = waitDelayAfterKill

	start := time.Now()
	runErr := cmd.Run()
	res := RawResult{Output: output.String(), Duration: time.Since(start)}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, appErr.New(appErr.CompileTimeout).
			WithDetail("timeout", iv.timeout.String())
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, appErr.Wrap(runErr, appErr.CompilerStartFailed)
	}
	return res, nil
}

func (iv *Invoker) buildCommand(entryPath, outputDir string) ([]string, error) {
	tpl := strings.TrimSpace(iv.cmdTemplate)
	if tpl == "" {
		return nil, appErr.New(appErr.CompilerStartFailed).WithMessage("compiler command template is empty")
	}
	expanded := strings.ReplaceAll(tpl, "{src}", entryPath)
	expanded = strings.ReplaceAll(expanded, "{out}", outputDir)
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CompilerStartFailed, "parse compiler command failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.CompilerStartFailed).WithMessage("compiler command is empty after expansion")
	}
	return fields, nil
}

// cappedBuffer keeps at most max bytes and remembers whether anything
// was dropped. Stdout and stderr share one instance, so the capture
// preserves invocation order.
type cappedBuffer struct {
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remain := b.max - int64(b.buf.Len())
	if remain <= 0 {
		if n > 0 {
			b.truncated = true
		}
		return n, nil
	}
	if int64(n) > remain {
		p = p[:remain]
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[output truncated]"
	}
	return b.buf.String()
}
