package compile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"texforge/internal/compile"
	pkgerrors "texforge/pkg/errors"
)

func TestInvokerCapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fake-tex.sh", "echo to stdout\necho to stderr 1>&2\nexit 0\n")
	entry := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(entry, []byte("x"), 0644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	inv := compile.NewInvoker("/bin/sh "+script+" {out} {src}", 5*time.Second, 0)
	raw, err := inv.Invoke(context.Background(), entry, dir)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if raw.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", raw.ExitCode)
	}
	if !strings.Contains(raw.Output, "to stdout") || !strings.Contains(raw.Output, "to stderr") {
		t.Fatalf("expected combined output, got %q", raw.Output)
	}
}

func TestInvokerNonZeroExitIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", "echo boom\nexit 3\n")
	entry := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(entry, []byte("x"), 0644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	inv := compile.NewInvoker("/bin/sh "+script+" {out} {src}", 5*time.Second, 0)
	raw, err := inv.Invoke(context.Background(), entry, dir)
	if err != nil {
		t.Fatalf("nonzero exit must not surface as an invocation error, got %v", err)
	}
	if raw.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", raw.ExitCode)
	}
	if !strings.Contains(raw.Output, "boom") {
		t.Fatalf("expected captured log, got %q", raw.Output)
	}
}

func TestInvokerMissingBinary(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(entry, []byte("x"), 0644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	inv := compile.NewInvoker("definitely-not-a-compiler-binary {out} {src}", 5*time.Second, 0)
	_, err := inv.Invoke(context.Background(), entry, dir)
	if !pkgerrors.Is(err, pkgerrors.CompilerStartFailed) {
		t.Fatalf("expected CompilerStartFailed, got %v", err)
	}
}

func TestInvokerTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hang.sh", "sleep 5\n")
	entry := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(entry, []byte("x"), 0644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	inv := compile.NewInvoker("/bin/sh "+script+" {out} {src}", 200*time.Millisecond, 0)
	start := time.Now()
	_, err := inv.Invoke(context.Background(), entry, dir)
	if !pkgerrors.Is(err, pkgerrors.CompileTimeout) {
		t.Fatalf("expected CompileTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("timeout did not reclaim the process promptly, waited %s", elapsed)
	}
}

func TestInvokerTruncatesLongOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "noisy.sh", "i=0\nwhile [ $i -lt 200 ]; do echo 'a very repetitive compiler diagnostic line'; i=$((i+1)); done\n")
	entry := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(entry, []byte("x"), 0644); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	inv := compile.NewInvoker("/bin/sh "+script+" {out} {src}", 5*time.Second, 512)
	raw, err := inv.Invoke(context.Background(), entry, dir)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !strings.Contains(raw.Output, "[output truncated]") {
		t.Fatalf("expected truncation marker, got %d bytes", len(raw.Output))
	}
	if len(raw.Output) > 1024 {
		t.Fatalf("output not capped: %d bytes", len(raw.Output))
	}
}

func TestInvokerEmptyTemplate(t *testing.T) {
	inv := compile.NewInvoker("   ", time.Second, 0)
	_, err := inv.Invoke(context.Background(), "main.tex", t.TempDir())
	if !pkgerrors.Is(err, pkgerrors.CompilerStartFailed) {
		t.Fatalf("expected CompilerStartFailed, got %v", err)
	}
}
