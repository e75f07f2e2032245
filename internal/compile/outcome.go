// Package compile implements the archive-to-PDF compile pipeline:
// intake, extraction, entry resolution, compiler invocation and result
// classification.
package compile

import (
	"time"

	appErr "texforge/pkg/errors"
)

// Source describes where the archive bytes come from.
// An upload takes precedence over a referenced filename.
type Source struct {
	Upload     []byte
	UploadName string
	Filename   string
}

// Empty reports whether no archive source was selected.
func (s Source) Empty() bool {
	return len(s.Upload) == 0 && s.Filename == ""
}

// Disposition is the final classification of one compile request.
type Disposition string

const (
	DispositionSuccess           Disposition = "success"
	DispositionCompilerFailure   Disposition = "compiler_failure"
	DispositionInvocationFailure Disposition = "invocation_failure"
	DispositionStructuralError   Disposition = "structural_error"
)

// Outcome is the tagged result of one compile request.
// Exactly one outcome is produced per request and it is consumed once
// by the delivery boundary.
type Outcome struct {
	Disposition Disposition
	Code        appErr.ErrorCode
	Reason      string
	ExitCode    int
	Log         string
	PDF         []byte
	Filename    string
	Files       []string
	Duration    time.Duration
}

// RawResult is the compiler invoker's uninterpreted output.
// Success or failure is decided by the classifier, not here.
type RawResult struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

func failureOutcome(err *appErr.Error) Outcome {
	disposition := DispositionStructuralError
	switch err.Code {
	case appErr.CompilerStartFailed, appErr.CompileTimeout:
		disposition = DispositionInvocationFailure
	}
	return Outcome{
		Disposition: disposition,
		Code:        err.Code,
		Reason:      err.Error(),
	}
}
