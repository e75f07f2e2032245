package compile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"texforge/internal/compile"
	pkgerrors "texforge/pkg/errors"
)

type serviceFixture struct {
	svc        *compile.Service
	workRoot   string
	tempDir    string
	archiveDir string
	markerPath string
}

// newServiceFixture wires a pipeline whose "compiler" is the given
// shell script body. The script receives the output dir as $1 and the
// entry file as $2, and touches $3 so tests can assert whether the
// compiler ran at all.
func newServiceFixture(t *testing.T, scriptBody string, timeout time.Duration) serviceFixture {
	t.Helper()
	scriptDir := t.TempDir()
	script := writeScript(t, scriptDir, "compiler.sh", "printf x > \"$3\"\n"+scriptBody)
	marker := filepath.Join(scriptDir, "invoked")

	fixture := serviceFixture{
		workRoot:   t.TempDir(),
		tempDir:    t.TempDir(),
		archiveDir: t.TempDir(),
		markerPath: marker,
	}

	intake := compile.NewIntake(fixture.archiveDir, fixture.tempDir, 0)
	invoker := compile.NewInvoker("/bin/sh "+script+" {out} {src} "+marker, timeout, 0)
	svc, err := compile.NewService(compile.Config{
		WorkRoot: fixture.workRoot,
		Intake:   intake,
		Invoker:  invoker,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func (f serviceFixture) compilerRan() bool {
	_, err := os.Stat(f.markerPath)
	return err == nil
}

func (f serviceFixture) assertClean(t *testing.T) {
	t.Helper()
	if n := dirEntryCount(t, f.workRoot); n != 0 {
		t.Fatalf("work root not empty after compile: %d entries", n)
	}
	if n := dirEntryCount(t, f.tempDir); n != 0 {
		t.Fatalf("intake temp dir not empty after compile: %d entries", n)
	}
}

const producePDFScript = "printf '%%PDF-1.4 deterministic output' > \"$1\"/main.pdf\nexit 0\n"

func TestServiceCompileSuccess(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)
	archive := makeZipBytes(t, map[string]string{
		"main.tex":       "\\documentclass{article}",
		"chapters/a.tex": "chapter a",
	})

	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive, UploadName: "project.zip"})

	if out.Disposition != compile.DispositionSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Disposition, out.Reason)
	}
	if len(out.PDF) == 0 {
		t.Fatalf("expected non-empty pdf bytes")
	}
	if !outputFilenamePattern.MatchString(out.Filename) {
		t.Fatalf("filename does not match pattern: %s", out.Filename)
	}
	if len(out.Files) != 2 {
		t.Fatalf("expected 2 extracted files in diagnostics, got %v", out.Files)
	}
	f.assertClean(t)
}

func TestServiceCompileByName(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)
	makeZipFile(t, f.archiveDir, "local.zip", map[string]string{"main.tex": "x"})

	out := f.svc.Compile(context.Background(), compile.Source{Filename: "local.zip"})

	if out.Disposition != compile.DispositionSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Disposition, out.Reason)
	}
	// The referenced archive must survive the request.
	if _, err := os.Stat(filepath.Join(f.archiveDir, "local.zip")); err != nil {
		t.Fatalf("referenced archive removed: %v", err)
	}
	f.assertClean(t)
}

func TestServiceMissingEntrySkipsCompiler(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)
	archive := makeZipBytes(t, map[string]string{"notes.txt": "no tex here"})

	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if out.Disposition != compile.DispositionStructuralError {
		t.Fatalf("expected structural error, got %s", out.Disposition)
	}
	if out.Code != pkgerrors.EntryFileNotFound {
		t.Fatalf("expected EntryFileNotFound, got %d", out.Code)
	}
	if f.compilerRan() {
		t.Fatalf("compiler must not run when the entry file is missing")
	}
	f.assertClean(t)
}

func TestServiceBadArchive(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)

	out := f.svc.Compile(context.Background(), compile.Source{Upload: []byte("arbitrary bytes, not a zip")})

	if out.Disposition != compile.DispositionStructuralError {
		t.Fatalf("expected structural error, got %s", out.Disposition)
	}
	if out.Code != pkgerrors.BadArchive {
		t.Fatalf("expected BadArchive, got %d", out.Code)
	}
	if f.compilerRan() {
		t.Fatalf("compiler must not run for a bad archive")
	}
	f.assertClean(t)
}

func TestServiceTimeout(t *testing.T) {
	f := newServiceFixture(t, "sleep 5\n", 200*time.Millisecond)
	archive := makeZipBytes(t, map[string]string{"main.tex": "x"})

	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if out.Disposition != compile.DispositionInvocationFailure {
		t.Fatalf("expected invocation failure, got %s", out.Disposition)
	}
	if out.Code != pkgerrors.CompileTimeout {
		t.Fatalf("expected CompileTimeout, got %d", out.Code)
	}
	f.assertClean(t)
}

func TestServiceMissingCompilerBinary(t *testing.T) {
	f := serviceFixture{
		workRoot:   t.TempDir(),
		tempDir:    t.TempDir(),
		archiveDir: t.TempDir(),
	}
	intake := compile.NewIntake(f.archiveDir, f.tempDir, 0)
	invoker := compile.NewInvoker("definitely-not-a-compiler-binary {out} {src}", time.Second, 0)
	svc, err := compile.NewService(compile.Config{WorkRoot: f.workRoot, Intake: intake, Invoker: invoker})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc

	archive := makeZipBytes(t, map[string]string{"main.tex": "x"})
	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if out.Disposition != compile.DispositionInvocationFailure {
		t.Fatalf("expected invocation failure, got %s", out.Disposition)
	}
	if out.Code != pkgerrors.CompilerStartFailed {
		t.Fatalf("expected CompilerStartFailed, got %d", out.Code)
	}
	f.assertClean(t)
}

func TestServiceFalseSuccessIsCompilerFailure(t *testing.T) {
	f := newServiceFixture(t, "echo 'all good'\nexit 0\n", 5*time.Second)
	archive := makeZipBytes(t, map[string]string{"main.tex": "x"})

	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if out.Disposition != compile.DispositionCompilerFailure {
		t.Fatalf("zero exit without a pdf must be a compiler failure, got %s", out.Disposition)
	}
	if out.Log == "" {
		t.Fatalf("expected captured compiler log")
	}
	f.assertClean(t)
}

func TestServiceCompilerFailureCarriesLog(t *testing.T) {
	f := newServiceFixture(t, "echo '! Undefined control sequence.'\nexit 1\n", 5*time.Second)
	archive := makeZipBytes(t, map[string]string{"main.tex": "\\broken"})

	out := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if out.Disposition != compile.DispositionCompilerFailure {
		t.Fatalf("expected compiler failure, got %s", out.Disposition)
	}
	if out.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", out.ExitCode)
	}
	if out.Log == "" || !bytes.Contains([]byte(out.Log), []byte("Undefined control sequence")) {
		t.Fatalf("expected compiler log in outcome, got %q", out.Log)
	}
	f.assertClean(t)
}

func TestServiceIdempotentPDFBytes(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)
	archive := makeZipBytes(t, map[string]string{"main.tex": "x"})

	first := f.svc.Compile(context.Background(), compile.Source{Upload: archive})
	second := f.svc.Compile(context.Background(), compile.Source{Upload: archive})

	if first.Disposition != compile.DispositionSuccess || second.Disposition != compile.DispositionSuccess {
		t.Fatalf("expected two successes, got %s and %s", first.Disposition, second.Disposition)
	}
	if !bytes.Equal(first.PDF, second.PDF) {
		t.Fatalf("deterministic compiler produced different pdf bytes")
	}
	f.assertClean(t)
}

func TestServiceNoSource(t *testing.T) {
	f := newServiceFixture(t, producePDFScript, 5*time.Second)

	out := f.svc.Compile(context.Background(), compile.Source{})

	if out.Disposition != compile.DispositionStructuralError {
		t.Fatalf("expected structural error, got %s", out.Disposition)
	}
	if out.Code != pkgerrors.ArchiveNotProvided {
		t.Fatalf("expected ArchiveNotProvided, got %d", out.Code)
	}
	f.assertClean(t)
}
