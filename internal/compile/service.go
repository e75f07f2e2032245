package compile

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"texforge/internal/compile/observer"
	appErr "texforge/pkg/errors"
	"texforge/pkg/utils/logger"
)

// DefaultEntryFileName is the canonical entry document name.
const DefaultEntryFileName = "main.tex"

// Config holds the service dependencies.
type Config struct {
	WorkRoot      string
	EntryFileName string
	Intake        *Intake
	Invoker       *Invoker
	Metrics       observer.MetricsRecorder
}

// Service runs the compile pipeline: intake, extraction, entry
// resolution, compiler invocation, classification. One request at a
// time per call; concurrent calls each get their own workspace.
type Service struct {
	workRoot  string
	entryName string
	intake    *Intake
	invoker   *Invoker
	metrics   observer.MetricsRecorder
}

// NewService creates the pipeline service and ensures the work root exists.
func NewService(cfg Config) (*Service, error) {
	if cfg.WorkRoot == "" {
		return nil, appErr.ValidationError("work_root", "required")
	}
	if cfg.Intake == nil {
		return nil, appErr.ValidationError("intake", "required")
	}
	if cfg.Invoker == nil {
		return nil, appErr.ValidationError("invoker", "required")
	}
	if cfg.EntryFileName == "" {
		cfg.EntryFileName = DefaultEntryFileName
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observer.NoopMetricsRecorder{}
	}
	if err := os.MkdirAll(cfg.WorkRoot, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "create work root failed")
	}
	return &Service{
		workRoot:  cfg.WorkRoot,
		entryName: cfg.EntryFileName,
		intake:    cfg.Intake,
		invoker:   cfg.Invoker,
		metrics:   cfg.Metrics,
	}, nil
}

// Intake exposes the intake for surfaces that list referenceable archives.
func (s *Service) Intake() *Intake {
	return s.intake
}

// Compile runs one request through the pipeline and returns its
// outcome. Failures never escape as errors or panics; every exit path
// releases the intake temp file and the workspace.
func (s *Service) Compile(ctx context.Context, src Source) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "compile pipeline panic", zap.Any("panic", r))
			outcome = failureOutcome(appErr.New(appErr.InternalServerError))
		}
		outcome.Duration = time.Since(start)
		s.metrics.ObserveCompile(ctx, string(outcome.Disposition), outcome.Duration)
		logger.Info(ctx, "compile finished",
			zap.String("disposition", string(outcome.Disposition)),
			zap.Int("exit_code", outcome.ExitCode),
			zap.Duration("duration", outcome.Duration),
		)
	}()

	archivePath, cleanup, err := s.intake.Resolve(src)
	if err != nil {
		return failureOutcome(appErr.GetError(err))
	}
	defer cleanup()

	ws, err := NewWorkspace(s.workRoot)
	if err != nil {
		return failureOutcome(appErr.GetError(err))
	}
	defer ws.Release(ctx)

	files, err := ExtractArchive(archivePath, ws.ExtractDir)
	if err != nil {
		return failureOutcome(appErr.GetError(err))
	}
	logger.Debug(ctx, "archive extracted", zap.Int("files", len(files)))

	entry, err := ResolveEntry(ws.ExtractDir, s.entryName)
	if err != nil {
		return failureOutcome(appErr.GetError(err))
	}

	raw, err := s.invoker.Invoke(ctx, entry, ws.OutputDir)
	if err != nil {
		out := failureOutcome(appErr.GetError(err))
		out.Log = raw.Output
		return out
	}

	out := Classify(raw, ws.OutputDir, entry, time.Now())
	out.Files = relPaths(ws.ExtractDir, files)
	return out
}

// relPaths rewrites extracted file paths relative to the extraction
// root so diagnostics never leak workspace locations.
func relPaths(root string, paths []string) []string {
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		rels = append(rels, rel)
	}
	return rels
}
