package compile

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErr "texforge/pkg/errors"
	"texforge/pkg/utils/logger"
)

const (
	extractDirName = "tree"
	outputDirName  = "out"
)

// Workspace is the exclusively-owned, per-request directory tree.
// The archive is expanded under ExtractDir and the compiler writes
// into OutputDir. Release removes the whole tree.
type Workspace struct {
	Root       string
	ExtractDir string
	OutputDir  string
}

// NewWorkspace creates a fresh workspace under workRoot.
func NewWorkspace(workRoot string) (*Workspace, error) {
	root := filepath.Join(workRoot, "req-"+uuid.NewString())
	ws := &Workspace{
		Root:       root,
		ExtractDir: filepath.Join(root, extractDirName),
		OutputDir:  filepath.Join(root, outputDirName),
	}
	for _, dir := range []string{ws.Root, ws.ExtractDir, ws.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = os.RemoveAll(root)
			return nil, appErr.Wrapf(err, appErr.InternalServerError, "create workspace failed")
		}
	}
	return ws, nil
}

// Release removes the workspace tree. Safe to call on every exit path.
func (w *Workspace) Release(ctx context.Context) {
	if w == nil || w.Root == "" {
		return
	}
	if err := os.RemoveAll(w.Root); err != nil {
		logger.Warn(ctx, "remove workspace failed", zap.String("root", w.Root), zap.Error(err))
	}
}
