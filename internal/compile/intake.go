package compile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErr "texforge/pkg/errors"
)

const archiveExtension = ".zip"

// Intake turns a Source into a single on-disk archive path.
type Intake struct {
	archiveDir string
	tempDir    string
	maxBytes   int64
}

// NewIntake creates an intake. archiveDir is the fixed directory that
// referenced-by-name archives must live in; tempDir receives uploaded
// archives; maxBytes bounds uploads (0 means unlimited).
func NewIntake(archiveDir, tempDir string, maxBytes int64) *Intake {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Intake{archiveDir: archiveDir, tempDir: tempDir, maxBytes: maxBytes}
}

// Resolve produces the archive path plus a cleanup func that must run
// when the request finishes. Upload bytes take precedence over a
// referenced filename.
func (in *Intake) Resolve(src Source) (string, func(), error) {
	noop := func() {}

	if len(src.Upload) > 0 {
		if in.maxBytes > 0 && int64(len(src.Upload)) > in.maxBytes {
			return "", noop, appErr.New(appErr.ArchiveTooLarge).
				WithDetail("size", len(src.Upload)).
				WithDetail("limit", in.maxBytes)
		}
		path := filepath.Join(in.tempDir, "upload-"+uuid.NewString()+archiveExtension)
		if err := os.WriteFile(path, src.Upload, 0644); err != nil {
			return "", noop, appErr.Wrapf(err, appErr.InternalServerError, "persist uploaded archive failed")
		}
		cleanup := func() { _ = os.Remove(path) }
		return path, cleanup, nil
	}

	if src.Filename != "" {
		name := src.Filename
		// The name must stay inside the archive directory.
		if name != filepath.Base(name) || name == "." || name == ".." {
			return "", noop, appErr.New(appErr.ArchiveNotFound).WithDetail("filename", name)
		}
		if !strings.HasSuffix(name, archiveExtension) {
			return "", noop, appErr.New(appErr.ArchiveNotFound).WithDetail("filename", name)
		}
		path := filepath.Join(in.archiveDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return "", noop, appErr.New(appErr.ArchiveNotFound).WithDetail("filename", name)
		}
		return path, noop, nil
	}

	return "", noop, appErr.New(appErr.ArchiveNotProvided)
}

// ListArchives returns the archive filenames available for the
// referenced-by-name flow, sorted by the directory listing order.
func (in *Intake) ListArchives() ([]string, error) {
	entries, err := os.ReadDir(in.archiveDir)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "read archive dir failed")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), archiveExtension) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
