package compile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	appErr "texforge/pkg/errors"
)

// ExtractArchive expands the zip at archivePath into destDir and
// returns the extracted file paths. Every entry path is validated so
// no entry can write outside destDir.
func ExtractArchive(archivePath, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		// A reader is still returned for insecure entry names; let
		// secureJoin classify those per entry.
		if !errors.Is(err, zip.ErrInsecurePath) {
			return nil, appErr.Wrap(err, appErr.BadArchive)
		}
	}
	defer func() { _ = reader.Close() }()

	var files []string
	for _, entry := range reader.File {
		target, err := secureJoin(destDir, entry.Name)
		if err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, wrapExtractErr(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, wrapExtractErr(err)
		}
		if err := extractFile(entry, target); err != nil {
			return nil, err
		}
		files = append(files, target)
	}

	if len(files) == 0 {
		return nil, appErr.New(appErr.EmptyArchive)
	}
	return files, nil
}

func extractFile(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return appErr.Wrap(err, appErr.BadArchive)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return wrapExtractErr(err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, rc); err != nil {
		return wrapExtractErr(err)
	}
	return nil
}

// secureJoin joins an archive entry name onto destDir and rejects
// entries that would land outside it (zip-slip).
func secureJoin(destDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", appErr.New(appErr.UnsafeArchiveEntry).WithDetail("entry", name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", appErr.New(appErr.UnsafeArchiveEntry).WithDetail("entry", name)
	}
	return target, nil
}

func wrapExtractErr(err error) error {
	if os.IsPermission(err) {
		return appErr.Wrap(err, appErr.ArchivePermissionDenied)
	}
	return appErr.Wrapf(err, appErr.InternalServerError, "extract archive failed")
}
