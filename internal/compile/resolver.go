package compile

import (
	"io/fs"
	"path/filepath"

	appErr "texforge/pkg/errors"
)

// ResolveEntry walks root depth-first in lexical order and returns the
// first file whose name exactly matches entryName. Lexical order makes
// the tie-break deterministic when the same entry name exists in
// multiple subdirectories.
func ResolveEntry(root, entryName string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == entryName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", appErr.Wrapf(err, appErr.InternalServerError, "walk extracted tree failed")
	}
	if found == "" {
		return "", appErr.New(appErr.EntryFileNotFound).WithDetail("entry", entryName)
	}
	return found, nil
}
