package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/xerrors"
)

type fileStorage struct{}

// NewFileStorage creates a storage backend over the local filesystem. Roots
// and locations are used as given, relative to the working directory.
func NewFileStorage() Storage {
	return &fileStorage{}
}

func (a *fileStorage) Exists(ctx context.Context, root string) (bool, error) {
	info, err := os.Stat(root)
	if err != nil {
		return false, nil
	}
	return info.IsDir(), nil
}

// List walks root recursively. Entries that cannot be read are skipped
// rather than failing the walk. A symlinked root is followed, symlinks below
// it are not. Returned paths are below root as given.
func (a *fileStorage) List(ctx context.Context, root string, ext string) ([]string, error) {
	files := []string{}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return files, nil
	}

	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() || !hasExtension(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.Join(root, rel))
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to walk %s: %w", root, err)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func (a *fileStorage) Relative(root string, location string) (string, bool) {
	rel, err := filepath.Rel(root, location)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (a *fileStorage) Get(ctx context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, err
	}

	return data, nil
}
