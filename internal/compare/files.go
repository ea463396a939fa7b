package compare

import (
	"context"
	"snapshot-comparator/internal/storage"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// FindFiles enumerates both trees and fails when they hold a different
// number of matching files.
func FindFiles(ctx context.Context, s storage.Storage, roots Roots, ext string) ([]string, []string, error) {
	var originals []string
	var latests []string

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		files, err := s.List(ctx, roots.Original, ext)
		if err != nil {
			return xerrors.Errorf("failed to list original images: %w", err)
		}
		originals = files
		return nil
	})

	eg.Go(func() error {
		files, err := s.List(ctx, roots.Latest, ext)
		if err != nil {
			return xerrors.Errorf("failed to list latest images: %w", err)
		}
		latests = files
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	if len(originals) != len(latests) {
		return nil, nil, &ImageCountMismatchError{
			Original: len(originals),
			Latest:   len(latests),
		}
	}

	return originals, latests, nil
}
