package compare

import (
	"context"
	"snapshot-comparator/internal/storage"

	"golang.org/x/xerrors"
)

// Roots are the original and latest tree roots, confirmed to exist.
type Roots struct {
	Original string
	Latest   string
}

// ResolveDirectories checks both roots before anything is enumerated and
// reports every missing one by name.
func ResolveDirectories(ctx context.Context, s storage.Storage, original string, latest string) (Roots, error) {
	originalExists, err := s.Exists(ctx, original)
	if err != nil {
		return Roots{}, xerrors.Errorf("failed to check original directory %s: %w", original, err)
	}

	latestExists, err := s.Exists(ctx, latest)
	if err != nil {
		return Roots{}, xerrors.Errorf("failed to check latest directory %s: %w", latest, err)
	}

	if originalExists && latestExists {
		return Roots{
			Original: original,
			Latest:   latest,
		}, nil
	}

	missing := &MissingDirectoriesError{}
	if !originalExists {
		missing.Missing = append(missing.Missing, MissingDirectory{Name: "original", Path: original})
	}
	if !latestExists {
		missing.Missing = append(missing.Missing, MissingDirectory{Name: "latest", Path: latest})
	}
	return Roots{}, missing
}
