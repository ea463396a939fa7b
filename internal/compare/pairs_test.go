package compare_test

import (
	"errors"
	"path/filepath"
	"snapshot-comparator/internal/compare"
	"snapshot-comparator/internal/storage"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPairFiles(t *testing.T) {
	t.Parallel()

	roots := compare.Roots{
		Original: filepath.Join("images", "original"),
		Latest:   filepath.Join("images", "latest"),
	}
	original := func(name string) string { return filepath.Join(roots.Original, filepath.FromSlash(name)) }
	latest := func(name string) string { return filepath.Join(roots.Latest, filepath.FromSlash(name)) }

	t.Run("JoinsOnRelativePath", func(t *testing.T) {
		t.Parallel()

		originals := []string{original("a.png"), original("nested/b.png"), original("c.png")}
		latests := []string{latest("c.png"), latest("a.png"), latest("nested/b.png")}

		pairs, err := compare.PairFiles(storage.NewFileStorage(), roots, originals, latests)
		if err != nil {
			t.Fatal(err)
		}

		want := []compare.Pair{
			{Original: original("a.png"), Latest: latest("a.png")},
			{Original: original("nested/b.png"), Latest: latest("nested/b.png")},
			{Original: original("c.png"), Latest: latest("c.png")},
		}
		if diff := cmp.Diff(want, pairs); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()

		pairs, err := compare.PairFiles(storage.NewFileStorage(), roots, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(0, len(pairs)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("CountMismatch", func(t *testing.T) {
		t.Parallel()

		_, err := compare.PairFiles(storage.NewFileStorage(), roots,
			[]string{original("a.png"), original("b.png")},
			[]string{latest("a.png")},
		)

		var count *compare.ImageCountMismatchError
		if !errors.As(err, &count) {
			t.Fatalf("expected *ImageCountMismatchError, got %v", err)
		}
		if diff := cmp.Diff(compare.ImageCountMismatchError{Original: 2, Latest: 1}, *count); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("ReportsUnpairedPaths", func(t *testing.T) {
		t.Parallel()

		_, err := compare.PairFiles(storage.NewFileStorage(), roots,
			[]string{original("a.png"), original("z.png"), original("nested/x.png")},
			[]string{latest("a.png"), latest("y.png"), latest("nested/w.png")},
		)

		var notPaired *compare.ImageNotPairedError
		if !errors.As(err, &notPaired) {
			t.Fatalf("expected *ImageNotPairedError, got %v", err)
		}
		want := compare.ImageNotPairedError{
			Original: []string{"nested/x.png", "z.png"},
			Latest:   []string{"nested/w.png", "y.png"},
		}
		if diff := cmp.Diff(want, *notPaired); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("LocationOutsideRoot", func(t *testing.T) {
		t.Parallel()

		stray := filepath.Join("elsewhere", "b.png")
		_, err := compare.PairFiles(storage.NewFileStorage(), roots,
			[]string{original("a.png"), stray},
			[]string{latest("a.png"), latest("b.png")},
		)

		var notPaired *compare.ImageNotPairedError
		if !errors.As(err, &notPaired) {
			t.Fatalf("expected *ImageNotPairedError, got %v", err)
		}
		want := compare.ImageNotPairedError{
			Latest:  []string{"b.png"},
			Outside: []string{stray},
		}
		if diff := cmp.Diff(want, *notPaired); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("SameNameInDifferentDirectories", func(t *testing.T) {
		t.Parallel()

		_, err := compare.PairFiles(storage.NewFileStorage(), roots,
			[]string{original("one/a.png")},
			[]string{latest("two/a.png")},
		)

		var notPaired *compare.ImageNotPairedError
		if !errors.As(err, &notPaired) {
			t.Fatalf("expected *ImageNotPairedError, got %v", err)
		}
	})
}
