package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"snapshot-comparator/internal/storage"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createFiles(t *testing.T, root string, names ...string) {
	t.Helper()

	for _, name := range names {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFileStorageList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	createFiles(t, root,
		"b.png",
		"a.png",
		"nested/deeper/c.png",
		"nested/d.PNG",
		"nested/e.jpg",
		".png",
		"archive.tar.png",
		"noext",
	)
	if err := os.Mkdir(filepath.Join(root, "dir.png"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "a.png"), filepath.Join(root, "link.png")); err != nil {
		t.Fatal(err)
	}

	s := storage.NewFileStorage()

	got, err := s.List(ctx, root, "png")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(root, "a.png"),
		filepath.Join(root, "archive.tar.png"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "nested/deeper/c.png"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err = s.List(ctx, root, "jpg")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "nested/e.jpg")}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorageListMissingRoot(t *testing.T) {
	s := storage.NewFileStorage()

	got, err := s.List(context.Background(), filepath.Join(t.TempDir(), "missing"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorageListSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	createFiles(t, realDir, "a.png", "nested/b.png")
	createFiles(t, dir, "elsewhere/c.png")
	if err := os.Symlink(filepath.Join(dir, "elsewhere"), filepath.Join(realDir, "linked")); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "original")
	if err := os.Symlink(realDir, root); err != nil {
		t.Fatal(err)
	}

	s := storage.NewFileStorage()

	got, err := s.List(context.Background(), root, "png")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(root, "a.png"),
		filepath.Join(root, "nested/b.png"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	rel, ok := s.Relative(root, want[1])
	if !ok {
		t.Fatalf("expected %s to be below %s", want[1], root)
	}
	if diff := cmp.Diff("nested/b.png", rel); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorageListSkipsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	createFiles(t, root, "a.png", "locked/b.png")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(locked, 0755)
	})

	got, err := storage.NewFileStorage().List(context.Background(), root, "png")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "a.png")}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorageExists(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	createFiles(t, root, "file.png")

	s := storage.NewFileStorage()

	for name, tt := range map[string]struct {
		root string
		want bool
	}{
		"Directory": {root, true},
		"File":      {filepath.Join(root, "file.png"), false},
		"Missing":   {filepath.Join(root, "missing"), false},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := s.Exists(ctx, tt.root)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileStorageRelative(t *testing.T) {
	s := storage.NewFileStorage()

	for name, tt := range map[string]struct {
		root     string
		location string
		want     string
		wantOK   bool
	}{
		"Child":         {"images/original", "images/original/a.png", "a.png", true},
		"Nested":        {"./images/original/", "images/original/x/y/a.png", "x/y/a.png", true},
		"OutsideRoot":   {"images/original", "images/latest/a.png", "", false},
		"SiblingPrefix": {"images/orig", "images/original/a.png", "", false},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := s.Relative(tt.root, tt.location)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileStorageGet(t *testing.T) {
	root := t.TempDir()
	createFiles(t, root, "a.png")
	s := storage.NewFileStorage()

	got, err := s.Get(context.Background(), filepath.Join(root, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte("a.png"), got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := s.Get(context.Background(), filepath.Join(root, "missing.png")); !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}
