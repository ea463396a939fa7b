package storage

import (
	"context"
	"strings"
)

// Storage is a read-only view over a snapshot tree.
type Storage interface {
	// Exists reports whether root is an existing directory (or prefix)
	Exists(ctx context.Context, root string) (bool, error)
	// List returns every object below root whose extension is exactly ext,
	// sorted lexicographically
	List(ctx context.Context, root string, ext string) ([]string, error)
	// Relative strips root from a location returned by List, reporting false
	// when location is not below root
	Relative(root string, location string) (string, bool)
	// Get retrieves the data stored at location
	Get(ctx context.Context, location string) ([]byte, error)
}

// hasExtension reports whether the final path element has extension ext.
// Dot-files such as ".png" have no extension.
func hasExtension(name string, ext string) bool {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return false
	}
	return name[i+1:] == ext
}
