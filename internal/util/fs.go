package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates the directory (and parents) if missing.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins an uploaded filename under root, discarding any path
// components the client sent so uploads cannot escape the data directory.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}
