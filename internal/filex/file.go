// Package filex provides the write-to-temp-then-rename primitives used for
// every file groupshare publishes, so readers never observe partial data.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// TempPrefix marks in-progress files. Directory listings must skip them.
const TempPrefix = ".partial-"

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// CreateTemp opens a new hidden temporary file inside dir.
func CreateTemp(dir string) (*os.File, error) {
	f, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create temp in %s: %w", dir, err)
	}
	return f, nil
}

// IsTemp reports whether name belongs to an unfinished write.
func IsTemp(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// syncDir is a seam for tests.
var syncDir = SyncDir

// SyncDir flushes the directory entries of dir, making a rename inside it
// durable. It is a no-op on Windows, where directories cannot be synced.
func SyncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir %s: %w", dir, err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return d.Close()
}

// Commit flushes f, closes it, renames it to dst and syncs the directory
// of dst. On failure before the rename the temporary file is removed.
func Commit(f *os.File, dst string) error {
	if err := f.Sync(); err != nil {
		Discard(f)
		return fmt.Errorf("sync %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close %s: %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return syncDir(filepath.Dir(dst))
}

// Discard closes and deletes an unfinished temporary file.
func Discard(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}

// WriteFileAtomic replaces path with data in one rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	f, err := CreateTemp(dir)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		Discard(f)
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Chmod(perm); err != nil {
		Discard(f)
		return fmt.Errorf("chmod %s: %w", f.Name(), err)
	}
	return Commit(f, path)
}
