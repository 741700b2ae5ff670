// Package fileutil names temporary artifacts and writes files atomically.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SplitName returns the directory, the file name without extension and the
// extension of path.
func SplitName(path string) (dir, stem, ext string) {
	dir = filepath.Dir(path)
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	return dir, stem, ext
}

// Derived returns "<stem>_<suffix><ext>" inside dir, or next to path when
// dir is empty.
func Derived(path, dir, suffix string) string {
	srcDir, stem, ext := SplitName(path)
	if dir == "" {
		dir = srcDir
	}
	return filepath.Join(dir, stem+"_"+suffix+ext)
}

// Unique returns "<stem>_<tag>-<uuid><ext>" inside dir, or next to path when
// dir is empty. Concurrent callers never receive the same name.
func Unique(path, dir, tag string) string {
	return Derived(path, dir, tag+"-"+uuid.NewString())
}

// WriteFile writes data to a temporary file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFile(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err = f.Chmod(perm); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
