// SPDX-License-Identifier: MPL-2.0

// Package fspath provides small queries over a project filesystem. Paths are
// slash-separated and relative to the filesystem root.
package fspath

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
)

// ErrOutsideRoot is returned by Within when the target is not under the base.
var ErrOutsideRoot = errors.New("path is outside the project root")

// Exists reports whether name exists.
func Exists(fs billy.Basic, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}

// IsDir reports whether name exists and is a directory.
func IsDir(fs billy.Basic, name string) bool {
	info, err := fs.Stat(name)
	return err == nil && info.IsDir()
}

// IsFile reports whether name exists and is not a directory.
func IsFile(fs billy.Basic, name string) bool {
	info, err := fs.Stat(name)
	return err == nil && !info.IsDir()
}

// ReadFile returns the whole content of name.
func ReadFile(fs billy.Basic, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// HasEntryWithPrefix reports whether dir contains an entry whose name starts
// with prefix. A missing dir has no entries.
func HasEntryWithPrefix(fs billy.Dir, dir, prefix string) bool {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			return true
		}
	}
	return false
}

// Within returns target relative to base in slash form. Both are OS paths.
// It fails with ErrOutsideRoot when target is base itself or lies outside it.
func Within(base, target string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutsideRoot, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	return path.Clean(rel), nil
}

// IsNotExist reports whether err means a file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
