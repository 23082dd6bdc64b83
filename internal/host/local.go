// Package host provides the os-backed build host used by the CLI harness.
package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/module"

	"assetpack/internal/fsutil"
)

// Local implements the bundle.Host primitives against the local
// filesystem. Writes are atomic (tmp+rename).
type Local struct {
	WorkDir string
}

func (Local) Exists(path string) bool {
	return fsutil.Exists(path)
}

func (Local) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (Local) WriteFile(path string, data []byte, perm os.FileMode) error {
	return fsutil.AtomicWrite(path, data, perm)
}

func (Local) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ResolveModule resolves a bare package-style specifier by checking its
// import-path syntax and then looking under vendor/ directories, walking
// upward from the parent context (or the work dir when no parent is given).
func (l Local) ResolveModule(_ context.Context, specifier, parentDir string) (string, error) {
	if err := module.CheckImportPath(specifier); err != nil {
		return "", fmt.Errorf("MOD_SPECIFIER: %w", err)
	}
	start := parentDir
	if start == "" {
		start = l.WorkDir
	}
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("MOD_CONTEXT: %w", err)
		}
		start = wd
	}
	for dir := start; ; {
		candidate := filepath.Join(dir, "vendor", filepath.FromSlash(specifier))
		if fsutil.Exists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("MOD_NOT_FOUND: module %q not found from %s", specifier, start)
}
