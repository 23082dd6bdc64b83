package assetruntime

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// extractionDir computes the embed-mode cache directory: the configured
// absolute root (or a fixed temp-directory convention) plus a fingerprint
// subdirectory, so repeated runs of the same build reuse extracted files.
func extractionDir(opts Options, manifestJSON string) string {
	root := opts.ExtractionDir
	if root == "" {
		root = filepath.Join(os.TempDir(), "assetpack")
	}
	fp := opts.Fingerprint
	if fp == "" {
		sum := sha256.Sum256([]byte(manifestJSON))
		fp = hex.EncodeToString(sum[:])[:16]
	}
	return filepath.Join(root, fp)
}

// extract writes each embedded payload under dir unless the target file
// already exists, so second and later runs short-circuit. All failures are
// swallowed: extraction is best-effort and a missing file only surfaces
// when application code actually opens it. There is no cross-process lock;
// concurrent first launches may redundantly write the same bytes.
func extract(assets []Asset, dir string) {
	for _, a := range assets {
		if a.Data == "" || a.RelativePath == "" {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(a.RelativePath))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		data, err := decodePayload(a.Data)
		if err != nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			continue
		}
		_ = os.WriteFile(dest, data, 0o644)
	}
}
