// Package materialize moves resolved asset bytes into build output: copy
// mode writes each file under the output root, embed mode captures the
// bytes for embedding in the generated bootstrap.
package materialize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"assetpack/internal/manifest"
)

// Filesystem is the slice of host file I/O the materializer needs.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// Service materializes assets. Root is the output root for copy mode.
type Service struct {
	FS   Filesystem
	Log  *log.Logger
	Root string
}

// Copy writes the asset's bytes at Root/RelativePath, creating parent
// directories. Always overwrites; per-build the operation is idempotent.
func (s *Service) Copy(asset *manifest.ResolvedAsset) error {
	if s.Root == "" {
		return fmt.Errorf("MAT_OUTPUT_ROOT: no output root configured for copy mode")
	}
	data, err := s.FS.ReadFile(asset.SourcePath)
	if err != nil {
		return fmt.Errorf("MAT_READ_SOURCE: %w", err)
	}
	dest := filepath.Join(s.Root, filepath.FromSlash(asset.RelativePath))
	if err := s.FS.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("MAT_DEST_DIR: %w", err)
	}
	if err := s.FS.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("MAT_WRITE_DEST: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("copied asset", "source", asset.SourcePath, "dest", dest)
	}
	return nil
}

// Embed captures the asset's bytes onto the record for later base64
// encoding into the manifest literal. No disk write happens at build time.
func (s *Service) Embed(asset *manifest.ResolvedAsset) error {
	data, err := s.FS.ReadFile(asset.SourcePath)
	if err != nil {
		return fmt.Errorf("MAT_READ_SOURCE: %w", err)
	}
	asset.Payload = data
	if s.Log != nil {
		s.Log.Info("embedded asset", "source", asset.SourcePath, "bytes", len(data))
	}
	return nil
}

// DestPath returns the copy-mode output location for a relative path.
func (s *Service) DestPath(relativePath string) string {
	return filepath.Join(s.Root, filepath.FromSlash(relativePath))
}
