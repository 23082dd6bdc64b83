package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"assetpack/internal/fsutil"
)

// DefaultConfigPath is the config file looked up in the working directory.
const DefaultConfigPath = "assetpack.toml"

func Load(path string) (File, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("CFG_PARSE: %w", err)
	}
	f = Normalize(f)
	if err := Validate(f); err != nil {
		return File{}, err
	}
	return f, nil
}

func Save(path string, f File) error {
	if path == "" {
		path = DefaultConfigPath
	}
	f = Normalize(f)
	if err := Validate(f); err != nil {
		return err
	}
	blob, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("CFG_ENCODE: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return fsutil.AtomicWrite(path, blob, 0o644)
}
