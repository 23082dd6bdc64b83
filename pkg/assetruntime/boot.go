package assetruntime

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
)

// Options configures one Boot call. Generated bootstrap code fills these
// from the build configuration.
type Options struct {
	// GlobalKey names the override table; empty means DefaultGlobalKey.
	GlobalKey string
	// HelperName registers a named lookup helper; empty disables it.
	HelperName string
	// ExtractionDir overrides the embed-mode cache root. Must be absolute.
	ExtractionDir string
	// Fingerprint namespaces the extraction cache per distinct build.
	Fingerprint string
}

// Asset is one manifest record. Data carries the base64 payload in embed
// mode.
type Asset struct {
	Specifier    string   `json:"specifier"`
	RelativePath string   `json:"relativePath"`
	Keys         []string `json:"keys"`
	Data         string   `json:"data,omitempty"`
}

// Boot initializes the asset layer for one build's manifest: parses the
// manifest literal, extracts embedded payloads on first run, merges every
// lookup key into the process-wide table, registers the lookup helper and
// installs the default resolver wrappers once per process. Boot never
// panics and swallows all failures; the asset layer must not be the reason
// a program fails at startup. Returns false when the manifest is unusable.
func Boot(opts Options, manifestJSON string) bool {
	var assets []Asset
	if err := json.Unmarshal([]byte(manifestJSON), &assets); err != nil {
		return false
	}

	embedded := false
	for _, a := range assets {
		if a.Data != "" {
			embedded = true
			break
		}
	}

	var base string
	if embedded {
		base = extractionDir(opts, manifestJSON)
		extract(assets, base)
	} else {
		base = programDir()
	}

	t := TableFor(opts.GlobalKey)
	for _, a := range assets {
		if a.RelativePath == "" {
			continue
		}
		final := filepath.Join(base, filepath.FromSlash(a.RelativePath))
		t.Register(final, final)
		t.Register(fileURL(final), final)
		for _, key := range a.Keys {
			t.Register(key, final)
		}
	}

	if opts.HelperName != "" {
		registerHelper(opts.HelperName, t)
	}
	t.installOnce()
	return true
}

// programDir locates copy-mode assets: they sit next to the built program.
func programDir() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func decodePayload(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}
