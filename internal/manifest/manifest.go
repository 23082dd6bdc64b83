// Package manifest holds the asset data model and its serialized forms: the
// JSON array literal embedded in generated bootstrap code, and the versioned
// manifest.json document written under the build output root.
package manifest

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// ResolvedAsset is the build-time record for one asset spec. Created once
// per build by the resolver and materializer; immutable afterwards.
type ResolvedAsset struct {
	Specifier    string
	SourcePath   string
	SourceURL    string
	RelativePath string
	RuntimeKeys  []string
	Keys         []string
	Payload      []byte
}

// Asset is the wire form persisted in built output. Data is base64, present
// only in embed mode.
type Asset struct {
	Specifier    string   `json:"specifier"`
	RelativePath string   `json:"relativePath"`
	Keys         []string `json:"keys"`
	Data         string   `json:"data,omitempty"`
}

// Wire converts the build-time record into its persisted form.
func (r ResolvedAsset) Wire() Asset {
	a := Asset{
		Specifier:    r.Specifier,
		RelativePath: r.RelativePath,
		Keys:         r.Keys,
	}
	if len(r.Payload) > 0 {
		a.Data = base64.StdEncoding.EncodeToString(r.Payload)
	}
	return a
}

// Encode serializes assets into the JSON array literal that generated
// bootstrap code embeds verbatim.
func Encode(assets []ResolvedAsset) ([]byte, error) {
	wire := make([]Asset, 0, len(assets))
	for _, r := range assets {
		wire = append(wire, r.Wire())
	}
	blob, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("DOC_MANIFEST_ENCODE: %w", err)
	}
	return blob, nil
}

// Decode parses a manifest array literal back into wire records.
func Decode(data []byte) ([]Asset, error) {
	var assets []Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("DOC_MANIFEST_PARSE: %w", err)
	}
	return assets, nil
}

// Fingerprint returns a deterministic short digest of an encoded manifest,
// used to namespace the embed-mode extraction cache per distinct build.
func Fingerprint(encoded []byte) string {
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:16]
}
