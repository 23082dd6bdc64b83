package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"assetpack/internal/fsutil"
)

const DocumentVersion = 1

// Document is the manifest.json written under the build output root so
// built output can be inspected without parsing generated source.
type Document struct {
	Version     int     `json:"version"`
	Fingerprint string  `json:"fingerprint"`
	Assets      []Asset `json:"assets"`
}

func DocumentPath(root string) string {
	return filepath.Join(root, "manifest.json")
}

func AuditPath(root string) string {
	return filepath.Join(root, "audit.log")
}

func SaveDocument(root string, doc Document) error {
	doc.Version = DocumentVersion
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("DOC_MANIFEST_ENCODE: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	return fsutil.AtomicWrite(DocumentPath(root), append(blob, '\n'), 0o644)
}

func LoadDocument(root string) (Document, error) {
	blob, err := os.ReadFile(DocumentPath(root))
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return Document{}, fmt.Errorf("DOC_MANIFEST_PARSE: %w", err)
	}
	if doc.Version != DocumentVersion {
		return Document{}, fmt.Errorf("DOC_MANIFEST_VERSION: unsupported version %d", doc.Version)
	}
	seen := map[string]struct{}{}
	for _, a := range doc.Assets {
		if a.Specifier == "" || a.RelativePath == "" {
			return Document{}, fmt.Errorf("DOC_MANIFEST_SCHEMA: incomplete asset record")
		}
		if _, ok := seen[a.RelativePath]; ok {
			return Document{}, fmt.Errorf("DOC_MANIFEST_SCHEMA: duplicate relative path %q", a.RelativePath)
		}
		seen[a.RelativePath] = struct{}{}
	}
	return doc, nil
}
