// Package keyset normalizes asset target names into filesystem-safe
// relative paths and expands one resolved asset into the full set of
// lookup keys that must map to its final output location.
package keyset

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FallbackSegment is emitted when normalization produces no usable segments.
const FallbackSegment = "asset"

// SandboxRoot is the virtual root that embedded assets are addressed under
// in compiled deployments before extraction rewrites them to real paths.
const SandboxRoot = "/$assetpack/root/"

// Input is the slice of a resolved asset that key expansion operates on.
type Input struct {
	Specifier   string
	SourcePath  string
	OutputPath  string
	RuntimeKeys []string
}

// RelativePath derives the emitted location for an asset. A caller-supplied
// targetName is split on path separators, sanitized segment by segment and
// rejoined with "/"; a ".." segment becomes a literal sanitized token, so the
// result can never escape the output root. Without a targetName the basename
// of the resolved source (or the raw specifier) is used.
func RelativePath(specifier, targetName, sourcePath string) string {
	if targetName != "" {
		segments := strings.FieldsFunc(targetName, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		out := make([]string, 0, len(segments))
		for _, seg := range segments {
			if seg == "" || seg == "." {
				continue
			}
			out = append(out, sanitizeSegment(seg))
		}
		if len(out) == 0 {
			return FallbackSegment
		}
		return strings.Join(out, "/")
	}
	base := filepath.Base(sourcePath)
	if base == "." || base == string(filepath.Separator) || sourcePath == "" {
		base = filepath.Base(specifier)
	}
	if base == "." || base == string(filepath.Separator) || base == "" {
		return FallbackSegment
	}
	return sanitizeSegment(base)
}

// Expand returns the ordered, deduplicated lookup key set for one asset:
// the specifier, both path and URL forms of the source and output locations,
// every runtime alias, and sandbox-root variants for "./" aliases. Calling
// it twice yields the same set.
func Expand(in Input) []string {
	keys := make([]string, 0, 6+3*len(in.RuntimeKeys))
	add := func(k string) {
		if k != "" {
			keys = append(keys, k)
		}
	}
	add(in.Specifier)
	add(in.SourcePath)
	add(FileURL(in.SourcePath))
	add(in.OutputPath)
	add(FileURL(in.OutputPath))
	for _, rk := range in.RuntimeKeys {
		add(rk)
		if rest, ok := strings.CutPrefix(rk, "./"); ok && rest != "" {
			add(SandboxRoot + rest)
			add("file://" + SandboxRoot + rest)
		}
	}
	return dedup(keys)
}

// FileURL converts an absolute filesystem path to its file:// URL form.
// Returns "" for an empty path.
func FileURL(path string) string {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func sanitizeSegment(seg string) string {
	// A segment of only dots ("..") would survive the character class and
	// reintroduce traversal once segments are rejoined.
	if strings.Trim(seg, ".") == "" {
		return strings.Repeat("-", len(seg))
	}
	var b strings.Builder
	b.Grow(len(seg))
	for _, r := range seg {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func dedup(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
