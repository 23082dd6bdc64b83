// Package inject synthesizes the generated bootstrap source prepended to
// build output: a self-contained file whose package-level initializer
// rebuilds the override table from the embedded manifest literal.
package inject

import (
	"fmt"
	"path/filepath"
	"strconv"

	"assetpack/internal/fsutil"
)

// DefaultRuntimeImport is the import path of the runtime package the
// generated bootstrap calls into.
const DefaultRuntimeImport = "assetpack/pkg/assetruntime"

// SnippetFile is the name of the generated bootstrap file placed next to
// each entrypoint.
const SnippetFile = "assetpack_boot.gen.go"

// Options configures snippet generation for one build.
type Options struct {
	PackageName   string
	GlobalKey     string
	HelperName    string
	ExtractionDir string
	Fingerprint   string
	RuntimeImport string
}

const snippetTemplate = `%s

package %s

import assetruntime %q

var _ = assetruntime.Boot(assetruntime.Options{
	GlobalKey:     %q,
	HelperName:    %q,
	ExtractionDir: %q,
	Fingerprint:   %q,
}, %s)
`

// Snippet renders the generated bootstrap file for one entrypoint package.
// The manifest literal is embedded as a quoted Go string so it survives any
// byte content the manifest may carry.
func Snippet(encodedManifest []byte, opts Options) string {
	pkg := opts.PackageName
	if pkg == "" {
		pkg = "main"
	}
	imp := opts.RuntimeImport
	if imp == "" {
		imp = DefaultRuntimeImport
	}
	return fmt.Sprintf(snippetTemplate,
		fsutil.GeneratedMarker,
		pkg,
		imp,
		opts.GlobalKey,
		opts.HelperName,
		opts.ExtractionDir,
		opts.Fingerprint,
		strconv.Quote(string(encodedManifest)),
	)
}

// Injector tracks which entrypoints have received the bootstrap within one
// build, so reprocessed files are not injected twice.
type Injector struct {
	done map[string]struct{}
}

// Claim records path (cleaned to a stable identity) and reports whether
// this is its first injection.
func (i *Injector) Claim(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if i.done == nil {
		i.done = map[string]struct{}{}
	}
	if _, ok := i.done[path]; ok {
		return false
	}
	i.done[path] = struct{}{}
	return true
}
