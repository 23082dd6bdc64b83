package assetruntime

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ResolveFunc is a synchronous resolution entry point.
type ResolveFunc func(specifier string) (string, error)

// ResolveContextFunc is the asynchronous analog.
type ResolveContextFunc func(ctx context.Context, specifier string) (string, error)

// Resolvers bundles a program's resolution entry points: the synchronous
// resolver, its context-aware analog, and the dynamic-import resolver.
// Install replaces each with a table-consulting wrapper.
type Resolvers struct {
	Sync   ResolveFunc
	Async  ResolveContextFunc
	Import ResolveFunc

	wrappedBy *Table
}

// Installed reports whether this set has already been wrapped.
func (r *Resolvers) Installed() bool {
	return r != nil && r.wrappedBy != nil
}

// Install wraps each entry point so the table is consulted before the
// original resolver. Installing a second time is a no-op: wrapped sets
// carry a marker, so resolvers are never double-wrapped.
func (t *Table) Install(r *Resolvers) {
	if r == nil || r.Installed() {
		return
	}
	r.Sync = t.wrap(r.Sync)
	r.Import = t.wrap(r.Import)
	r.Async = t.wrapContext(r.Async)
	r.wrappedBy = t
}

// wrap implements the override protocol: a direct table hit returns
// immediately; otherwise the original runs, its successful result is
// re-checked as an override key (the original may yield a different but
// equivalent path form), and its failure gets one final table check before
// propagating.
func (t *Table) wrap(orig ResolveFunc) ResolveFunc {
	return func(specifier string) (string, error) {
		if path, ok := t.Lookup(specifier); ok {
			return path, nil
		}
		if orig == nil {
			return "", fmt.Errorf("assetruntime: no resolver for %q", specifier)
		}
		path, err := orig(specifier)
		if err != nil {
			if override, ok := t.Lookup(specifier); ok {
				return override, nil
			}
			return "", err
		}
		if override, ok := t.Lookup(path); ok {
			return override, nil
		}
		return path, nil
	}
}

func (t *Table) wrapContext(orig ResolveContextFunc) ResolveContextFunc {
	return func(ctx context.Context, specifier string) (string, error) {
		if path, ok := t.Lookup(specifier); ok {
			return path, nil
		}
		if orig == nil {
			return "", fmt.Errorf("assetruntime: no resolver for %q", specifier)
		}
		path, err := orig(ctx, specifier)
		if err != nil {
			if override, ok := t.Lookup(specifier); ok {
				return override, nil
			}
			return "", err
		}
		if override, ok := t.Lookup(path); ok {
			return override, nil
		}
		return path, nil
	}
}

// installOnce guards the process-wide default resolver patch: the first
// booted table wraps the defaults, later boots merge entries but skip
// re-installation.
func (t *Table) installOnce() {
	t.mu.Lock()
	if t.installed {
		t.mu.Unlock()
		return
	}
	t.installed = true
	t.mu.Unlock()
	t.Install(defaultResolvers)
}

var defaultResolvers = &Resolvers{
	Sync:   statResolve,
	Import: statResolve,
	Async: func(_ context.Context, specifier string) (string, error) {
		return statResolve(specifier)
	},
}

// Resolve routes a specifier through the process's default synchronous
// resolver, consulting any booted override table first.
func Resolve(specifier string) (string, error) {
	return defaultResolvers.Sync(specifier)
}

// ResolveContext is the asynchronous analog of Resolve.
func ResolveContext(ctx context.Context, specifier string) (string, error) {
	return defaultResolvers.Async(ctx, specifier)
}

// ResolveImport routes a dynamic-import specifier.
func ResolveImport(specifier string) (string, error) {
	return defaultResolvers.Import(specifier)
}

func statResolve(specifier string) (string, error) {
	path := specifier
	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("assetruntime: cannot resolve %q: %w", specifier, err)
		}
		path = filepath.FromSlash(u.Path)
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("assetruntime: cannot resolve %q: %w", specifier, err)
		}
		path = filepath.Join(wd, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("assetruntime: cannot resolve %q: %w", specifier, err)
	}
	return filepath.Clean(path), nil
}
