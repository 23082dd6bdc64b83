// Package bundle orchestrates one build pass: validate configuration,
// resolve every asset spec, materialize them in copy or embed mode, and
// inject the generated runtime bootstrap into each configured entrypoint.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"assetpack/internal/audit"
	"assetpack/internal/fsutil"
	"assetpack/internal/inject"
	"assetpack/internal/keyset"
	"assetpack/internal/manifest"
	"assetpack/internal/materialize"
	"assetpack/internal/resolver"
	"assetpack/pkg/assetruntime"
)

// AssetSpec is one user-supplied asset declaration.
type AssetSpec struct {
	Specifier   string
	TargetName  string
	RuntimeKeys []string
}

// BuildConfig mirrors the host build tool's configuration surface.
type BuildConfig struct {
	Platform    string
	OutDir      string
	OutFile     string
	Compile     bool
	Entrypoints []string
}

// Options is the plugin configuration surface.
type Options struct {
	Assets        []AssetSpec
	GlobalKey     string
	HelperName    string // empty disables the runtime helper
	ExtractionDir string
}

// Host supplies the build tool's primitives: file I/O and module
// resolution relative to an optional parent context.
type Host interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	ResolveModule(ctx context.Context, specifier, parentDir string) (string, error)
}

// Mode is the deployment mode of one build.
type Mode string

const (
	ModeCopy  Mode = "copy"
	ModeEmbed Mode = "embed"
)

// Result summarizes a completed build pass.
type Result struct {
	Mode         Mode                     `json:"mode"`
	OutputRoot   string                   `json:"outputRoot"`
	Fingerprint  string                   `json:"fingerprint"`
	ManifestPath string                   `json:"manifestPath"`
	Assets       []manifest.ResolvedAsset `json:"-"`
	Copied       []string                 `json:"copied,omitempty"`
	Injected     []string                 `json:"injected,omitempty"`
}

// Plugin runs the asset pipeline for one build. Not safe for concurrent
// builds; the host invokes one pass at a time.
type Plugin struct {
	Host    Host
	Options Options
	Build   BuildConfig
	Log     *log.Logger
	Audit   *audit.Logger
	WorkDir string

	mode        Mode
	outRoot     string
	tempRoot    string
	entrypoints map[string]struct{}
	injector    inject.Injector
	encoded     []byte
	fingerprint string
}

func (p *Plugin) setup() error {
	if p.Host == nil {
		return fmt.Errorf("CFG_HOST: build host not configured")
	}
	if len(p.Options.Assets) == 0 {
		return fmt.Errorf("CFG_ASSETS_EMPTY: at least one asset is required")
	}
	for _, a := range p.Options.Assets {
		if a.Specifier == "" {
			return fmt.Errorf("CFG_ASSET_SPECIFIER: asset specifier must not be empty")
		}
	}
	if d := p.Options.ExtractionDir; d != "" && !filepath.IsAbs(d) {
		return fmt.Errorf("CFG_EXTRACTION_DIR: extraction dir %q must be absolute", d)
	}
	if p.Build.Platform == "browser" {
		return fmt.Errorf("CFG_TARGET_PLATFORM: asset embedding is not defined for browser targets")
	}

	if p.Build.Compile {
		p.mode = ModeEmbed
	} else {
		p.mode = ModeCopy
	}

	switch {
	case p.Build.OutDir != "":
		p.outRoot = p.Build.OutDir
	case p.Build.OutFile != "":
		p.outRoot = filepath.Dir(p.Build.OutFile)
	case p.mode == ModeEmbed:
		tmp, err := os.MkdirTemp("", "assetpack-*")
		if err != nil {
			return fmt.Errorf("CFG_OUTPUT_TEMP: %w", err)
		}
		p.tempRoot = tmp
		p.outRoot = tmp
	default:
		return fmt.Errorf("CFG_OUTPUT_MISSING: copy mode requires an output directory or output file")
	}

	p.entrypoints = make(map[string]struct{}, len(p.Build.Entrypoints))
	for _, e := range p.Build.Entrypoints {
		p.entrypoints[cleanPath(e)] = struct{}{}
	}
	if p.Audit == nil {
		p.Audit = audit.New(manifest.AuditPath(p.outRoot))
	}
	return nil
}

// Run drives a full build pass the way a host would: setup, per-asset
// resolution and materialization, per-entrypoint injection, manifest
// persistence, end-of-build cleanup. The first unresolved asset aborts the
// whole build; there is no partial output.
func (p *Plugin) Run(ctx context.Context) (*Result, error) {
	if err := p.setup(); err != nil {
		return nil, err
	}
	defer p.OnEnd()

	assets, err := p.materializeAll(ctx)
	if err != nil {
		return nil, err
	}

	p.encoded, err = manifest.Encode(assets)
	if err != nil {
		return nil, err
	}
	p.fingerprint = manifest.Fingerprint(p.encoded)

	result := &Result{
		Mode:        p.mode,
		OutputRoot:  p.outRoot,
		Fingerprint: p.fingerprint,
		Assets:      assets,
	}
	if p.mode == ModeCopy {
		for _, a := range assets {
			result.Copied = append(result.Copied, filepath.Join(p.outRoot, filepath.FromSlash(a.RelativePath)))
		}
	}

	for _, entry := range p.Build.Entrypoints {
		contents, rerr := p.Host.ReadFile(entry)
		if rerr != nil {
			return nil, fmt.Errorf("INJ_ENTRYPOINT_READ: %w", rerr)
		}
		snippet, ok := p.OnLoad(entry, contents)
		if !ok {
			continue
		}
		dest := filepath.Join(filepath.Dir(entry), inject.SnippetFile)
		if werr := p.Host.WriteFile(dest, []byte(snippet), 0o644); werr != nil {
			return nil, fmt.Errorf("INJ_WRITE: %w", werr)
		}
		_ = p.Audit.Log(audit.Event{Phase: "inject", Asset: entry, Status: "ok", Message: dest})
		result.Injected = append(result.Injected, dest)
	}

	doc := manifest.Document{Fingerprint: p.fingerprint}
	for _, a := range assets {
		doc.Assets = append(doc.Assets, a.Wire())
	}
	if err := manifest.SaveDocument(p.outRoot, doc); err != nil {
		return nil, err
	}
	result.ManifestPath = manifest.DocumentPath(p.outRoot)
	_ = p.Audit.Log(audit.Event{Phase: "end", Status: "ok", Fields: map[string]string{
		"mode":        string(p.mode),
		"fingerprint": p.fingerprint,
	}})
	return result, nil
}

func (p *Plugin) materializeAll(ctx context.Context) ([]manifest.ResolvedAsset, error) {
	svc := &resolver.Service{
		FS:      p.Host,
		Modules: moduleAdapter{p.Host},
		WorkDir: p.WorkDir,
	}
	mat := &materialize.Service{FS: p.Host, Log: p.Log, Root: p.outRoot}
	candidates := p.candidateDirs()

	claimed := map[string]struct{}{}
	assets := make([]manifest.ResolvedAsset, 0, len(p.Options.Assets))
	for _, spec := range p.Options.Assets {
		src, err := svc.Resolve(ctx, spec.Specifier, candidates)
		if err != nil {
			_ = p.Audit.Log(audit.Event{Phase: "resolve", Asset: spec.Specifier, Status: "error", Message: err.Error()})
			return nil, err
		}
		_ = p.Audit.Log(audit.Event{Phase: "resolve", Asset: spec.Specifier, Status: "ok", Message: src})

		rel := keyset.RelativePath(spec.Specifier, spec.TargetName, src)
		outPath := ""
		if p.mode == ModeCopy {
			outPath = mat.DestPath(rel)
		}
		keys := keyset.Expand(keyset.Input{
			Specifier:   spec.Specifier,
			SourcePath:  src,
			OutputPath:  outPath,
			RuntimeKeys: spec.RuntimeKeys,
		})
		// First registration of a key wins across the whole build; an
		// alias shared by two assets stays with the first declarer.
		kept := make([]string, 0, len(keys))
		for _, k := range keys {
			if _, ok := claimed[k]; ok {
				continue
			}
			claimed[k] = struct{}{}
			kept = append(kept, k)
		}

		asset := manifest.ResolvedAsset{
			Specifier:    spec.Specifier,
			SourcePath:   src,
			SourceURL:    keyset.FileURL(src),
			RelativePath: rel,
			RuntimeKeys:  spec.RuntimeKeys,
			Keys:         kept,
		}
		if p.mode == ModeCopy {
			err = mat.Copy(&asset)
		} else {
			err = mat.Embed(&asset)
		}
		if err != nil {
			_ = p.Audit.Log(audit.Event{Phase: "materialize", Asset: spec.Specifier, Status: "error", Message: err.Error()})
			return nil, err
		}
		_ = p.Audit.Log(audit.Event{Phase: "materialize", Asset: spec.Specifier, Status: "ok", Message: rel})
		assets = append(assets, asset)
	}
	return assets, nil
}

// OnLoad is the per-file hook: it returns the bootstrap source when path is
// a configured entrypoint that has not been injected yet. Files already
// carrying the generated marker are left alone, keeping reprocessing
// idempotent.
func (p *Plugin) OnLoad(path string, contents []byte) (string, bool) {
	if _, ok := p.entrypoints[cleanPath(path)]; !ok {
		return "", false
	}
	if fsutil.IsGenerated(contents) {
		return "", false
	}
	if !p.injector.Claim(path) {
		return "", false
	}
	globalKey := p.Options.GlobalKey
	if globalKey == "" {
		globalKey = assetruntime.DefaultGlobalKey
	}
	snippet := inject.Snippet(p.encoded, inject.Options{
		PackageName:   "main",
		GlobalKey:     globalKey,
		HelperName:    p.Options.HelperName,
		ExtractionDir: p.Options.ExtractionDir,
		Fingerprint:   p.fingerprint,
	})
	return snippet, true
}

// OnEnd is the build-completion hook: it removes the temporary output root
// created when no persistent output location was configured.
func (p *Plugin) OnEnd() {
	if p.tempRoot != "" {
		_ = os.RemoveAll(p.tempRoot)
		p.tempRoot = ""
	}
}

func (p *Plugin) candidateDirs() []string {
	seen := map[string]struct{}{}
	dirs := make([]string, 0, len(p.Build.Entrypoints))
	for _, e := range p.Build.Entrypoints {
		dir := filepath.Dir(cleanPath(e))
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

type moduleAdapter struct {
	host Host
}

func (m moduleAdapter) Resolve(ctx context.Context, specifier, parentDir string) (string, error) {
	return m.host.ResolveModule(ctx, specifier, parentDir)
}
