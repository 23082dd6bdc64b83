package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assetpack/internal/buildlog"
	"assetpack/internal/fsutil"
	"assetpack/internal/host"
	"assetpack/internal/manifest"
	"assetpack/internal/resolver"
	"assetpack/pkg/assetruntime"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func newWorkspace(t *testing.T) (work, entry string) {
	t.Helper()
	work = t.TempDir()
	writeFile(t, filepath.Join(work, "assets", "sample.txt"), "hello bundled world")
	entry = filepath.Join(work, "src", "main.go")
	writeFile(t, entry, "package main\n\nfunc main() {}\n")
	return work, entry
}

func newPlugin(work string, opts Options, build BuildConfig) *Plugin {
	return &Plugin{
		Host:    host.Local{WorkDir: work},
		Log:     buildlog.New(buildlog.ModeQuiet),
		WorkDir: work,
		Options: opts,
		Build:   build,
	}
}

func TestRunCopyModeScenario(t *testing.T) {
	work, entry := newWorkspace(t)
	out := filepath.Join(work, "dist")

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{{
			Specifier:   "./assets/sample.txt",
			TargetName:  "static/text/sample.txt",
			RuntimeKeys: []string{"./assets/sample.txt"},
		}},
		GlobalKey:  "e2e-copy",
		HelperName: "e2eCopyHelper",
	}, BuildConfig{OutDir: out, Entrypoints: []string{entry}})

	res, err := plugin.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Mode != ModeCopy {
		t.Fatalf("mode = %q, want copy", res.Mode)
	}

	dest := filepath.Join(out, "static", "text", "sample.txt")
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("copied asset missing: %v", err)
	}
	if strings.TrimSpace(string(got)) != "hello bundled world" {
		t.Errorf("copied content = %q", got)
	}

	if len(res.Injected) != 1 {
		t.Fatalf("expected one injected bootstrap, got %v", res.Injected)
	}
	snippet, err := os.ReadFile(res.Injected[0])
	if err != nil {
		t.Fatalf("bootstrap missing: %v", err)
	}
	if !fsutil.IsGenerated(snippet) {
		t.Error("bootstrap should carry the generated marker")
	}
	if !strings.Contains(string(snippet), `"e2e-copy"`) {
		t.Error("bootstrap should carry the global key")
	}

	doc, err := manifest.LoadDocument(out)
	if err != nil {
		t.Fatalf("manifest load failed: %v", err)
	}
	if doc.Fingerprint != res.Fingerprint {
		t.Errorf("fingerprint mismatch: %q vs %q", doc.Fingerprint, res.Fingerprint)
	}
	if !fsutil.Exists(manifest.AuditPath(out)) {
		t.Error("audit log should be written under the output root")
	}

	// The built program's startup path: boot from the persisted manifest
	// and resolve the runtime alias through the helper.
	literal, err := json.Marshal(doc.Assets)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if !assetruntime.Boot(assetruntime.Options{GlobalKey: "e2e-copy", HelperName: "e2eCopyHelper"}, string(literal)) {
		t.Fatal("runtime boot failed")
	}
	lookup := assetruntime.Helper("e2eCopyHelper")
	path, ok := lookup("./assets/sample.txt")
	if !ok {
		t.Fatal("helper should resolve the runtime key")
	}
	if !strings.HasSuffix(path, filepath.FromSlash("static/text/sample.txt")) {
		t.Errorf("helper path = %q, want static/text/sample.txt suffix", path)
	}
}

func TestRunEmbedModeScenario(t *testing.T) {
	work, entry := newWorkspace(t)
	out := filepath.Join(work, "dist")
	cache := t.TempDir()

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{{
			Specifier:   "./assets/sample.txt",
			TargetName:  "static/text/sample.txt",
			RuntimeKeys: []string{"./assets/sample.txt"},
		}},
		GlobalKey:     "e2e-embed",
		HelperName:    "e2eEmbedHelper",
		ExtractionDir: cache,
	}, BuildConfig{OutDir: out, Compile: true, Entrypoints: []string{entry}})

	res, err := plugin.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Mode != ModeEmbed {
		t.Fatalf("mode = %q, want embed", res.Mode)
	}
	if fsutil.Exists(filepath.Join(out, "static", "text", "sample.txt")) {
		t.Error("embed mode must not copy the asset at build time")
	}

	doc, err := manifest.LoadDocument(out)
	if err != nil {
		t.Fatalf("manifest load failed: %v", err)
	}
	if doc.Assets[0].Data == "" {
		t.Fatal("embed mode should carry a base64 payload")
	}

	literal, err := json.Marshal(doc.Assets)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	boot := assetruntime.Options{
		GlobalKey:     "e2e-embed",
		HelperName:    "e2eEmbedHelper",
		ExtractionDir: cache,
		Fingerprint:   res.Fingerprint,
	}
	if !assetruntime.Boot(boot, string(literal)) {
		t.Fatal("runtime boot failed")
	}
	lookup := assetruntime.Helper("e2eEmbedHelper")
	path, ok := lookup("./assets/sample.txt")
	if !ok {
		t.Fatal("helper should resolve the runtime key")
	}
	if !strings.HasPrefix(path, cache) {
		t.Errorf("extracted path %q should live under %q", path, cache)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("extracted asset missing: %v", err)
	}
	if strings.TrimSpace(string(got)) != "hello bundled world" {
		t.Errorf("extracted content = %q", got)
	}
}

func TestRunEmbedWithoutOutputCleansTempRoot(t *testing.T) {
	work, entry := newWorkspace(t)

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{{Specifier: "./assets/sample.txt"}},
	}, BuildConfig{Compile: true, Entrypoints: []string{entry}})

	res, err := plugin.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.OutputRoot == "" {
		t.Fatal("expected a temporary output root")
	}
	if _, err := os.Stat(res.OutputRoot); !os.IsNotExist(err) {
		t.Errorf("temporary output root should be removed at build end")
	}
}

func TestRunNotFoundAbortsBuild(t *testing.T) {
	work, entry := newWorkspace(t)
	out := filepath.Join(work, "dist")

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{
			{Specifier: "./assets/sample.txt"},
			{Specifier: "./assets/missing.txt"},
		},
	}, BuildConfig{OutDir: out, Entrypoints: []string{entry}})

	_, err := plugin.Run(context.Background())
	if err == nil {
		t.Fatal("expected not-found error")
	}
	var nf *resolver.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(work, "assets", "missing.txt")) {
		t.Errorf("error should list the attempted path: %q", err)
	}
	if fsutil.Exists(manifest.DocumentPath(out)) {
		t.Error("failed build must not leave a manifest behind")
	}
}

func TestRunSharedAliasFirstWins(t *testing.T) {
	work, entry := newWorkspace(t)
	writeFile(t, filepath.Join(work, "assets", "other.txt"), "second asset")
	out := filepath.Join(work, "dist")

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{
			{Specifier: "./assets/sample.txt", RuntimeKeys: []string{"shared-alias"}},
			{Specifier: "./assets/other.txt", RuntimeKeys: []string{"shared-alias"}},
		},
		GlobalKey: "e2e-shared-alias",
	}, BuildConfig{OutDir: out, Entrypoints: []string{entry}})

	res, err := plugin.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	hasAlias := func(keys []string) bool {
		for _, k := range keys {
			if k == "shared-alias" {
				return true
			}
		}
		return false
	}
	if !hasAlias(res.Assets[0].Keys) {
		t.Error("first asset should own the shared alias")
	}
	if hasAlias(res.Assets[1].Keys) {
		t.Error("second asset must not re-register the shared alias")
	}

	doc, _ := manifest.LoadDocument(out)
	literal, _ := json.Marshal(doc.Assets)
	assetruntime.Boot(assetruntime.Options{GlobalKey: "e2e-shared-alias"}, string(literal))
	got, ok := assetruntime.Lookup("e2e-shared-alias", "shared-alias")
	if !ok {
		t.Fatal("shared alias should resolve")
	}
	if !strings.HasSuffix(got, "sample.txt") {
		t.Errorf("shared alias = %q, want the first asset's output", got)
	}
}

func TestRunConfigurationErrors(t *testing.T) {
	work, entry := newWorkspace(t)
	sample := AssetSpec{Specifier: "./assets/sample.txt"}

	tests := []struct {
		name    string
		opts    Options
		build   BuildConfig
		wantSub string
	}{
		{
			"empty assets",
			Options{},
			BuildConfig{OutDir: filepath.Join(work, "dist")},
			"CFG_ASSETS_EMPTY",
		},
		{
			"empty specifier",
			Options{Assets: []AssetSpec{{Specifier: ""}}},
			BuildConfig{OutDir: filepath.Join(work, "dist")},
			"CFG_ASSET_SPECIFIER",
		},
		{
			"relative extraction dir",
			Options{Assets: []AssetSpec{sample}, ExtractionDir: "cache"},
			BuildConfig{OutDir: filepath.Join(work, "dist")},
			"CFG_EXTRACTION_DIR",
		},
		{
			"browser target",
			Options{Assets: []AssetSpec{sample}},
			BuildConfig{Platform: "browser", OutDir: filepath.Join(work, "dist")},
			"CFG_TARGET_PLATFORM",
		},
		{
			"copy mode without output",
			Options{Assets: []AssetSpec{sample}},
			BuildConfig{Entrypoints: []string{entry}},
			"CFG_OUTPUT_MISSING",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := newPlugin(work, tt.opts, tt.build)
			_, err := plugin.Run(context.Background())
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestRunOutFileDerivesOutputRoot(t *testing.T) {
	work, entry := newWorkspace(t)
	outFile := filepath.Join(work, "dist", "app.js")

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{{Specifier: "./assets/sample.txt"}},
	}, BuildConfig{OutFile: outFile, Entrypoints: []string{entry}})

	res, err := plugin.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.OutputRoot != filepath.Join(work, "dist") {
		t.Errorf("output root = %q, want the out-file's directory", res.OutputRoot)
	}
	if !fsutil.Exists(filepath.Join(work, "dist", "sample.txt")) {
		t.Error("asset should be copied next to the out-file")
	}
}

func TestOnLoadInjectsOncePerEntrypoint(t *testing.T) {
	work, entry := newWorkspace(t)
	out := filepath.Join(work, "dist")

	plugin := newPlugin(work, Options{
		Assets: []AssetSpec{{Specifier: "./assets/sample.txt"}},
	}, BuildConfig{OutDir: out, Entrypoints: []string{entry}})

	if _, err := plugin.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	contents, _ := os.ReadFile(entry)
	if _, ok := plugin.OnLoad(entry, contents); ok {
		t.Error("reprocessed entrypoint must not be injected twice")
	}
	if _, ok := plugin.OnLoad(filepath.Join(work, "src", "helper.go"), contents); ok {
		t.Error("non-entrypoint files must not be injected")
	}
	marked := []byte(fsutil.GeneratedMarker + "\n\npackage main\n")
	if _, ok := plugin.OnLoad(entry, marked); ok {
		t.Error("generated files must never be re-injected")
	}
}
