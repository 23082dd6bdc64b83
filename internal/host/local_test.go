package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := Local{WorkDir: dir}
	path := filepath.Join(dir, "nested", "out.txt")

	if err := l.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if l.Exists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := l.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !l.Exists(path) {
		t.Fatal("file should exist after write")
	}
	got, err := l.ReadFile(path)
	if err != nil || string(got) != "payload" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
}

func TestResolveModuleWalksUpToVendor(t *testing.T) {
	root := t.TempDir()
	vendored := filepath.Join(root, "vendor", "logo-pkg", "logo.png")
	if err := os.MkdirAll(filepath.Dir(vendored), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(vendored, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	l := Local{WorkDir: root}
	got, err := l.ResolveModule(context.Background(), "logo-pkg/logo.png", nested)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != vendored {
		t.Errorf("resolved %q, want %q", got, vendored)
	}
}

func TestResolveModuleFallsBackToWorkDir(t *testing.T) {
	root := t.TempDir()
	vendored := filepath.Join(root, "vendor", "logo-pkg")
	if err := os.MkdirAll(vendored, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	l := Local{WorkDir: root}
	got, err := l.ResolveModule(context.Background(), "logo-pkg", "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != vendored {
		t.Errorf("resolved %q, want %q", got, vendored)
	}
}

func TestResolveModuleErrors(t *testing.T) {
	l := Local{WorkDir: t.TempDir()}

	_, err := l.ResolveModule(context.Background(), "bad specifier!", "")
	if err == nil || !strings.Contains(err.Error(), "MOD_SPECIFIER") {
		t.Fatalf("expected MOD_SPECIFIER, got %v", err)
	}

	_, err = l.ResolveModule(context.Background(), "never-vendored", "")
	if err == nil || !strings.Contains(err.Error(), "MOD_NOT_FOUND") {
		t.Fatalf("expected MOD_NOT_FOUND, got %v", err)
	}
}
