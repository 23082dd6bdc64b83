// Package resolver locates asset source files. A specifier may be a local
// file URL, an absolute path, a relative path or a bare package-style name;
// it is classified once up front and then pushed through an ordered list of
// strategies until one yields an existing file. Every attempted location and
// every underlying resolver error is recorded so a total failure can be
// diagnosed without guessing.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies the syntax of a specifier.
type Kind int

const (
	KindLocalURL Kind = iota
	KindAbsolutePath
	KindRelativePath
	KindPackageName
)

func (k Kind) String() string {
	switch k {
	case KindLocalURL:
		return "local-url"
	case KindAbsolutePath:
		return "absolute-path"
	case KindRelativePath:
		return "relative-path"
	default:
		return "package-name"
	}
}

// Classify determines the resolution strategy for a specifier.
func Classify(specifier string) Kind {
	switch {
	case strings.HasPrefix(specifier, "file://"):
		return KindLocalURL
	case filepath.IsAbs(specifier):
		return KindAbsolutePath
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		return KindRelativePath
	default:
		return KindPackageName
	}
}

// Filesystem is the host's file-existence predicate.
type Filesystem interface {
	Exists(path string) bool
}

// ModuleResolver is the host's module-resolution primitive. parentDir is the
// resolution context; empty means no parent.
type ModuleResolver interface {
	Resolve(ctx context.Context, specifier, parentDir string) (string, error)
}

// NotFoundError reports that no strategy located the specifier. Attempts
// holds every filesystem location checked, Causes every resolver error seen.
type NotFoundError struct {
	Specifier string
	Attempts  []string
	Causes    []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RES_NOT_FOUND: cannot resolve asset %q", e.Specifier)
	if len(e.Attempts) > 0 {
		b.WriteString("; attempted paths:")
		for _, a := range e.Attempts {
			b.WriteString("\n  " + a)
		}
	}
	if len(e.Causes) > 0 {
		b.WriteString("\nresolver errors:")
		for _, c := range e.Causes {
			b.WriteString("\n  " + c)
		}
	}
	return b.String()
}

// Service resolves specifiers against the host filesystem and module
// resolver. WorkDir defaults to the process working directory.
type Service struct {
	FS      Filesystem
	Modules ModuleResolver
	WorkDir string
}

// Resolve runs the strategy ladder for one specifier. candidateDirs are
// tried in the order supplied (typically each entrypoint's directory).
// Returns the absolute, cleaned path of the first existing match, or a
// *NotFoundError carrying the full attempt log.
func (s *Service) Resolve(ctx context.Context, specifier string, candidateDirs []string) (string, error) {
	if s == nil || s.FS == nil {
		return "", fmt.Errorf("RES_SETUP: resolver filesystem not configured")
	}
	if strings.TrimSpace(specifier) == "" {
		return "", fmt.Errorf("RES_SPECIFIER: empty specifier")
	}

	cwd := s.WorkDir
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	probe := &attemptLog{}
	kind := Classify(specifier)

	switch kind {
	case KindLocalURL:
		if p, ok := s.tryURL(specifier, probe); ok {
			return p, nil
		}
	case KindAbsolutePath:
		if p, ok := s.tryPath(specifier, probe); ok {
			return p, nil
		}
	case KindRelativePath:
		if p, ok := s.tryPath(filepath.Join(cwd, specifier), probe); ok {
			return p, nil
		}
		for _, dir := range candidateDirs {
			if p, ok := s.tryPath(filepath.Join(dir, specifier), probe); ok {
				return p, nil
			}
		}
	case KindPackageName:
		if s.Modules != nil {
			for _, dir := range candidateDirs {
				if p, ok := s.tryModule(ctx, specifier, dir, probe); ok {
					return p, nil
				}
			}
			if p, ok := s.tryModule(ctx, specifier, "", probe); ok {
				return p, nil
			}
		}
	}

	// The specifier syntax is never known in advance; a bare name or
	// relative path may still name a file under the working directory.
	if kind != KindLocalURL && kind != KindAbsolutePath {
		if p, ok := s.tryPath(filepath.Join(cwd, specifier), probe); ok {
			return p, nil
		}
	}

	return "", &NotFoundError{
		Specifier: specifier,
		Attempts:  probe.attempts,
		Causes:    probe.causes,
	}
}

func (s *Service) tryURL(specifier string, probe *attemptLog) (string, bool) {
	u, err := url.Parse(specifier)
	if err != nil {
		probe.cause(fmt.Sprintf("parse %q: %v", specifier, err))
		return "", false
	}
	if u.Path == "" {
		probe.cause(fmt.Sprintf("parse %q: empty path", specifier))
		return "", false
	}
	return s.tryPath(filepath.FromSlash(u.Path), probe)
}

func (s *Service) tryPath(path string, probe *attemptLog) (string, bool) {
	path = filepath.Clean(path)
	probe.attempt(path)
	if s.FS.Exists(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs, true
		}
		return path, true
	}
	return "", false
}

func (s *Service) tryModule(ctx context.Context, specifier, parentDir string, probe *attemptLog) (string, bool) {
	if parentDir == "" {
		probe.attempt(specifier + " (module, no parent)")
	} else {
		probe.attempt(specifier + " (module, parent " + parentDir + ")")
	}
	path, err := s.Modules.Resolve(ctx, specifier, parentDir)
	if err != nil {
		probe.cause(err.Error())
		return "", false
	}
	if path == "" || !s.FS.Exists(path) {
		return "", false
	}
	if abs, aerr := filepath.Abs(path); aerr == nil {
		return abs, true
	}
	return path, true
}

// attemptLog records attempted locations (deduplicated, in order) and
// underlying resolver errors.
type attemptLog struct {
	attempts []string
	causes   []string
	seen     map[string]struct{}
}

func (l *attemptLog) attempt(path string) {
	if l.seen == nil {
		l.seen = map[string]struct{}{}
	}
	if _, ok := l.seen[path]; ok {
		return
	}
	l.seen[path] = struct{}{}
	l.attempts = append(l.attempts, path)
}

func (l *attemptLog) cause(msg string) {
	l.causes = append(l.causes, msg)
}
