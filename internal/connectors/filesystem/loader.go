package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

// DefaultExtensions are the case file types the normalisers understand.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".json", ".html", ".htm", ".pdf", ".docx"}

// Raw document metadata keys set by the loader.
const (
	MetaPath     = "path"
	MetaSize     = "size"
	MetaModified = "modified"
)

// Loader finds case files and reads them into raw documents.
type Loader struct {
	extensions map[string]bool
	excludes   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtensions replaces the accepted file extensions.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			l.extensions[e] = true
		}
	}
}

// WithExcludes skips paths whose full path or base name matches any
// doublestar pattern.
func WithExcludes(patterns ...string) Option {
	return func(l *Loader) {
		l.excludes = append(l.excludes, patterns...)
	}
}

// New creates a loader for DefaultExtensions.
func New(opts ...Option) *Loader {
	l := &Loader{}
	WithExtensions(DefaultExtensions...)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Accepts reports whether path names a visible file with a supported
// extension that is not excluded.
func (l *Loader) Accepts(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	if !l.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !l.excluded(path)
}

func (l *Loader) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range l.excludes {
		if matched, err := doublestar.Match(pattern, slashed); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

// Collect expands files, directories and doublestar patterns into a sorted,
// de-duplicated list of accepted files. Directories are walked recursively.
func (l *Loader) Collect(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !l.Accepts(path) || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, arg := range args {
		arg = LocalPath(arg)
		if hasMeta(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: pattern %q: %w", domain.ErrInvalidInput, arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		if !info.IsDir() {
			if !l.Accepts(arg) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, arg)
			}
			add(arg)
			continue
		}

		dirFiles, err := l.walk(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range dirFiles {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Dirs returns every visible directory under root, including root.
func (l *Loader) Dirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (isHidden(d.Name()) || l.excluded(path+"/")) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func (l *Loader) walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (isHidden(d.Name()) || l.excluded(path+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// Read loads a file into a raw document.
func (l *Loader) Read(path string) (*domain.RawDocument, error) {
	path = LocalPath(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &domain.RawDocument{
		URI:      path,
		MIMEType: normalisers.DetectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{
			MetaPath:     path,
			MetaSize:     info.Size(),
			MetaModified: info.ModTime().UTC().Format(time.RFC3339),
		},
	}, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// isHidden reports whether any path segment starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
