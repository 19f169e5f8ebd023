// Package scanner discovers source files under a root directory and loads
// them as Documents for the ingestion pipeline.
//
// Files that cannot be read or decoded, and files whose text is empty after
// trimming, are skipped silently: the pipeline favors completing over
// per-file diagnostics. Traversal uses filepath.WalkDir, which walks in
// lexical order and does not descend into directory symlinks, so symlink
// cycles cannot occur.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ramyad06/cautious-llm/pkg/types"
)

// skipDirs are directory names never descended into, regardless of the
// extension set. The store file itself lives outside the walk or is caught
// by the extension filter.
var skipDirs = map[string]bool{
	".git":         true,
	".venv":        true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// Scanner walks a root directory and yields one Document per matched file.
type Scanner struct {
	root       string
	extensions map[string]bool
	readFile   func(string) ([]byte, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithReadFile overrides how file contents are loaded. Used by tests to
// inject read failures.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(s *Scanner) {
		s.readFile = fn
	}
}

// New creates a Scanner over root that matches the given extensions
// (including the leading dot, e.g. ".go").
func New(root string, extensions []string, opts ...Option) *Scanner {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	s := &Scanner{
		root:       root,
		extensions: extSet,
		readFile:   defaultReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the tree and returns the discovered Documents in lexical walk
// order. Unreadable and empty files are skipped without error; only a
// failure to walk the root itself is fatal.
func (s *Scanner) Scan() ([]types.Document, error) {
	var docs []types.Document

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, keep walking. A bad root is
			// reported through the non-DirEntry case below.
			if d == nil {
				return err
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			name := d.Name()
			if path != s.root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		doc, ok := s.load(path)
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// load reads one file and decides whether it joins the pipeline.
func (s *Scanner) load(path string) (types.Document, bool) {
	data, err := s.readFile(path)
	if err != nil {
		return types.Document{}, false
	}
	if !utf8.Valid(data) {
		return types.Document{}, false
	}

	doc := types.Document{Source: path, Text: string(data)}
	if doc.Empty() {
		return types.Document{}, false
	}
	return doc, true
}

func defaultReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
