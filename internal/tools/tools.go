// Package tools implements the closed set of capabilities the agent and the
// MCP server expose. Every tool is a method with typed inputs and a plain
// string result suitable for feeding back to a language model.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ramyad06/cautious-llm/internal/searcher"
)

// ErrNoIndex is returned by CodebaseSearch before an index has been built.
var ErrNoIndex = errors.New("no index available: run init first")

// Limits applied to tool output so a single call cannot flood the model
// context.
const (
	DefaultTreeDepth  = 2
	DefaultSearchK    = 5
	MaxGrepMatches    = 200
	DefaultCmdTimeout = 30 * time.Second
)

// skipNames are directory entries every walking tool ignores.
var skipNames = map[string]bool{
	".git":         true,
	".venv":        true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

func skipEntry(name string) bool {
	return skipNames[name] || strings.HasPrefix(name, ".")
}

// Toolkit bundles the tool implementations. The searcher may be nil when no
// index exists yet; only CodebaseSearch needs it.
type Toolkit struct {
	searcher   *searcher.Searcher
	cmdTimeout time.Duration
}

// New creates a Toolkit. A nil searcher disables CodebaseSearch until
// SetSearcher is called.
func New(s *searcher.Searcher) *Toolkit {
	return &Toolkit{searcher: s, cmdTimeout: DefaultCmdTimeout}
}

// SetSearcher attaches a searcher after the index has been built.
func (t *Toolkit) SetSearcher(s *searcher.Searcher) {
	t.searcher = s
}

// DirectoryTree returns an indented tree of dir down to maxDepth levels.
// Hidden entries and junk directories are skipped.
func (t *Toolkit) DirectoryTree(dir string, maxDepth int) (string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project Root: %s\n", dir)
	t.buildTree(&b, dir, 0, maxDepth)
	return strings.TrimRight(b.String(), "\n"), nil
}

func (t *Toolkit) buildTree(b *strings.Builder, path string, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	for _, entry := range entries {
		name := entry.Name()
		if skipEntry(name) {
			continue
		}
		if entry.IsDir() {
			fmt.Fprintf(b, "%s%s/\n", indent, name)
			t.buildTree(b, filepath.Join(path, name), depth+1, maxDepth)
		} else {
			fmt.Fprintf(b, "%s%s\n", indent, name)
		}
	}
}

// GrepSearch searches file contents under path for query, either as a
// literal string or a regular expression. Matches are reported as
// path:line: text, capped at MaxGrepMatches.
func (t *Toolkit) GrepSearch(query, path string, isRegex bool) (string, error) {
	if query == "" {
		return "", errors.New("query cannot be empty")
	}
	if path == "" {
		path = "."
	}

	var re *regexp.Regexp
	if isRegex {
		var err error
		re, err = regexp.Compile(query)
		if err != nil {
			return "", fmt.Errorf("invalid pattern: %w", err)
		}
	}

	var matches []string
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != path && skipEntry(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(matches) >= MaxGrepMatches {
			return filepath.SkipAll
		}

		data, err := os.ReadFile(p)
		if err != nil || !utf8.Valid(data) {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			hit := false
			if re != nil {
				hit = re.MatchString(line)
			} else {
				hit = strings.Contains(line, query)
			}
			if hit {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", p, i+1, strings.TrimSpace(line)))
				if len(matches) >= MaxGrepMatches {
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		return "No matches found.", nil
	}
	return "Matches:\n" + strings.Join(matches, "\n"), nil
}

// outlinePrefixes mark declaration lines across the supported languages.
var outlinePrefixes = []string{"func ", "type ", "class ", "def ", "function "}

// FileOutline returns the line-numbered declaration headers of a source
// file, found by prefix matching on trimmed lines.
func (t *Toolkit) FileOutline(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var outline []string
	for i, line := range strings.Split(string(data), "\n") {
		stripped := strings.TrimSpace(line)
		for _, prefix := range outlinePrefixes {
			if strings.HasPrefix(stripped, prefix) {
				outline = append(outline, fmt.Sprintf("L%d: %s", i+1, stripped))
				break
			}
		}
	}

	if len(outline) == 0 {
		return "No declarations found.", nil
	}
	return strings.Join(outline, "\n"), nil
}

// ReadFile returns the content of a file.
func (t *Toolkit) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// WriteFile writes content to path, creating parent directories as needed.
func (t *Toolkit) WriteFile(path, content string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directories: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("Successfully wrote to %s", path), nil
}

// ListFiles returns the sorted names of entries in a directory, directories
// marked with a trailing slash.
func (t *Toolkit) ListFiles(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

// RunCommand runs a shell command with a timeout and returns captured
// stdout and stderr. A non-zero exit is reported in the result, not as an
// error, so the agent can read the failure output.
func (t *Toolkit) RunCommand(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", errors.New("command cannot be empty")
	}

	timeout := t.cmdTimeout
	if timeout <= 0 {
		timeout = DefaultCmdTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := fmt.Sprintf("STDOUT:\n%s\nSTDERR:\n%s", stdout.String(), stderr.String())
	if ctx.Err() == context.DeadlineExceeded {
		return result, fmt.Errorf("command timed out after %s", timeout)
	}
	if runErr != nil {
		result += fmt.Sprintf("\nEXIT: %v", runErr)
	}
	return result, nil
}

// CodebaseSearch runs a semantic search against the index and formats the
// hits with source attribution.
func (t *Toolkit) CodebaseSearch(ctx context.Context, query string, k int) (string, error) {
	if t.searcher == nil {
		return "", ErrNoIndex
	}
	if k <= 0 {
		k = DefaultSearchK
	}

	resp, err := t.searcher.Search(ctx, searcher.Request{
		Query: query,
		Limit: k,
		Mode:  searcher.SearchModeVector,
	})
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "--- Source: %s ---\n%s\n\n", r.Source, r.Content)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
