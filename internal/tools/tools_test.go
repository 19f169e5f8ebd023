package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "internal/app/app.go", "package app")
	writeFile(t, dir, ".git/config", "")
	writeFile(t, dir, "node_modules/x/index.js", "")

	tk := New(nil)
	out, err := tk.DirectoryTree(dir, 3)
	require.NoError(t, err)

	assert.Contains(t, out, "Project Root: "+dir)
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "internal/")
	assert.Contains(t, out, "app.go")
	assert.NotContains(t, out, ".git")
	assert.NotContains(t, out, "node_modules")
}

func TestDirectoryTreeDepthLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/b/c/deep.go", "package c")

	tk := New(nil)
	out, err := tk.DirectoryTree(dir, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "a/")
	assert.Contains(t, out, "b/")
	assert.NotContains(t, out, "deep.go")
}

func TestDirectoryTreeMissingDir(t *testing.T) {
	tk := New(nil)
	_, err := tk.DirectoryTree(filepath.Join(t.TempDir(), "nope"), 2)
	assert.Error(t, err)
}

func TestGrepSearchLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package main\nconst BatchSize = 50\n")
	writeFile(t, dir, "b.go", "package main\n")
	writeFile(t, dir, ".git/junk.go", "const BatchSize = 99\n")

	tk := New(nil)
	out, err := tk.GrepSearch("BatchSize", dir, false)
	require.NoError(t, err)

	assert.Contains(t, out, "a.go:2: const BatchSize = 50")
	assert.NotContains(t, out, "junk.go")
}

func TestGrepSearchRegex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func Alpha() {}\nfunc Beta() {}\nvar x int\n")

	tk := New(nil)
	out, err := tk.GrepSearch(`^func \w+\(\)`, dir, true)
	require.NoError(t, err)

	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Beta")
	assert.NotContains(t, out, "var x")
}

func TestGrepSearchInvalidRegex(t *testing.T) {
	tk := New(nil)
	_, err := tk.GrepSearch("[unclosed", t.TempDir(), true)
	assert.Error(t, err)
}

func TestGrepSearchNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package main\n")

	tk := New(nil)
	out, err := tk.GrepSearch("nonexistent", dir, false)
	require.NoError(t, err)
	assert.Equal(t, "No matches found.", out)
}

func TestGrepSearchSkipsBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"),
		[]byte{0xff, 0xfe, 'h', 'i', 0x00}, 0o644))

	tk := New(nil)
	out, err := tk.GrepSearch("hi", dir, false)
	require.NoError(t, err)
	assert.Equal(t, "No matches found.", out)
}

func TestFileOutline(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.go", strings.Join([]string{
		"package sample",
		"",
		"type Widget struct{}",
		"",
		"func NewWidget() *Widget {",
		"\treturn &Widget{}",
		"}",
	}, "\n"))

	tk := New(nil)
	out, err := tk.FileOutline(path)
	require.NoError(t, err)

	assert.Contains(t, out, "L3: type Widget struct{}")
	assert.Contains(t, out, "L5: func NewWidget() *Widget {")
	assert.NotContains(t, out, "return")
}

func TestFileOutlinePython(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.py", "class App:\n    def run(self):\n        pass\n")

	tk := New(nil)
	out, err := tk.FileOutline(path)
	require.NoError(t, err)

	assert.Contains(t, out, "L1: class App:")
	assert.Contains(t, out, "L2: def run(self):")
}

func TestFileOutlineEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.txt", "just text\nno declarations\n")

	tk := New(nil)
	out, err := tk.FileOutline(path)
	require.NoError(t, err)
	assert.Equal(t, "No declarations found.", out)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hello")

	tk := New(nil)
	out, err := tk.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = tk.ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new", "nested", "out.txt")

	tk := New(nil)
	msg, err := tk.WriteFile(path, "content")
	require.NoError(t, err)
	assert.Contains(t, msg, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "")
	writeFile(t, dir, "a.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	tk := New(nil)
	out, err := tk.ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\nsub/", out)
}

func TestRunCommand(t *testing.T) {
	tk := New(nil)
	out, err := tk.RunCommand(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Contains(t, out, "STDOUT:\nhello")
}

func TestRunCommandCapturesFailure(t *testing.T) {
	tk := New(nil)
	out, err := tk.RunCommand(context.Background(), "ls /definitely/not/here")
	require.NoError(t, err)
	assert.Contains(t, out, "STDERR:")
	assert.Contains(t, out, "EXIT:")
}

func TestRunCommandTimeout(t *testing.T) {
	tk := New(nil)
	tk.cmdTimeout = 50 * time.Millisecond

	_, err := tk.RunCommand(context.Background(), "sleep 5")
	assert.Error(t, err)
}

func TestRunCommandEmpty(t *testing.T) {
	tk := New(nil)
	_, err := tk.RunCommand(context.Background(), "  ")
	assert.Error(t, err)
}

func TestCodebaseSearchWithoutIndex(t *testing.T) {
	tk := New(nil)
	_, err := tk.CodebaseSearch(context.Background(), "query", 5)
	assert.ErrorIs(t, err, ErrNoIndex)
}
