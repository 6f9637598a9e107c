package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
}

func TestRenderConnectors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"))
	writeFile(t, filepath.Join(root, "pkg", "x.go"))
	writeFile(t, filepath.Join(root, "pkg", "inner", "y.go"))
	writeFile(t, filepath.Join(root, "z.txt"))

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, root, ""))

	expected := "" +
		"├── a.go\n" +
		"├── pkg\n" +
		"│   ├── inner\n" +
		"│   │   └── y.go\n" +
		"│   └── x.go\n" +
		"└── z.txt\n"
	assert.Equal(t, expected, b.String())
}

func TestRenderLastDirectoryUsesBlankContinuation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"))
	writeFile(t, filepath.Join(root, "src", "main.go"))

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, root, ""))

	assert.Equal(t, "├── a.go\n└── src\n    └── main.go\n", b.String())
}

func TestRenderSkipsDeniedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "x.go"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"))
	writeFile(t, filepath.Join(root, "main.go"))
	// A file sharing a deny-listed name is still listed.
	writeFile(t, filepath.Join(root, "src", "build"))

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, root, ""))

	out := b.String()
	assert.NotContains(t, out, "node_modules")
	assert.NotContains(t, out, "x.go")
	assert.NotContains(t, out, ".git")
	assert.Contains(t, out, "    └── build\n")
}

func TestRenderTruncatesLargeDirectories(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 51; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("f%02d.txt", i)))
	}

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, root, "│   "))

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(t, lines, PreviewEntries+1)
	for i := 0; i < PreviewEntries; i++ {
		assert.Equal(t, fmt.Sprintf("│   ├── f%02d.txt", i), lines[i])
	}
	assert.Equal(t, "│   └── ... (and 46 more items)", lines[PreviewEntries])
}

func TestRenderFiftyEntriesNotTruncated(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < MaxEntries; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("f%02d.txt", i)))
	}

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, root, ""))

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	assert.Len(t, lines, MaxEntries)
	assert.Equal(t, "└── f49.txt", lines[MaxEntries-1])
}

func TestRenderUnreadableDirectoryIsInline(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	var b strings.Builder
	require.NoError(t, NewRenderer(nil, nil).Render(&b, missing, "    "))

	assert.True(t, strings.HasPrefix(b.String(), "    Error accessing path: "), b.String())
}

func TestRenderPruneFunc(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "gen", "a.go"))
	writeFile(t, filepath.Join(root, "keep", "b.go"))
	writeFile(t, filepath.Join(root, "keep", "b.log"))

	prune := func(rel string, isDir bool) bool {
		return (isDir && rel == "gen") || strings.HasSuffix(rel, ".log")
	}

	var b strings.Builder
	require.NoError(t, NewRenderer(prune, nil).Render(&b, root, ""))

	assert.Equal(t, "└── keep\n    └── b.go\n", b.String())
}
