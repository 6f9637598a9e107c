package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcdump/pkg/version"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(nil)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readOutput(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "src.txt"))
	require.NoError(t, err)
	return string(data)
}

func TestExportCommand(t *testing.T) {
	root := project(t, map[string]string{
		"main.go":   "package main\n",
		"notes.txt": "todo\n",
	})
	out := t.TempDir()

	stdout, _, err := execute(t, "export", root, "-o", out, "-e", "go")
	require.NoError(t, err)

	assert.Equal(t, "Content exported to: "+filepath.Join(out, "src.txt")+"\n", stdout)
	doc := readOutput(t, out)
	assert.Contains(t, doc, "--- File Types Included ---\n.go\n")
	assert.Contains(t, doc, "package main\n")
	assert.NotContains(t, doc, "todo")
}

func TestExportCommandUsesProjectConfig(t *testing.T) {
	root := project(t, map[string]string{
		".srcdump.toml":   "extensions = [\"txt\"]\nexclude = [\"skip/\"]\n",
		"main.go":         "package main\n",
		"notes.txt":       "todo\n",
		"skip/hidden.txt": "hidden\n",
	})
	out := t.TempDir()

	_, _, err := execute(t, "export", root, "--output-dir", out)
	require.NoError(t, err)
	doc := readOutput(t, out)
	assert.Contains(t, doc, "todo\n")
	assert.NotContains(t, doc, "package main")
	assert.NotContains(t, doc, "hidden")
	assert.Contains(t, doc, "Additional exclusion patterns: skip/\n")

	_, _, err = execute(t, "export", root, "--output-dir", out, "--ext", "go", "--exclude", "notes.txt")
	require.NoError(t, err)
	doc = readOutput(t, out)
	assert.Contains(t, doc, "package main\n")
	assert.NotContains(t, doc, "todo")
	assert.Contains(t, doc, "Additional exclusion patterns: skip/, notes.txt\n")
}

func TestExportCommandWritesMetrics(t *testing.T) {
	root := project(t, map[string]string{"a.go": "package a\n\nfunc A() {}\n"})
	out := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "srcdump.prom")

	_, _, err := execute(t, "export", root, "-o", out, "-e", "go", "--metrics-file", metricsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "srcdump_files_exported_total 1\n")
	assert.Contains(t, string(data), "srcdump_lines_exported_total 3\n")
	assert.Contains(t, string(data), "srcdump_last_run_success 1\n")
}

func TestExportCommandOutputError(t *testing.T) {
	root := project(t, map[string]string{"a.go": "package a\n"})

	stdout, stderr, err := execute(t, "export", root, "-o", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: cannot create output file: ")
}

func TestExportCommandBadConfig(t *testing.T) {
	root := project(t, map[string]string{".srcdump.toml": "max_lines = -1\n"})

	_, _, err := execute(t, "export", root, "-o", t.TempDir())
	require.ErrorContains(t, err, "failed to load config")
}

func TestExportCommandRequiresRoot(t *testing.T) {
	_, _, err := execute(t, "export")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Get().String()+"\n", stdout)
}
