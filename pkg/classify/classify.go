// Package classify decides which directories are pruned and which files are
// read during an export.
package classify

import (
	"path/filepath"
	"sort"
	"strings"
)

// SkippedDirectories lists version-control, cache, build-artifact and IDE
// metadata directory names that are never entered.
var SkippedDirectories = []string{
	".git", ".svn", ".hg", ".bzr",
	"node_modules", "__pycache__", ".pytest_cache", ".mypy_cache", ".tox",
	".coverage", ".nyc_output", "coverage",
	".idea", ".vscode", ".vs",
	"bin", "obj", "build", "dist", ".gradle", "target", ".next", ".nuxt", "out",
	".cache", ".tmp", "tmp", "temp",
}

// AlwaysIncluded lists deployment manifests that bypass the extension filter.
// Entries are lower-case; matching is case-insensitive on the base name.
var AlwaysIncluded = []string{
	"dockerfile", "dockerfile.dev", "dockerfile.prod", "dockerfile.test",
	"docker-compose.yml", "docker-compose.yaml",
	"docker-compose.dev.yml", "docker-compose.prod.yml", "docker-compose.test.yml",
	"docker-compose.override.yml",
}

var (
	skipDirs    = toSet(SkippedDirectories)
	alwaysFiles = toSet(AlwaysIncluded)
)

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// ShouldSkipDirectory reports whether a directory with the given name is pruned.
// The match is exact and case-sensitive.
func ShouldSkipDirectory(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// IsAlwaysIncluded reports whether the file name is an override that is read
// regardless of its extension.
func IsAlwaysIncluded(filename string) bool {
	_, ok := alwaysFiles[strings.ToLower(filepath.Base(filename))]
	return ok
}

// ShouldReadFile reports whether the file at path is exported.
func ShouldReadFile(path string, exts ExtensionSet) bool {
	if IsAlwaysIncluded(path) {
		return true
	}
	if exts.All() {
		return true
	}
	return exts.Contains(Extension(path))
}

// Extension returns the lower-cased extension of path without its dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ExtensionSet holds lower-case extensions without a leading dot.
// The empty set selects every file.
type ExtensionSet map[string]struct{}

// ParseExtensions builds a set from a comma separated list such as "go, .PY,txt".
// Tokens are trimmed, lower-cased and stripped of one leading dot; empty tokens
// are dropped.
func ParseExtensions(csv string) ExtensionSet {
	set := ExtensionSet{}
	for _, part := range strings.Split(csv, ",") {
		set.Add(part)
	}
	return set
}

// NewExtensionSet builds a set from individual tokens, normalised like ParseExtensions.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := ExtensionSet{}
	for _, e := range exts {
		set.Add(e)
	}
	return set
}

// Add normalises ext and inserts it. Empty tokens are ignored.
func (s ExtensionSet) Add(ext string) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return
	}
	s[ext] = struct{}{}
}

// All reports whether the set means "every file".
func (s ExtensionSet) All() bool { return len(s) == 0 }

// Contains reports whether ext (already normalised) is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[ext]
	return ok
}

// Sorted returns the members in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
