// Package ignore applies gitignore-style exclusion patterns that prune an
// export in addition to the fixed directory deny-list.
package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"
	"go.uber.org/zap"
)

// FileName is the per-root ignore file picked up by LoadRoot.
const FileName = ".srcdumpignore"

// Matcher holds exclusion rules in the order they were added. A nil *Matcher
// matches nothing.
type Matcher struct {
	rules   []pathrules.Rule
	matcher *pathrules.Matcher
	logger  *zap.Logger
}

// New returns an empty Matcher.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// LoadRoot builds a Matcher from extra lines followed by root/.srcdumpignore,
// if that file exists.
func LoadRoot(root string, lines []string, logger *zap.Logger) (*Matcher, error) {
	m := New(logger)
	if err := m.AddLines(lines...); err != nil {
		return nil, err
	}
	if err := m.AddFile(filepath.Join(root, FileName)); err != nil {
		return nil, err
	}
	return m, nil
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Lines returns every rule in order, negations prefixed with '!'.
func (m *Matcher) Lines() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		line := strings.TrimSpace(r.Pattern)
		if r.Action == pathrules.ActionInclude {
			line = "!" + line
		}
		out = append(out, line)
	}
	return out
}

// AddLines parses pattern lines. Blank lines and comments are skipped.
func (m *Matcher) AddLines(lines ...string) error {
	rules, err := pathrules.ParseRulesString(strings.Join(lines, "\n"))
	if err != nil {
		return fmt.Errorf("failed to parse exclusion patterns: %w", err)
	}
	return m.add(rules, "")
}

// AddFile parses every line of path. A missing file is not an error.
func (m *Matcher) AddFile(path string) error {
	rules, err := pathrules.LoadRulesFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		m.logger.Error("Failed to read ignore file", zap.String("filePath", path), zap.Error(err))
		return err
	}
	if err := m.add(rules, path); err != nil {
		return err
	}
	m.logger.Info("Loaded ignore file", zap.String("filePath", path), zap.Int("patterns", len(rules)))
	return nil
}

// add recompiles the matcher with rules appended; on error m is unchanged.
func (m *Matcher) add(rules []pathrules.Rule, source string) error {
	if len(rules) == 0 {
		return nil
	}
	all := append(append([]pathrules.Rule{}, m.rules...), rules...)
	compiled, err := pathrules.NewMatcher(all, pathrules.MatcherOptions{DefaultAction: pathrules.ActionInclude})
	if err != nil {
		if source != "" {
			return fmt.Errorf("invalid pattern in %s: %w", source, err)
		}
		return fmt.Errorf("invalid exclusion pattern: %w", err)
	}
	m.rules, m.matcher = all, compiled

	for _, r := range rules {
		m.logger.Debug("Compiled exclusion pattern",
			zap.String("pattern", r.Pattern),
			zap.Bool("negate", r.Action == pathrules.ActionInclude))
	}
	return nil
}

// Match reports whether relPath (relative to the export root) is excluded.
// The last matching rule wins, and a path under an excluded directory is
// excluded whatever its own rules say.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	relPath = strings.Trim(filepath.ToSlash(relPath), "/")
	if relPath == "" || relPath == "." {
		return false
	}

	for i := 0; i < len(relPath); i++ {
		if relPath[i] == '/' && m.matcher.Excluded(relPath[:i], true) {
			return true
		}
	}
	return m.matcher.Excluded(relPath, isDir)
}
