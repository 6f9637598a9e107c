// Package tree renders a directory as an indented box-drawing listing.
package tree

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"srcdump/pkg/classify"

	"go.uber.org/zap"
)

const (
	// MaxEntries is the per-directory entry count above which a level is truncated.
	MaxEntries = 50
	// PreviewEntries is how many entries a truncated level still shows.
	PreviewEntries = 5
)

// Connector strings. Downstream tooling parses these byte for byte.
const (
	Branch       = "├── "
	Last         = "└── "
	Continuation = "│   "
	Blank        = "    "
)

// PruneFunc reports whether the entry at relPath (relative to the render root)
// is left out of the listing in addition to the fixed directory deny-list.
type PruneFunc func(relPath string, isDir bool) bool

// Renderer writes tree listings.
type Renderer struct {
	logger *zap.Logger
	prune  PruneFunc
}

// NewRenderer returns a Renderer. prune may be nil.
func NewRenderer(prune PruneFunc, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger, prune: prune}
}

// Render writes the children of dir beneath the given prefix and recurses into
// subdirectories. Directories that cannot be read produce an inline error line
// instead of failing the render; only write errors on w are returned.
func (r *Renderer) Render(w io.Writer, dir, prefix string) error {
	return r.render(w, dir, dir, prefix)
}

func (r *Renderer) render(w io.Writer, root, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn("Failed to read directory for tree structure", zap.String("directory", dir), zap.Error(err))
		_, werr := fmt.Fprintf(w, "%sError accessing path: %v\n", prefix, err)
		return werr
	}

	visible := r.filter(root, dir, entries)
	truncated := len(visible) > MaxEntries
	shown := visible
	if truncated {
		shown = visible[:PreviewEntries]
	}

	for i, entry := range shown {
		connector, extension := Branch, Continuation
		if !truncated && i == len(shown)-1 {
			connector, extension = Last, Blank
		}

		if _, err := io.WriteString(w, prefix+connector+entry.Name()+"\n"); err != nil {
			return err
		}
		if entry.IsDir() {
			if err := r.render(w, root, filepath.Join(dir, entry.Name()), prefix+extension); err != nil {
				return err
			}
		}
	}

	if truncated {
		_, err := fmt.Fprintf(w, "%s%s... (and %d more items)\n", prefix, Last, len(visible)-PreviewEntries)
		return err
	}
	return nil
}

// filter drops deny-listed directories and anything the prune func rejects.
func (r *Renderer) filter(root, dir string, entries []fs.DirEntry) []fs.DirEntry {
	visible := entries[:0]
	for _, entry := range entries {
		if r.pruned(root, filepath.Join(dir, entry.Name()), entry.IsDir()) {
			r.logger.Debug("Skipping entry in tree", zap.String("name", entry.Name()))
			continue
		}
		visible = append(visible, entry)
	}
	return visible
}

func (r *Renderer) pruned(root, path string, isDir bool) bool {
	if isDir && classify.ShouldSkipDirectory(filepath.Base(path)) {
		return true
	}
	if r.prune == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return r.prune(rel, isDir)
}
