// Package export writes a source tree into a single review document.
package export

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"srcdump/pkg/classify"
	"srcdump/pkg/extract"
	"srcdump/pkg/metrics"
	"srcdump/pkg/tree"
)

// Status messages passed to the progress callback.
const (
	StatusBuildingTree = "Building directory tree..."
	StatusExporting    = "Exporting file contents..."
	statusProcessing   = "Processing: "
)

// Fixed preamble. Downstream tooling matches these lines exactly.
const preamble = "--- Project Overview ---\n\n\n" +
	"--- Notes ---\nThis is the complete project code. Please read and understand thoroughly.\n\n"

const (
	fileTypesHeader     = "--- File Types Included ---\n"
	allFiles            = "All files\n"
	alwaysIncludedNote  = "\n--- Important Files Always Included ---\nDockerfile, docker-compose.yml/.yaml files (regardless of extension filter)\n\n"
	excludedDirsNote    = "--- Excluded Directories ---\n.git, .svn, node_modules, __pycache__, .idea, .vscode, bin, obj, build, dist, etc.\n"
	extraPatternsPrefix = "Additional exclusion patterns: "
	treeHeader          = "--- Directory Structure ---\n"
	sourceDetailsHeader = "\n--- Source Code Details ---\n"
)

// ProgressFunc receives human-readable status updates during a run.
type ProgressFunc func(status string)

// Engine runs exports. It keeps no state between runs, so one Engine may be
// reused, but a single Run must not overlap with another writing the same output.
type Engine struct {
	logger    *zap.Logger
	extractor *extract.Extractor
	metrics   *metrics.Recorder
	progress  ProgressFunc
	maxLines  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMaxLines overrides the per-file line ceiling.
func WithMaxLines(n int) Option {
	return func(e *Engine) { e.maxLines = n }
}

// WithMetrics records run counters in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithProgress installs a status callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.extractor = extract.NewExtractor(e.maxLines, e.logger)
	return e
}

// Run writes the export document for req. The only error returned is a
// failure to create, write or close the output; unreadable directories and
// files become inline text in the document.
func (e *Engine) Run(req Request) (err error) {
	start := time.Now()
	logger := e.logger.With(zap.String("runID", uuid.NewString()))
	logger.Info("Starting export",
		zap.String("root", req.RootDirectory),
		zap.String("output", req.OutputPath),
		zap.Strings("extensions", req.Extensions.Sorted()))

	defer func() {
		e.metrics.RunFinished(time.Since(start), err)
	}()

	outFile, err := os.Create(req.OutputPath)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", req.OutputPath), zap.Error(err))
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer func() {
		if cerr := outFile.Close(); cerr != nil && err == nil {
			logger.Error("Failed to close output file", zap.String("file", req.OutputPath), zap.Error(cerr))
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	r := &run{
		engine: e,
		logger: logger,
		req:    req,
		w:      bufio.NewWriter(outFile),
		output: absPath(req.OutputPath),
	}
	r.write()

	if err := r.w.Flush(); err != nil {
		logger.Error("Failed to write output file", zap.String("file", req.OutputPath), zap.Error(err))
		return fmt.Errorf("failed to write output: %w", err)
	}

	fields := []zap.Field{
		zap.Int("filesExported", r.exported),
		zap.Int("filesSkipped", r.skipped),
		zap.Int("directoryErrors", r.dirErrors),
		zap.Duration("elapsed", time.Since(start)),
	}
	if info, statErr := outFile.Stat(); statErr == nil {
		fields = append(fields, zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	logger.Info("Export completed", fields...)
	return nil
}

// run holds the transient state of one export. Write errors are retained by
// the bufio.Writer and surface on Flush.
type run struct {
	engine *Engine
	logger *zap.Logger
	req    Request
	w      *bufio.Writer
	output string

	exported  int
	skipped   int
	dirErrors int
}

func (r *run) write() {
	r.writeHeader()

	r.status(StatusBuildingTree)
	io.WriteString(r.w, treeHeader)
	renderer := tree.NewRenderer(r.pruned, r.logger)
	_ = renderer.Render(r.w, r.req.RootDirectory, "")

	io.WriteString(r.w, sourceDetailsHeader)
	r.status(StatusExporting)
	r.walk(r.req.RootDirectory)
}

func (r *run) writeHeader() {
	io.WriteString(r.w, preamble)
	io.WriteString(r.w, fileTypesHeader)
	if r.req.Extensions.All() {
		io.WriteString(r.w, allFiles)
	} else {
		for _, ext := range r.req.Extensions.Sorted() {
			io.WriteString(r.w, "."+ext+"\n")
		}
	}
	io.WriteString(r.w, alwaysIncludedNote)
	io.WriteString(r.w, excludedDirsNote)
	if r.req.Exclude.Len() > 0 {
		io.WriteString(r.w, extraPatternsPrefix+strings.Join(r.req.Exclude.Lines(), ", ")+"\n")
	}
	io.WriteString(r.w, "\n")
}

// walk exports every selected file under dir, depth first in name order.
func (r *run) walk(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.dirErrors++
		r.engine.metrics.DirectoryError()
		r.logger.Warn("Failed to read directory", zap.String("directory", dir), zap.Error(err))
		fmt.Fprintf(r.w, "Error accessing directory %s: %v\n", dir, err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if classify.ShouldSkipDirectory(entry.Name()) || r.excluded(path, true) {
				r.logger.Debug("Skipping directory", zap.String("directory", path))
				continue
			}
			r.walk(path)
			continue
		}

		if !isRegularFile(entry, path) || r.excluded(path, false) {
			continue
		}
		if !classify.ShouldReadFile(path, r.req.Extensions) {
			continue
		}
		r.exportFile(path)
	}
}

// isRegularFile follows symlinks to regular files. Symlinked directories are
// not descended so a link cycle cannot make the walk loop.
func isRegularFile(entry fs.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (r *run) exportFile(path string) {
	r.status(statusProcessing + path)
	res := r.engine.extractor.Extract(path)
	_, _ = res.WriteTo(r.w)

	if res.Skipped() {
		r.skipped++
		r.engine.metrics.FileSkipped(res.Reason.String())
		return
	}
	r.exported++
	r.engine.metrics.FileExported(res.Lines)
}

// excluded applies the optional patterns and keeps the output document itself
// out of the export when it lives under the root.
func (r *run) excluded(path string, isDir bool) bool {
	if !isDir && r.output != "" && absPath(path) == r.output {
		return true
	}
	if r.req.Exclude.Len() == 0 {
		return false
	}
	rel, err := filepath.Rel(r.req.RootDirectory, path)
	if err != nil {
		return false
	}
	return r.req.Exclude.Match(rel, isDir)
}

// pruned adapts excluded to the tree renderer, which passes root-relative paths.
func (r *run) pruned(rel string, isDir bool) bool {
	return r.excluded(filepath.Join(r.req.RootDirectory, rel), isDir)
}

func (r *run) status(msg string) {
	if r.engine.progress != nil {
		r.engine.progress(msg)
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
