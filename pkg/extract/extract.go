// Package extract turns a single file into the text block written to the
// export document.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultMaxLines is the line count above which a file is skipped.
	DefaultMaxLines = 10000

	// NotebookExtension marks files that are flattened instead of copied.
	NotebookExtension = ".ipynb"

	chunkSize = 8192
)

// SkipReason says why a file's body was replaced by a placeholder.
type SkipReason int

const (
	None SkipReason = iota
	TooLarge
	Unreadable
	ParseError
)

func (r SkipReason) String() string {
	switch r {
	case None:
		return "none"
	case TooLarge:
		return "too_large"
	case Unreadable:
		return "unreadable"
	case ParseError:
		return "parse_error"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// Result is the rendering of one file.
type Result struct {
	Path   string
	Header string // Header line without the trailing newline.
	Body   string // Newline-terminated text, empty when there is none.
	Lines  int
	Reason SkipReason
	Err    error // Underlying cause for Unreadable and ParseError.
}

// Skipped reports whether the body was replaced by a placeholder.
func (r Result) Skipped() bool { return r.Reason != None }

// WriteTo writes a blank line, the header and the body.
func (r Result) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "\n"+r.Header+"\n"+r.Body)
	return int64(n), err
}

// Extractor renders files. It holds no per-file state.
type Extractor struct {
	logger   *zap.Logger
	maxLines int
}

// NewExtractor returns an Extractor with the given line ceiling; a
// non-positive value selects DefaultMaxLines.
func NewExtractor(maxLines int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Extractor{logger: logger, maxLines: maxLines}
}

// MaxLines returns the line ceiling in effect.
func (e *Extractor) MaxLines() int { return e.maxLines }

// IsNotebook reports whether path carries the notebook extension.
func IsNotebook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), NotebookExtension)
}

// Extract renders the file at path. It never fails: problems are reported
// through Result.Reason and a placeholder header.
func (e *Extractor) Extract(path string) Result {
	lines, err := CountLines(path)
	if err != nil {
		return e.unreadable(path, err)
	}

	if lines > e.maxLines {
		e.logger.Debug("Skipping file over line limit",
			zap.String("filePath", path),
			zap.Int("lines", lines),
			zap.Int("maxLines", e.maxLines))
		return Result{
			Path:   path,
			Header: fmt.Sprintf("// File: %s (skipped - too large: %d lines)", path, lines),
			Lines:  lines,
			Reason: TooLarge,
		}
	}

	if IsNotebook(path) {
		res := e.extractNotebook(path)
		res.Lines = lines
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return e.unreadable(path, err)
	}

	body := string(data)
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return Result{
		Path:   path,
		Header: fmt.Sprintf("// File: %s (%d lines)", path, lines),
		Body:   body,
		Lines:  lines,
	}
}

func (e *Extractor) unreadable(path string, err error) Result {
	e.logger.Warn("Failed to open file", zap.String("filePath", path), zap.Error(err))
	return Result{
		Path:   path,
		Header: fmt.Sprintf("// File: %s (could not be opened)", path),
		Reason: Unreadable,
		Err:    err,
	}
}

// CountLines returns the number of lines in the file. A final line without a
// terminating newline is counted; an empty file has zero lines.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	count := 0
	last := byte('\n')
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
