package export

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrBusy is returned by Dispatcher.Submit while an export is in flight.
var ErrBusy = errors.New("an export is already running")

// Process runs one export of root into <outputDir>/src.txt and reports the
// outcome as a status line for display.
func Process(root, outputDir, extensionsCSV string, opts ...Option) string {
	if strings.TrimSpace(root) == "" {
		return "Error: please select a project directory"
	}
	if strings.TrimSpace(outputDir) == "" {
		return "Error: please select an output directory"
	}

	req := NewRequest(root, outputDir, extensionsCSV)
	return Status(req.OutputPath, NewEngine(opts...).Run(req))
}

// Status formats the outcome of a run writing outputPath.
func Status(outputPath string, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	return "Content exported to: " + outputPath
}

// Job is one export submitted to a Dispatcher.
type Job struct {
	RootDirectory   string
	OutputDirectory string
	Extensions      string // Comma separated; empty selects every file.
}

// Dispatcher runs exports off the caller's goroutine, one at a time. It is the
// wrapper an interactive front end uses so its event loop never blocks.
type Dispatcher struct {
	mu   sync.Mutex
	busy bool
	opts []Option
}

// NewDispatcher returns a Dispatcher whose engines are built with opts.
func NewDispatcher(opts ...Option) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// Busy reports whether an export is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Submit starts job in the background. The returned channel yields exactly one
// status line and is then closed. While a job is running Submit returns ErrBusy.
func (d *Dispatcher) Submit(job Job) (<-chan string, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.busy = true
	d.mu.Unlock()

	done := make(chan string, 1)
	go func() {
		defer close(done)
		done <- d.run(job)
	}()
	return done, nil
}

// run executes job and clears the busy flag even if the export panics. A
// panic is reported as an error status instead of crashing the caller.
func (d *Dispatcher) run(job Job) (status string) {
	defer func() {
		if p := recover(); p != nil {
			status = fmt.Sprintf("Error: export failed: %v", p)
		}
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
	}()
	return Process(job.RootDirectory, job.OutputDirectory, job.Extensions, d.opts...)
}
