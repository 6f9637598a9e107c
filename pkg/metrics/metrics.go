// Package metrics records per-export counters in a private Prometheus registry
// that can be dumped for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the counters of one export run. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	FilesExported   prometheus.Counter
	LinesExported   prometheus.Counter
	FilesSkipped    *prometheus.CounterVec
	DirectoryErrors prometheus.Counter
	RunDuration     prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
}

// NewRecorder registers the export metrics in a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FilesExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "srcdump_files_exported_total",
			Help: "Files whose content was written to the export document",
		}),
		LinesExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "srcdump_lines_exported_total",
			Help: "Lines of source written to the export document",
		}),
		FilesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "srcdump_files_skipped_total",
			Help: "Files replaced by a placeholder, by reason",
		}, []string{"reason"}),
		DirectoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "srcdump_directory_errors_total",
			Help: "Directories that could not be enumerated",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srcdump_last_run_duration_seconds",
			Help: "Wall time of the last export run",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "srcdump_last_run_success",
			Help: "1 if the last export run completed, 0 otherwise",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileExported counts a file written in full.
func (r *Recorder) FileExported(lines int) {
	if r == nil {
		return
	}
	r.FilesExported.Inc()
	r.LinesExported.Add(float64(lines))
}

// FileSkipped counts a placeholder written for reason.
func (r *Recorder) FileSkipped(reason string) {
	if r == nil {
		return
	}
	r.FilesSkipped.WithLabelValues(reason).Inc()
}

// DirectoryError counts a directory that could not be read.
func (r *Recorder) DirectoryError() {
	if r == nil {
		return
	}
	r.DirectoryErrors.Inc()
}

// RunFinished records the outcome of a run.
func (r *Recorder) RunFinished(elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.RunDuration.Set(elapsed.Seconds())
	if err != nil {
		r.LastRunSuccess.Set(0)
		return
	}
	r.LastRunSuccess.Set(1)
}

// WriteTextfile writes all metrics in the text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
