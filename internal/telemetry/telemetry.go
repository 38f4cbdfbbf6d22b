package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds per-process run metrics:
// - fraudline_runs_total: runs by command and outcome
// - fraudline_rows_scored_total: rows handed to the classifier
// - fraudline_features_filled / fraudline_features_dropped: last reconcile drift
// - fraudline_run_duration_seconds: last run duration by command
type Recorder struct {
	reg        *prometheus.Registry
	Runs       *prometheus.CounterVec
	RowsScored prometheus.Counter
	Filled     prometheus.Gauge
	Dropped    prometheus.Gauge
	Duration   *prometheus.GaugeVec
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fraudline_runs_total", Help: "Pipeline runs by command and status."},
			[]string{"command", "status"},
		),
		RowsScored: prometheus.NewCounter(prometheus.CounterOpts{Name: "fraudline_rows_scored_total", Help: "Rows scored by the classifier."}),
		Filled:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "fraudline_features_filled", Help: "Features zero-filled by the last reconcile."}),
		Dropped:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "fraudline_features_dropped", Help: "Columns dropped by the last reconcile."}),
		Duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "fraudline_run_duration_seconds", Help: "Duration of the last run by command."},
			[]string{"command"},
		),
	}
	r.reg.MustRegister(r.Runs, r.RowsScored, r.Filled, r.Dropped, r.Duration)
	return r
}

// ObserveRun records the outcome of one command.
func (r *Recorder) ObserveRun(command string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Runs.WithLabelValues(command, status).Inc()
	r.Duration.WithLabelValues(command).Set(time.Since(start).Seconds())
}

// ObserveReconcile records reconcile drift and the rows that went on to be scored.
func (r *Recorder) ObserveReconcile(rows, filled, dropped int) {
	r.RowsScored.Add(float64(rows))
	r.Filled.Set(float64(filled))
	r.Dropped.Set(float64(dropped))
}

// WriteTextfile writes the metrics in node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
