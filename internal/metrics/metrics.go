// Package metrics records per-step timings and row counts for pipeline runs.
// The default recorder discards everything; Push sends to a Prometheus
// Pushgateway when one is configured.
package metrics

import "time"

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder is the instrumentation handle passed to the pipeline.
type Recorder interface {
	// RecordStep counts one execution of step and observes its duration.
	RecordStep(step string, err error, d time.Duration)
	// RecordRows adds n to the row counter for kind (extracted, loaded, ...).
	RecordRows(kind string, n int64)
	// Flush sends buffered metrics, if the backend needs it.
	Flush() error
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordStep(string, error, time.Duration) {}
func (Nop) RecordRows(string, int64)                {}
func (Nop) Flush() error                            { return nil }

func statusOf(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
