package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push collects metrics in a private registry and pushes them to a
// Pushgateway on Flush.
type Push struct {
	gatewayURL string
	job        string
	runID      string
	reg        *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

// NewPush builds a Pushgateway recorder. runID, when set, becomes the
// "instance" grouping key so concurrent runs do not overwrite each other.
func NewPush(gatewayURL, job, runID string) (*Push, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("metrics: pushgateway URL is required")
	}
	if job == "" {
		job = "flightetl"
	}

	reg := prometheus.NewRegistry()
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightetl_step_total",
		Help: "Pipeline step executions by step and status.",
	}, []string{"step", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightetl_step_duration_seconds",
		Help:    "Pipeline step duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step", "status"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightetl_rows_total",
		Help: "Rows handled by kind (extracted, transformed, loaded).",
	}, []string{"kind"})

	for _, c := range []prometheus.Collector{steps, duration, rows} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}

	return &Push{
		gatewayURL: gatewayURL,
		job:        job,
		runID:      runID,
		reg:        reg,
		steps:      steps,
		duration:   duration,
		rows:       rows,
	}, nil
}

func (p *Push) RecordStep(step string, err error, d time.Duration) {
	status := statusOf(err)
	p.steps.WithLabelValues(step, status).Inc()
	p.duration.WithLabelValues(step, status).Observe(d.Seconds())
}

func (p *Push) RecordRows(kind string, n int64) {
	if n <= 0 {
		return
	}
	p.rows.WithLabelValues(kind).Add(float64(n))
}

// Flush pushes the registry, replacing the previous values of this group.
func (p *Push) Flush() error {
	pusher := push.New(p.gatewayURL, p.job).Gatherer(p.reg)
	if p.runID != "" {
		pusher = pusher.Grouping("instance", p.runID)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", p.gatewayURL, err)
	}
	return nil
}
