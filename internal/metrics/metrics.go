// Package metrics exports sync pass statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kerhoff/eventsync/internal/models"
)

const namespace = "eventsync"

// Recorder holds the pass metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	records     *prometheus.CounterVec
	passes      *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// New registers the pass metrics, plus the Go and process collectors, on a
// dedicated registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Local records touched by sync passes, by category and outcome.",
		}, []string{"category", "outcome"}),
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Sync passes by final status.",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of completed sync passes.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed sync pass.",
		}),
	}
}

// CountPass counts a pass by its final status.
func (r *Recorder) CountPass(status string) {
	r.passes.WithLabelValues(status).Inc()
}

// ObserveCompleted records the duration and per-category stats of a
// completed pass.
func (r *Recorder) ObserveCompleted(finishedAt time.Time, duration time.Duration, stats map[models.Category]models.SyncStats) {
	r.duration.Observe(duration.Seconds())
	r.lastSuccess.Set(float64(finishedAt.Unix()))

	for category, s := range stats {
		c := string(category)
		r.records.WithLabelValues(c, "added").Add(float64(s.Added))
		r.records.WithLabelValues(c, "modified").Add(float64(s.Modified))
		r.records.WithLabelValues(c, "removed").Add(float64(s.Removed))
		r.records.WithLabelValues(c, "failed").Add(float64(s.Failed))
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
