package assembly

import (
	"expvar"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder receives assembly outcomes for operational monitoring.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordAssembly(out *Outcome, duration time.Duration)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// RecordAssembly implements MetricsRecorder.
func (NopMetrics) RecordAssembly(*Outcome, time.Duration) {}

// ExpvarMetrics publishes assembly counters on the expvar surface under the
// given prefix. Construct once per process; expvar panics on re-publish.
type ExpvarMetrics struct {
	assemblies  *expvar.Int
	incomplete  *expvar.Int
	errors      *expvar.Int
	warnings    *expvar.Int
	needsReview *expvar.Int
	durationMS  *expvar.Float

	mu sync.Mutex
}

// NewExpvarMetrics publishes the counter set under prefix.
func NewExpvarMetrics(prefix string) *ExpvarMetrics {
	return &ExpvarMetrics{
		assemblies:  expvar.NewInt(prefix + ".assemblies_total"),
		incomplete:  expvar.NewInt(prefix + ".assemblies_incomplete"),
		errors:      expvar.NewInt(prefix + ".builder_errors_total"),
		warnings:    expvar.NewInt(prefix + ".warnings_total"),
		needsReview: expvar.NewInt(prefix + ".needs_review_total"),
		durationMS:  expvar.NewFloat(prefix + ".last_duration_ms"),
	}
}

// RecordAssembly implements MetricsRecorder.
func (m *ExpvarMetrics) RecordAssembly(out *Outcome, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assemblies.Add(1)
	if !out.IsComplete() {
		m.incomplete.Add(1)
	}
	m.errors.Add(int64(len(out.Errors)))
	m.warnings.Add(int64(len(out.Warnings)))
	m.needsReview.Add(int64(len(out.NeedsReview)))
	m.durationMS.Set(float64(duration.Milliseconds()))
}

// PrometheusMetrics exports assembly counters and a latency histogram
// through a prometheus registerer.
type PrometheusMetrics struct {
	assemblies  prometheus.Counter
	incomplete  prometheus.Counter
	errors      prometheus.Counter
	warnings    prometheus.Counter
	needsReview prometheus.Counter
	duration    prometheus.Histogram
}

// NewPrometheusMetrics registers the assembly metric set with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		assemblies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflcore",
			Name:      "assemblies_total",
			Help:      "Total assembly calls.",
		}),
		incomplete: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflcore",
			Name:      "assemblies_incomplete_total",
			Help:      "Assemblies that produced no reflectivity record.",
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflcore",
			Name:      "builder_errors_total",
			Help:      "Record builder failures across all assemblies.",
		}),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflcore",
			Name:      "warnings_total",
			Help:      "Non-fatal warnings across all assemblies.",
		}),
		needsReview: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reflcore",
			Name:      "needs_review_fields_total",
			Help:      "Fields flagged for human review across all assemblies.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reflcore",
			Name:      "assembly_duration_seconds",
			Help:      "Assembly call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordAssembly implements MetricsRecorder.
func (m *PrometheusMetrics) RecordAssembly(out *Outcome, duration time.Duration) {
	m.assemblies.Inc()
	if !out.IsComplete() {
		m.incomplete.Inc()
	}
	m.errors.Add(float64(len(out.Errors)))
	m.warnings.Add(float64(len(out.Warnings)))
	m.needsReview.Add(float64(len(out.NeedsReview)))
	m.duration.Observe(duration.Seconds())
}
