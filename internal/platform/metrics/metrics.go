// Package metrics keeps the Prometheus collectors for ingest, attendance
// derivation and HTTP traffic on a private registry.
// A nil *Manager is valid and records nothing
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the registry and every collector
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	migrateRead     prometheus.Counter
	migrateSkipped  prometheus.Counter
	migrateInserted prometheus.Counter
	migrateBatch    prometheus.Histogram

	derivations        prometheus.Counter
	deriveSeconds      prometheus.Histogram
	attachmentsSkipped prometheus.Counter
	bucketsWritten     prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpSeconds  *prometheus.HistogramVec
}

// Option configures a Manager
type Option func(*Manager)

// WithNamespace overrides the metric namespace ("garden")
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithHistogramBuckets overrides latency buckets
func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

// WithRegistry registers collectors on r instead of a fresh registry
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// New builds a Manager on a private registry
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "garden",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, o := range opts {
		o(m)
	}

	auto := promauto.With(m.registry)

	m.migrateRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "migrate",
		Name: "documents_read_total",
		Help: "Documents decoded from dump files",
	})
	m.migrateSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "migrate",
		Name: "records_skipped_total",
		Help: "Documents rejected by the normalizer",
	})
	m.migrateInserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "migrate",
		Name: "rows_inserted_total",
		Help: "Rows newly inserted (duplicates excluded)",
	})
	m.migrateBatch = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "migrate",
		Name:    "batch_seconds",
		Help:    "Wall time of one batch transaction including row counts",
		Buckets: m.buckets,
	})

	m.derivations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "attendance",
		Name: "derivations_total",
		Help: "Per-user attendance derivations (full or incremental)",
	})
	m.deriveSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "attendance",
		Name:    "derive_seconds",
		Help:    "Time to query and fold one user's messages",
		Buckets: m.buckets,
	})
	m.attachmentsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "attendance",
		Name: "attachments_skipped_total",
		Help: "Attachments dropped for missing or non-string text",
	})
	m.bucketsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "attendance",
		Name: "buckets_written_total",
		Help: "Materialized day buckets created or extended",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name: "requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
	m.httpSeconds = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http",
		Name:    "request_seconds",
		Help:    "HTTP request latency by method",
		Buckets: m.buckets,
	}, []string{"method"})

	return m
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the text exposition format
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MigrateRead counts decoded documents
func (m *Manager) MigrateRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migrateRead.Add(float64(n))
}

// MigrateSkipped counts rejected documents
func (m *Manager) MigrateSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migrateSkipped.Add(float64(n))
}

// MigrateBatch records one finished batch and how many rows it inserted
func (m *Manager) MigrateBatch(inserted int, d time.Duration) {
	if m == nil {
		return
	}
	if inserted > 0 {
		m.migrateInserted.Add(float64(inserted))
	}
	m.migrateBatch.Observe(d.Seconds())
}

// Derived records one attendance derivation
func (m *Manager) Derived(d time.Duration) {
	if m == nil {
		return
	}
	m.derivations.Inc()
	m.deriveSeconds.Observe(d.Seconds())
}

// AttachmentSkipped counts one dropped attachment
func (m *Manager) AttachmentSkipped() {
	if m == nil {
		return
	}
	m.attachmentsSkipped.Inc()
}

// BucketsWritten counts materialized bucket writes
func (m *Manager) BucketsWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bucketsWritten.Add(float64(n))
}

// HTTPRequest records a finished request. Signature matches the access log Observe hook
func (m *Manager) HTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpSeconds.WithLabelValues(method).Observe(d.Seconds())
}
