// Package metrics holds the Prometheus collectors of the service.
// Every method is safe to call on a nil *Metrics so components can run
// with metrics disabled.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "file_storage"

// Config defines metrics exposure
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{Enabled: true, Path: "/metrics"}
}

// Metrics groups all collectors
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	writtenBytes      *prometheus.CounterVec
	writeErrors       *prometheus.CounterVec
	searchIndexErrors *prometheus.CounterVec
	archiveJobs       *prometheus.CounterVec
	stagingsSwept     prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		writtenBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filestore_written_bytes_total",
			Help:      "Bytes written to the object store by namespace.",
		}, []string{"namespace"}),
		writeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filestore_write_errors_total",
			Help:      "Object store errors by kind.",
		}, []string{"kind"}),
		searchIndexErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_index_errors_total",
			Help:      "Search index failures by operation.",
		}, []string{"op"}),
		archiveJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_jobs_total",
			Help:      "Archive mirror jobs by result.",
		}, []string{"result"}),
		stagingsSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staging_swept_total",
			Help:      "Abandoned stagings removed by the sweeper.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WatchDB exports connection pool statistics of db under the given name
func (m *Metrics) WatchDB(name string, db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency keyed by route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) AddWrittenBytes(ns string, n uint64) {
	if m == nil {
		return
	}
	m.writtenBytes.WithLabelValues(ns).Add(float64(n))
}

func (m *Metrics) IncWriteError(kind string) {
	if m == nil {
		return
	}
	m.writeErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncSearchIndexError(op string) {
	if m == nil {
		return
	}
	m.searchIndexErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) IncArchiveJob(result string) {
	if m == nil {
		return
	}
	m.archiveJobs.WithLabelValues(result).Inc()
}

func (m *Metrics) AddStagingsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.stagingsSwept.Add(float64(n))
}

// ArchiveJobs exposes the archive job counter, labelled by result
func (m *Metrics) ArchiveJobs() *prometheus.CounterVec {
	return m.archiveJobs
}

// StagingsSwept exposes the sweeper counter
func (m *Metrics) StagingsSwept() prometheus.Counter {
	return m.stagingsSwept
}

// SearchIndexErrors exposes the search index error counter, labelled by op
func (m *Metrics) SearchIndexErrors() *prometheus.CounterVec {
	return m.searchIndexErrors
}
