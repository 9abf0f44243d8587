package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricsRegistry holds all Prometheus metrics of the sync engine.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	Registry *prometheus.Registry

	// HTTP Metrics (serve mode)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Remote archive Metrics
	RemoteRequestsTotal   *prometheus.CounterVec
	RemoteRequestDuration *prometheus.HistogramVec
	TransportErrorsTotal  *prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Sync Metrics
	FilesFetchedTotal    *prometheus.CounterVec
	RowsParsedTotal      *prometheus.CounterVec
	RowsWrittenTotal     *prometheus.CounterVec
	StationOutcomesTotal *prometheus.CounterVec
	SyncJobDuration      *prometheus.HistogramVec
	LastRunTimestamp     *prometheus.GaugeVec
}

// NewMetricsRegistry creates all metrics on a private registry
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &MetricsRegistry{
		Registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dwdsync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),

		RemoteRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_remote_requests_total",
				Help: "Requests to the DWD archive by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		RemoteRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dwdsync_remote_request_duration_seconds",
				Help:    "Latency of requests to the DWD archive in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		TransportErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_transport_errors_total",
				Help: "Transport errors by error code",
			},
			[]string{"code"},
		),

		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_cache_hits_total",
				Help: "Total cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_cache_misses_total",
				Help: "Total cache misses by cache name",
			},
			[]string{"cache"},
		),

		FilesFetchedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_files_fetched_total",
				Help: "Data files downloaded and parsed",
			},
			[]string{"dataset", "mode"},
		),
		RowsParsedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_rows_parsed_total",
				Help: "Rows parsed from data files",
			},
			[]string{"dataset"},
		),
		RowsWrittenTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_rows_written_total",
				Help: "Rows newly inserted into reading tables",
			},
			[]string{"dataset", "mode"},
		),
		StationOutcomesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwdsync_station_outcomes_total",
				Help: "Per-station sync outcomes",
			},
			[]string{"dataset", "mode", "outcome"},
		),
		SyncJobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dwdsync_sync_job_duration_seconds",
				Help:    "Sync job execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"dataset", "mode"},
		),
		LastRunTimestamp: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dwdsync_last_run_timestamp_seconds",
				Help: "Unix time of the last finished sync run by status",
			},
			[]string{"dataset", "mode", "status"},
		),
	}
}

func (m *MetricsRegistry) RemoteRequest(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RemoteRequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RemoteRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *MetricsRegistry) TransportError(code string) {
	if m == nil {
		return
	}
	m.TransportErrorsTotal.WithLabelValues(code).Inc()
}

func (m *MetricsRegistry) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (m *MetricsRegistry) FileIngested(dataset, mode string, parsed, written int64) {
	if m == nil {
		return
	}
	m.FilesFetchedTotal.WithLabelValues(dataset, mode).Inc()
	m.RowsParsedTotal.WithLabelValues(dataset).Add(float64(parsed))
	m.RowsWrittenTotal.WithLabelValues(dataset, mode).Add(float64(written))
}

func (m *MetricsRegistry) StationOutcome(dataset, mode, outcome string) {
	if m == nil {
		return
	}
	m.StationOutcomesTotal.WithLabelValues(dataset, mode, outcome).Inc()
}

func (m *MetricsRegistry) RunFinished(dataset, mode, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncJobDuration.WithLabelValues(dataset, mode).Observe(d.Seconds())
	m.LastRunTimestamp.WithLabelValues(dataset, mode, status).SetToCurrentTime()
}

// Push sends the registry to a Prometheus pushgateway
func (m *MetricsRegistry) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(m.Registry).PushContext(ctx)
}
