// Package metrics defines Prometheus metrics for leadbook.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbook_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbook_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	LeadMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbook_lead_mutations_total",
			Help: "Successful lead mutations by operation",
		},
		[]string{"op"},
	)

	ImportedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbook_import_rows_total",
			Help: "Imported CSV rows by outcome",
		},
		[]string{"outcome"},
	)

	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbook_auth_failures_total",
			Help: "Rejected authentication attempts by reason",
		},
		[]string{"reason"},
	)

	WriteRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadbook_write_rate_limited_total",
			Help: "Writes rejected by the per-user rate limiter",
		},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadbook_audit_queue_depth",
			Help: "Current audit queue depth",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadbook_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		LeadMutationsTotal, ImportedRowsTotal, AuthFailuresTotal, WriteRateLimitedTotal,
		AuditQueueDepth, WSConnections,
	)
}

// RegisterPoolStats exposes database pool usage through stat, which is
// called on every scrape.
func RegisterPoolStats(stat func() (acquired, total int32)) error {
	acquired := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "leadbook_db_connections_acquired",
			Help: "Database connections currently in use",
		},
		func() float64 {
			a, _ := stat()
			return float64(a)
		},
	)

	total := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "leadbook_db_connections_total",
			Help: "Database connections currently open",
		},
		func() float64 {
			_, t := stat()
			return float64(t)
		},
	)

	if err := prometheus.Register(acquired); err != nil {
		return err
	}

	return prometheus.Register(total)
}
