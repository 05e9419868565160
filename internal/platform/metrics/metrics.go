// Package metrics registers the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	StatusChanges        *prometheus.CounterVec
	RecordsCreated       prometheus.Counter
	RecordsDeleted       prometheus.Counter
	HistoryWriteFailures prometheus.Counter
	LogAppendFailures    prometheus.Counter
	NotifyFailures       prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates the metrics and registers them with the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the metrics against a specific registerer. Tests pass a
// fresh registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paperflow_status_changes_total",
			Help: "Total number of paperwork status changes, by new status.",
		}, []string{"status"}),
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperflow_records_created_total",
			Help: "Total number of paperwork records created.",
		}),
		RecordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperflow_records_deleted_total",
			Help: "Total number of paperwork records deleted.",
		}),
		HistoryWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperflow_history_write_failures_total",
			Help: "Status history inserts that failed and were skipped best-effort.",
		}),
		LogAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperflow_activity_log_append_failures_total",
			Help: "Activity log appends that failed and were skipped best-effort.",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "paperflow_notify_failures_total",
			Help: "Status change notifications that failed to send.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}
