package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestDuration   *prometheus.HistogramVec
	RecordsCreated    *prometheus.CounterVec
	RecordsUpdated    *prometheus.CounterVec
	RecordsDeleted    *prometheus.CounterVec
	DashboardCache    *prometheus.CounterVec
	SummaryDuration   prometheus.Histogram
	AuditPublishFails prometheus.Counter
	RedisCommands     *prometheus.HistogramVec
}

// New creates the application metrics on reg. Pass prometheus.NewRegistry()
// in tests so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
		RecordsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_records_created_total",
			Help: "Records created by entity",
		}, []string{"entity"}),
		RecordsUpdated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_records_updated_total",
			Help: "Records updated by entity",
		}, []string{"entity"}),
		RecordsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_records_deleted_total",
			Help: "Records deleted by entity",
		}, []string{"entity"}),
		DashboardCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_dashboard_cache_total",
			Help: "Dashboard summary cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinic_dashboard_summary_duration_seconds",
			Help:    "Duration of dashboard summary computation on cache miss",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AuditPublishFails: f.NewCounter(prometheus.CounterOpts{
			Name: "clinic_audit_publish_failures_total",
			Help: "Audit events that could not be published",
		}),
		RedisCommands: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_redis_command_duration_seconds",
			Help:    "Redis command latency by command and outcome",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"command", "outcome"}),
	}
}

// IncrementCreated records a created entity. Safe on a nil receiver.
func (m *Metrics) IncrementCreated(entity string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(entity).Inc()
}

// IncrementUpdated records an updated entity. Safe on a nil receiver.
func (m *Metrics) IncrementUpdated(entity string) {
	if m == nil {
		return
	}
	m.RecordsUpdated.WithLabelValues(entity).Inc()
}

// IncrementDeleted records deleted entities. Safe on a nil receiver.
func (m *Metrics) IncrementDeleted(entity string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDeleted.WithLabelValues(entity).Add(float64(n))
}

// RecordCache records a dashboard cache lookup result. Safe on a nil receiver.
func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.DashboardCache.WithLabelValues(result).Inc()
}

// ObserveSummary records the duration of a summary computation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSummary(start time.Time) {
	if m == nil {
		return
	}
	m.SummaryDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest records the duration of an HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// IncrementAuditFailure records an audit event that was dropped.
func (m *Metrics) IncrementAuditFailure() {
	if m == nil {
		return
	}
	m.AuditPublishFails.Inc()
}

// ObserveRedis records one Redis command. A cache miss is not a failure.
func (m *Metrics) ObserveRedis(command string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.RedisCommands.WithLabelValues(command, outcome).Observe(d.Seconds())
}
