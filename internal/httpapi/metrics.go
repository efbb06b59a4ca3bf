package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on GET /metrics:
// promauto-registered vectors keyed by the dimensions that matter here.
type Metrics struct {
	FeasibilityTotal    *prometheus.CounterVec
	FeasibilityDuration *prometheus.HistogramVec
	ToolpathsTotal      *prometheus.CounterVec
	ToolpathsDuration   *prometheus.HistogramVec
	SafetyBlocked       *prometheus.CounterVec
	ApprovalsTotal      *prometheus.CounterVec
	KernelPoolInUse     prometheus.Gauge
	KernelPoolCapacity  prometheus.Gauge
}

// NewMetrics registers and returns the façade's metric collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		FeasibilityTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmos_feasibility_requests_total",
				Help: "Total feasibility computations by resulting risk bucket.",
			},
			[]string{"risk_bucket"},
		),
		FeasibilityDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rmos_feasibility_duration_seconds",
				Help:    "Duration of feasibility engine computation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"risk_bucket"},
		),
		ToolpathsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmos_toolpaths_requests_total",
				Help: "Total toolpath requests by outcome (ok, blocked, error).",
			},
			[]string{"status"},
		),
		ToolpathsDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rmos_toolpaths_duration_seconds",
				Help:    "Duration of kernel+emitter toolpath generation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		SafetyBlocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmos_safety_blocked_total",
				Help: "Total toolpath requests rejected with SAFETY_BLOCKED, by risk bucket.",
			},
			[]string{"risk_bucket"},
		),
		ApprovalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rmos_workflow_approvals_total",
				Help: "Total workflow approval attempts by outcome.",
			},
			[]string{"outcome"},
		),
		KernelPoolInUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rmos_kernel_pool_in_use",
			Help: "Kernel worker pool slots currently occupied.",
		}),
		KernelPoolCapacity: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rmos_kernel_pool_capacity",
			Help: "Kernel worker pool total capacity.",
		}),
	}
}

// RecordFeasibility records one feasibility computation's outcome.
func (m *Metrics) RecordFeasibility(bucket string, seconds float64) {
	m.FeasibilityTotal.WithLabelValues(bucket).Inc()
	m.FeasibilityDuration.WithLabelValues(bucket).Observe(seconds)
}

// RecordToolpaths records one toolpath request's outcome.
func (m *Metrics) RecordToolpaths(status string, seconds float64) {
	m.ToolpathsTotal.WithLabelValues(status).Inc()
	m.ToolpathsDuration.WithLabelValues(status).Observe(seconds)
}

// RecordSafetyBlocked records one RED/UNKNOWN toolpath rejection.
func (m *Metrics) RecordSafetyBlocked(bucket string) {
	m.SafetyBlocked.WithLabelValues(bucket).Inc()
}

// RecordApproval records one workflow approval attempt.
func (m *Metrics) RecordApproval(outcome string) {
	m.ApprovalsTotal.WithLabelValues(outcome).Inc()
}

// SamplePool records the kernel worker pool's current occupancy.
func (m *Metrics) SamplePool(inUse, capacity int) {
	m.KernelPoolInUse.Set(float64(inUse))
	m.KernelPoolCapacity.Set(float64(capacity))
}
