package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DistributionMetrics records outcomes of cashback distribution runs.
type DistributionMetrics struct {
	duration  *prometheus.HistogramVec
	succeeded *prometheus.CounterVec
	duplicate *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewDistributionMetrics registers the distribution metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewDistributionMetrics(reg prometheus.Registerer) *DistributionMetrics {
	if reg == nil {
		return &DistributionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashback_distribution_duration_seconds",
		Help:    "Duration of cashback distribution runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tenant"})
	succeeded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_distribution_success",
		Help: "Distributions recorded for the first time.",
	}, []string{"tenant"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_distribution_duplicate",
		Help: "Distribution requests answered from the idempotent path.",
	}, []string{"tenant"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashback_distribution_failure",
		Help: "Distribution runs that ended in an error.",
	}, []string{"tenant"})
	reg.MustRegister(duration, succeeded, duplicate, failed)
	return &DistributionMetrics{
		duration:  duration,
		succeeded: succeeded,
		duplicate: duplicate,
		failed:    failed,
	}
}

// ObserveDuration records the duration of a run for the tenant.
func (m *DistributionMetrics) ObserveDuration(tenant string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(tenant)).Observe(duration.Seconds())
}

// IncSuccess counts a freshly recorded distribution.
func (m *DistributionMetrics) IncSuccess(tenant string) {
	if m == nil || m.succeeded == nil {
		return
	}
	m.succeeded.WithLabelValues(normalizeLabel(tenant)).Inc()
}

// IncDuplicate counts an idempotent replay.
func (m *DistributionMetrics) IncDuplicate(tenant string) {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.WithLabelValues(normalizeLabel(tenant)).Inc()
}

// IncFailure counts a failed run.
func (m *DistributionMetrics) IncFailure(tenant string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(tenant)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
