package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the course module: registry cache
// effectiveness, provisioning outcomes, and reaction-sync activity.
type Metrics struct {
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	CoursesProvisioned prometheus.Counter
	ProvisionFailures  prometheus.Counter
	ProvisionDuration  prometheus.Histogram

	ReactionEvents *prometheus.CounterVec

	CoursesTornDown prometheus.Counter
}

// New creates a Metrics instance with all course module metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebot_registry_cache_hits_total",
			Help: "Registry cache hits, including negative entries",
		}, []string{"kind"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebot_registry_cache_misses_total",
			Help: "Registry cache misses that issued a store read",
		}, []string{"kind"}),
		CoursesProvisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursebot_courses_provisioned_total",
			Help: "Courses provisioned end to end, registry record included",
		}),
		ProvisionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursebot_provision_failures_total",
			Help: "Provisioning attempts aborted by a duplicate or external failure",
		}),
		ProvisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursebot_provision_duration_seconds",
			Help:    "Duration of full provisioning runs (nine external steps)",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ReactionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebot_reaction_events_total",
			Help: "Reaction events handled, by action and outcome",
		}, []string{"action", "outcome"}),
		CoursesTornDown: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursebot_courses_torn_down_total",
			Help: "Courses whose external resources were deleted during teardown",
		}),
	}
}

// RecordCacheHit counts a cache hit for the given lookup kind.
func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss counts a cache miss for the given lookup kind.
func (m *Metrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(kind).Inc()
}

// ObserveProvision records the duration of a provisioning run.
// Call with time.Now() captured at the start of the run.
func (m *Metrics) ObserveProvision(start time.Time) {
	if m == nil {
		return
	}
	m.ProvisionDuration.Observe(time.Since(start).Seconds())
}

// IncrementProvisioned counts a fully provisioned course.
func (m *Metrics) IncrementProvisioned() {
	if m == nil {
		return
	}
	m.CoursesProvisioned.Inc()
}

// IncrementProvisionFailure counts an aborted provisioning attempt.
func (m *Metrics) IncrementProvisionFailure() {
	if m == nil {
		return
	}
	m.ProvisionFailures.Inc()
}

// RecordReaction counts a handled reaction event.
func (m *Metrics) RecordReaction(action, outcome string) {
	if m == nil {
		return
	}
	m.ReactionEvents.WithLabelValues(action, outcome).Inc()
}

// IncrementTornDown counts a course removed during teardown.
func (m *Metrics) IncrementTornDown() {
	if m == nil {
		return
	}
	m.CoursesTornDown.Inc()
}
