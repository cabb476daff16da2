package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dota_tracker"

type Metrics struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	rateLimit        *prometheus.GaugeVec
	rateRemaining    *prometheus.GaugeVec
	tierChanges      *prometheus.CounterVec
	subjectsSkipped  *prometheus.CounterVec
	pollDuration     prometheus.Histogram
	ticksSkipped     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Requests sent to statistics providers by source and outcome.",
		}, []string{"source", "outcome"}),
		rateLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_rate_limit_per_minute",
			Help:      "Per-minute request allowance last reported by a provider.",
		}, []string{"source"}),
		rateRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_rate_limit_remaining",
			Help:      "Requests left in the current minute as last reported by a provider.",
		}, []string{"source"}),
		tierChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_change_events_total",
			Help:      "Tier change events emitted by direction.",
		}, []string{"direction"}),
		subjectsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_subjects_skipped_total",
			Help:      "Subjects skipped during a polling tick by reason.",
		}, []string{"reason"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_tick_duration_seconds",
			Help:      "Wall time of one polling tick across all groups.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_skipped_total",
			Help:      "Ticks dropped because the previous tick was still running.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerRequests,
		m.rateLimit,
		m.rateRemaining,
		m.tierChanges,
		m.subjectsSkipped,
		m.pollDuration,
		m.ticksSkipped,
	)
	return m
}

func (m *Metrics) ObserveRequest(source, outcome string) {
	m.providerRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveRateLimit records the provider's rate-limit headers. Negative
// values mean the header was missing and leave the gauge unchanged.
func (m *Metrics) ObserveRateLimit(source string, limit, remaining int) {
	if limit >= 0 {
		m.rateLimit.WithLabelValues(source).Set(float64(limit))
	}
	if remaining >= 0 {
		m.rateRemaining.WithLabelValues(source).Set(float64(remaining))
	}
}

func (m *Metrics) TierChange(promoted bool) {
	direction := "demotion"
	if promoted {
		direction = "promotion"
	}
	m.tierChanges.WithLabelValues(direction).Inc()
}

func (m *Metrics) SubjectSkipped(reason string) {
	m.subjectsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) TickSkipped() {
	m.ticksSkipped.Inc()
}

func (m *Metrics) PollDuration(d time.Duration) {
	m.pollDuration.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
