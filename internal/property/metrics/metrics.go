package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the property workflow.
type Metrics struct {
	PropertiesCreated    prometheus.Counter
	Submissions          prometheus.Counter
	Reviews              *prometheus.CounterVec
	InvalidTransitions   prometheus.Counter
	QuotaDenials         prometheus.Counter
	ReviewLatencySeconds prometheus.Histogram
}

// New registers and returns property workflow collectors.
func New() *Metrics {
	return &Metrics{
		PropertiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_properties_created_total",
			Help: "Total number of properties created",
		}),
		Submissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_property_submissions_total",
			Help: "Total number of properties submitted for review",
		}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "estatecore_property_reviews_total",
			Help: "Total number of review decisions by outcome",
		}, []string{"outcome"}),
		InvalidTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_property_invalid_transitions_total",
			Help: "Total number of rejected state transition attempts",
		}),
		QuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_property_quota_denials_total",
			Help: "Total number of property creations denied by quota",
		}),
		ReviewLatencySeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "estatecore_property_review_latency_seconds",
			Help:    "Time from submission to review decision in seconds",
			Buckets: []float64{60, 300, 900, 3600, 14400, 86400, 259200},
		}),
	}
}

func (m *Metrics) IncrementPropertiesCreated() {
	m.PropertiesCreated.Inc()
}

func (m *Metrics) IncrementSubmissions() {
	m.Submissions.Inc()
}

func (m *Metrics) IncrementReviews(outcome string) {
	m.Reviews.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementInvalidTransitions() {
	m.InvalidTransitions.Inc()
}

func (m *Metrics) IncrementQuotaDenials() {
	m.QuotaDenials.Inc()
}

func (m *Metrics) ObserveReviewLatency(seconds float64) {
	m.ReviewLatencySeconds.Observe(seconds)
}
