package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Created  *prometheus.CounterVec
	Failures prometheus.Counter
	Dropped  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "estatecore_notifications_created_total",
			Help: "Total number of notifications created, by type",
		}, []string{"type"}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_notification_failures_total",
			Help: "Total number of notification creations that failed",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "estatecore_notification_queue_dropped_total",
			Help: "Total number of notification jobs dropped because the dispatch queue was full",
		}),
	}
}

func (m *Metrics) IncrementCreated(typ string) {
	m.Created.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncrementFailures() {
	m.Failures.Inc()
}

func (m *Metrics) IncrementDropped() {
	m.Dropped.Inc()
}
