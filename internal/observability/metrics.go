package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	InboundMessages   *prometheus.CounterVec
	DuplicatesDropped prometheus.Counter
	PausedAbsorbed    prometheus.Counter
	Transitions       *prometheus.CounterVec
	OrdersCommitted   prometheus.Counter
	SendFailures      prometheus.Counter
	HandoffEvents     *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		InboundMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound webhook messages by content type.",
		}, []string{"type"}),
		DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_messages_dropped_total",
			Help:      "Messages dropped because their id was already claimed.",
		}),
		PausedAbsorbed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paused_messages_absorbed_total",
			Help:      "Messages logged without reply because the bot was paused.",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_transitions_total",
			Help:      "State machine transitions by from and to state.",
		}, []string{"from", "to"}),
		OrdersCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_committed_total",
			Help:      "Orders committed after confirmation.",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound sends that returned status >= 400 and went to the outbox.",
		}),
		HandoffEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_events_total",
			Help:      "Operator pause/resume actions.",
		}, []string{"action"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
