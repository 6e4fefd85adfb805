package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Routing metrics
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbus_messages_sent_total",
			Help: "Total number of direct sends, by target agent type",
		},
		[]string{"agent_type"},
	)

	messagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbus_messages_published_total",
			Help: "Total number of publishes that reached at least one subscriber",
		},
		[]string{"topic_type"},
	)

	publishFanout = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentbus_publish_fanout",
			Help:    "Number of recipients per publish",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"topic_type"},
	)

	publishesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbus_publishes_dropped_total",
			Help: "Publishes to topics with no matching subscription (silent no-ops)",
		},
		[]string{"topic_type"},
	)

	// Handler metrics
	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentbus_handler_duration_seconds",
			Help:    "Handler execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent_type"},
	)

	handlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentbus_handler_errors_total",
			Help: "Total number of handler errors and panics",
		},
		[]string{"agent_type"},
	)

	// Runtime metrics
	unfinishedItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentbus_unfinished_items",
			Help: "Envelopes enqueued but not yet marked done, across all mailboxes",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the agentbus Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			messagesSentTotal,
			messagesPublishedTotal,
			publishFanout,
			publishesDroppedTotal,
			handlerDuration,
			handlerErrorsTotal,
			unfinishedItems,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordMessageSent records one direct send
func RecordMessageSent(agentType string) {
	messagesSentTotal.WithLabelValues(agentType).Inc()
}

// RecordMessagePublished records one publish and its fan-out
func RecordMessagePublished(topicType string, recipients int) {
	messagesPublishedTotal.WithLabelValues(topicType).Inc()
	publishFanout.WithLabelValues(topicType).Observe(float64(recipients))
}

// RecordPublishDropped records a publish that matched no subscription
func RecordPublishDropped(topicType string) {
	publishesDroppedTotal.WithLabelValues(topicType).Inc()
}

// RecordHandlerExecution records one handler invocation
func RecordHandlerExecution(agentType string, duration time.Duration) {
	handlerDuration.WithLabelValues(agentType).Observe(duration.Seconds())
}

// RecordHandlerError records a handler error or panic
func RecordHandlerError(agentType string) {
	handlerErrorsTotal.WithLabelValues(agentType).Inc()
}

// SetUnfinishedItems sets the pending-envelope gauge
func SetUnfinishedItems(count int) {
	unfinishedItems.Set(float64(count))
}
