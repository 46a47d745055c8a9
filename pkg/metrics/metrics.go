package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxQueueSize         prometheus.Gauge
	OutboxRetries           *prometheus.CounterVec

	// Domain metrics
	OrdersCreated        *prometheus.CounterVec
	OrderStatusChanges   *prometheus.CounterVec
	PaymentsVerified     *prometheus.CounterVec
	MessagesSent         prometheus.Counter
	MessagesReplied      prometheus.Counter
	NotificationsFanned  prometheus.Counter
	NotificationsPurged  prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations  *prometheus.CounterVec
	DatabaseLatency     *prometheus.HistogramVec
	DatabaseConnections prometheus.Gauge
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		// Outbox metrics
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_queue_size",
			Help:      "Current number of events in the outbox queue",
		}),
		OutboxRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		// Domain metrics
		OrdersCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_created_total",
			Help:      "Total number of orders placed",
		}, []string{"payment_method"}),
		OrderStatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_status_changes_total",
			Help:      "Total number of order status transitions",
		}, []string{"status"}),
		PaymentsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payments_verified_total",
			Help:      "Total number of payment verification decisions",
		}, []string{"outcome"}),
		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		}),
		MessagesReplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_replied_total",
			Help:      "Total number of message replies recorded",
		}),
		NotificationsFanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_fanned_total",
			Help:      "Total number of notification rows created by fan-out",
		}),
		NotificationsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_purged_total",
			Help:      "Total number of read notifications removed by retention",
		}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),

		// Database metrics
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DatabaseConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_connections",
			Help:      "Current number of database connections",
		}),
	}
}

// NewTestMetrics returns an unregistered Metrics for use in tests.
func NewTestMetrics() *Metrics {
	counter := func(name string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name})
	}
	counterVec := func(name string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labels)
	}
	return &Metrics{
		OutboxEventsProcessed:   counter("test_outbox_events_processed_total"),
		OutboxEventsFailed:      counter("test_outbox_events_failed_total"),
		OutboxProcessingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_outbox_processing_duration_seconds"}),
		OutboxQueueSize:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_outbox_queue_size"}),
		OutboxRetries:           counterVec("test_outbox_retry_attempts_total", "event_type"),
		OrdersCreated:           counterVec("test_orders_created_total", "payment_method"),
		OrderStatusChanges:      counterVec("test_order_status_changes_total", "status"),
		PaymentsVerified:        counterVec("test_payments_verified_total", "outcome"),
		MessagesSent:            counter("test_messages_sent_total"),
		MessagesReplied:         counter("test_messages_replied_total"),
		NotificationsFanned:     counter("test_notifications_fanned_total"),
		NotificationsPurged:     counter("test_notifications_purged_total"),
		HTTPRequests:            counterVec("test_http_requests_total", "method", "path", "status"),
		HTTPLatency:             prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_http_request_duration_seconds"}, []string{"method", "path"}),
		DatabaseOperations:      counterVec("test_database_operations_total", "operation", "status"),
		DatabaseLatency:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_database_operation_duration_seconds"}, []string{"operation"}),
		DatabaseConnections:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_database_connections"}),
	}
}
