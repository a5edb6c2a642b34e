package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP API, the realtime
// relay and the payment flow. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	wsSessions  prometheus.Gauge
	wsDropped   prometheus.Counter
	wsThrottled prometheus.Counter

	chatMessages   *prometheus.CounterVec
	chatDeliveries prometheus.Counter

	paymentOrders        *prometheus.CounterVec
	paymentVerifications *prometheus.CounterVec
	paymentWebhooks      *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Counts API requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		wsSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_sessions",
			Help:      "Connected websocket sessions.",
		}),

		wsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_sessions_dropped_total",
			Help:      "Sessions disconnected because they could not keep up.",
		}),

		wsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_events_throttled_total",
			Help:      "Inbound events dropped by the per-session rate limit.",
		}),

		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat send attempts by outcome.",
		}, []string{"outcome"}),

		chatDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_deliveries_total",
			Help:      "Chat messages handed to session send queues.",
		}),

		paymentOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Order creation attempts by outcome.",
		}, []string{"outcome"}),

		paymentVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verification results by status.",
		}, []string{"status"}),

		paymentWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "Provider webhooks by event type and outcome.",
		}, []string{"event", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.wsSessions,
		m.wsDropped,
		m.wsThrottled,
		m.chatMessages,
		m.chatDeliveries,
		m.paymentOrders,
		m.paymentVerifications,
		m.paymentWebhooks,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.wsSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.wsSessions.Dec()
}

func (m *Metrics) SessionDropped() {
	if m == nil {
		return
	}
	m.wsDropped.Inc()
}

func (m *Metrics) EventThrottled() {
	if m == nil {
		return
	}
	m.wsThrottled.Inc()
}

func (m *Metrics) RecordChatMessage(outcome string, delivered int) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(outcome).Inc()
	if delivered > 0 {
		m.chatDeliveries.Add(float64(delivered))
	}
}

func (m *Metrics) RecordOrder(outcome string) {
	if m == nil {
		return
	}
	m.paymentOrders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordVerification(status string) {
	if m == nil {
		return
	}
	m.paymentVerifications.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordWebhook(event, outcome string) {
	if m == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	m.paymentWebhooks.WithLabelValues(event, outcome).Inc()
}
