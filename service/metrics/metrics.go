package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
// Every helper is a no-op on a nil *Metrics.
type Metrics struct {
	// Webhook Metrics
	webhookBatchSize   prometheus.Histogram
	transactionsTotal  *prometheus.CounterVec
	classifierRuleHits *prometheus.CounterVec
	burnTokensPerEvent prometheus.Histogram

	// Token Metadata Metrics
	metadataLookupsTotal  *prometheus.CounterVec
	metadataFetchDuration *prometheus.HistogramVec
	tokenCacheSize        prometheus.Gauge

	// Notification Metrics
	notificationsTotal      *prometheus.CounterVec
	notificationDuration    *prometheus.HistogramVec
	notificationsSuppressed *prometheus.CounterVec

	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// HTTP Metrics
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	sseActiveConnections prometheus.Gauge
	sseEventsSent        prometheus.Counter
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Webhook Metrics
		webhookBatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "webhook_batch_size",
				Help:    "Number of transactions per webhook delivery",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_transactions_total",
				Help: "Total number of webhook transactions by outcome (burn, skipped, malformed)",
			},
			[]string{"result"},
		),
		classifierRuleHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifier_rule_hits_total",
				Help: "Total number of burn classifications by the rule that matched first",
			},
			[]string{"rule"},
		),
		burnTokensPerEvent: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "burn_tokens_per_event",
				Help:    "Number of tokens with a positive burn amount per burn event",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),

		// Token Metadata Metrics
		metadataLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_metadata_lookups_total",
				Help: "Total number of token metadata lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
		metadataFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "token_metadata_fetch_duration_seconds",
				Help:    "Duration of token metadata provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"status"},
		),
		tokenCacheSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "token_cache_entries",
				Help: "Number of live entries in the token metadata cache",
			},
		),

		// Notification Metrics
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Total number of notification deliveries by sink and status",
			},
			[]string{"sink", "status"},
		),
		notificationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notification_duration_seconds",
				Help:    "Duration of notification deliveries in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"sink"},
		),
		notificationsSuppressed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_suppressed_total",
				Help: "Total number of burn events not dispatched, by reason",
			},
			[]string{"reason"},
		),

		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		sseActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sse_active_connections",
				Help: "Number of active SSE connections",
			},
		),
		sseEventsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sse_events_sent_total",
				Help: "Total number of SSE burn events sent",
			},
		),
	}
}

// Webhook metric helpers

// RecordWebhookBatch records the size of one webhook delivery.
func (m *Metrics) RecordWebhookBatch(size int) {
	if m == nil {
		return
	}
	m.webhookBatchSize.Observe(float64(size))
}

// RecordTransaction records the outcome for one webhook transaction.
func (m *Metrics) RecordTransaction(result string) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(result).Inc()
}

// RecordRuleHit records which classifier rule matched.
func (m *Metrics) RecordRuleHit(rule string) {
	if m == nil {
		return
	}
	m.classifierRuleHits.WithLabelValues(rule).Inc()
}

// RecordBurnTokens records the number of burned tokens in one event.
func (m *Metrics) RecordBurnTokens(count int) {
	if m == nil {
		return
	}
	m.burnTokensPerEvent.Observe(float64(count))
}

// Token metadata metric helpers

// RecordMetadataLookup records a cache lookup result: hit, miss or error.
func (m *Metrics) RecordMetadataLookup(result string) {
	if m == nil {
		return
	}
	m.metadataLookupsTotal.WithLabelValues(result).Inc()
}

// RecordMetadataFetch records a provider call with duration.
func (m *Metrics) RecordMetadataFetch(err error, duration float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metadataFetchDuration.WithLabelValues(status).Observe(duration)
}

// SetTokenCacheSize records the current number of cache entries.
func (m *Metrics) SetTokenCacheSize(n int) {
	if m == nil {
		return
	}
	m.tokenCacheSize.Set(float64(n))
}

// Notification metric helpers

// RecordNotification records a delivery attempt to a sink.
func (m *Metrics) RecordNotification(sink string, err error, duration float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.notificationsTotal.WithLabelValues(sink, status).Inc()
	m.notificationDuration.WithLabelValues(sink).Observe(duration)
}

// RecordNotificationSuppressed records an event that was not dispatched.
func (m *Metrics) RecordNotificationSuppressed(reason string) {
	if m == nil {
		return
	}
	m.notificationsSuppressed.WithLabelValues(reason).Inc()
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	if m == nil {
		return
	}
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordSSEConnectionChange records a change in SSE connection count.
func (m *Metrics) RecordSSEConnectionChange(delta float64) {
	if m == nil {
		return
	}
	m.sseActiveConnections.Add(delta)
}

// RecordSSEEventSent records an SSE event being sent.
func (m *Metrics) RecordSSEEventSent() {
	if m == nil {
		return
	}
	m.sseEventsSent.Inc()
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
