package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Outbound calls to the marketplace backend.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of backend API requests (by endpoint, method and status).",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint", "method"},
	)

	ListRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_refresh_total",
			Help: "List view activations by view and result.",
		},
		[]string{"view", "result"}, // ok | error | stale
	)

	FormSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_form_submissions_total",
			Help: "Form submissions by entity kind and result.",
		},
		[]string{"kind", "result"}, // success | invalid | error | busy
	)

	SessionNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_notifications_total",
			Help: "Session change signals by transport and direction.",
		},
		[]string{"transport", "direction"}, // local|redis|nats, sent|received|error
	)
)

// ObserveDuration records the time elapsed since start on a histogram or summary vector.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters and gauges do not track durations
	}
}

func IncAPIRequest(endpoint, method, status string) {
	APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

func IncListRefresh(view, result string) {
	ListRefreshTotal.WithLabelValues(view, result).Inc()
}

func IncFormSubmission(kind, result string) {
	FormSubmissionsTotal.WithLabelValues(kind, result).Inc()
}

func IncSessionNotification(transport, direction string) {
	SessionNotificationsTotal.WithLabelValues(transport, direction).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
