package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the chatbot service.
type Metrics struct {
	MessagesHandled *prometheus.CounterVec // labels: intent
	FallbackRefined prometheus.Counter
	HandlerErrors   prometheus.Counter

	// Weather metrics.
	WeatherRequests *prometheus.CounterVec // labels: outcome={success,error}
	WeatherCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Alert metrics.
	AlertsDetected  *prometheus.CounterVec // labels: type
	AlertsPublished prometheus.Counter
	StoreErrors     prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesHandled,
		m.FallbackRefined,
		m.HandlerErrors,
		m.WeatherRequests,
		m.WeatherCache,
		m.AlertsDetected,
		m.AlertsPublished,
		m.StoreErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "messages_handled_total",
			Help:      "Chat messages processed, by final intent.",
		}, []string{"intent"}),
		FallbackRefined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "fallback_refinements_total",
			Help:      "Messages whose intent was refined by the keyword fallback pass.",
		}),
		HandlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "handler_errors_total",
			Help:      "Dispatches recovered into the generic error reply.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "weather_provider_requests_total",
			Help:      "External weather API requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		AlertsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "alerts_detected_total",
			Help:      "Threshold alerts detected, by type.",
		}, []string{"type"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "alerts_published_total",
			Help:      "Alerts published to the notification topic.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agribot",
			Name:      "store_errors_total",
			Help:      "Swallowed data-store failures during best-effort operations.",
		}),
	}
}
