// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the platform API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for API request latencies,
// ranging from 1ms to 10s.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, path group, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "group", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and path group.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voucherpay_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "group"},
	)

	// AssistiveRequestsTotal counts requests made with assistive technology
	// preference headers, by technology.
	AssistiveRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_assistive_requests_total",
			Help: "Requests using assistive technology",
		},
		[]string{"technology"},
	)

	// AnalyticsEventsTotal counts derived analytics events by outcome
	// (emitted, dropped).
	AnalyticsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_analytics_events_total",
			Help: "Derived analytics events",
		},
		[]string{"outcome"},
	)

	// AuthFailuresTotal counts failed authentication attempts by reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// TokensIssuedTotal counts issued tokens by type (access, refresh,
	// password_reset).
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_tokens_issued_total",
			Help: "Issued signed tokens",
		},
		[]string{"type"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucherpay_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AssistiveRequestsTotal,
		AnalyticsEventsTotal,
		AuthFailuresTotal,
		TokensIssuedTotal,
		RateLimitRejectedTotal,
	)
}
