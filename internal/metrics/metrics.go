// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// Rate limiting
	ThrottledRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_throttled_requests_total",
			Help: "Requests rejected by a throttle scope",
		},
		[]string{"scope"},
	)

	// Auth flow
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_signups_total",
			Help: "Signup attempts by result (created, reused, rejected)",
		},
		[]string{"result"},
	)

	TokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_token_exchanges_total",
			Help: "Confirmation-code exchanges by result (issued, bad_code, unknown_user)",
		},
		[]string{"result"},
	)

	// Mail
	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_deliveries_total",
			Help: "Outbound mail by result (sent, failed, dropped)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yamdb_circuit_breaker_state",
			Help: "0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
