// SPDX-License-Identifier: MIT

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssrserve_http_requests_total",
		Help: "Total number of HTTP requests by method, route class and status",
	}, []string{"method", "route", "status"}) // route=render|static|notfound|unmatched

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ssrserve_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route class",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ssrserve_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssrserve_http_errors_total",
		Help: "Errors converted into error pages by kind",
	}, []string{"kind"}) // kind=typed|generic|panic

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ssrserve_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Error kinds.
const (
	ErrorTyped   = "typed"
	ErrorGeneric = "generic"
	ErrorPanic   = "panic"
)

// RecordHTTPRequest records one completed request. route is a low-cardinality
// class, never the raw path.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	method = normalizeMethod(method)
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncInFlight marks a request as started and returns the matching decrement.
func IncInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// IncHTTPError counts an error page by kind.
func IncHTTPError(kind string) { httpErrorsTotal.WithLabelValues(kind).Inc() }

// IncRateLimited counts a rate-limited request.
func IncRateLimited() { rateLimitedTotal.Inc() }

// normalizeMethod folds unknown methods into one label value.
func normalizeMethod(m string) string {
	switch m {
	case "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "CONNECT", "TRACE":
		return m
	default:
		return "OTHER"
	}
}
