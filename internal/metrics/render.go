// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ssrserve_render_duration_seconds",
		Help:    "Latency of SSR sidecar render calls",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	renderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssrserve_render_total",
		Help: "SSR render calls by outcome",
	}, []string{"outcome"}) // outcome=success|failure|canceled

	renderBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ssrserve_render_html_bytes",
		Help:    "Size of rendered HTML documents",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// Render outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// RecordRender records one render call.
func RecordRender(outcome string, elapsed time.Duration, htmlBytes int) {
	renderTotal.WithLabelValues(outcome).Inc()
	renderDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		renderBytes.Observe(float64(htmlBytes))
	}
}
