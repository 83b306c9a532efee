// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var staticResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssrserve_static_results_total",
	Help: "Static fallback decisions by result",
}, []string{"result"}) // result=served|not_modified|fallthrough|forbidden|error

// Static fallback results.
const (
	StaticServed      = "served"
	StaticNotModified = "not_modified"
	StaticFallthrough = "fallthrough"
	StaticForbidden   = "forbidden"
	StaticError       = "error"
)

// IncStaticResult counts one static fallback decision.
func IncStaticResult(result string) { staticResultsTotal.WithLabelValues(result).Inc() }
