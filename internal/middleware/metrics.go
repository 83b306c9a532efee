// SPDX-License-Identifier: MIT

package middleware

import (
	"time"

	"github.com/ManuGH/ssrserve/internal/httperr"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/pipeline"
)

// routeUnmatched labels requests no named stage answered.
const routeUnmatched = "unmatched"

// Metrics records request count, latency and in-flight requests. The route
// label is the name of the stage that answered, keeping cardinality bounded.
func Metrics() pipeline.Stage {
	return func(c *pipeline.Context, next pipeline.Next) error {
		done := metrics.IncInFlight()
		defer done()

		start := time.Now()
		err := next()

		status := c.Response.Status()
		if err != nil {
			status = httperr.StatusCode(err)
		}
		metrics.RecordHTTPRequest(c.Request.Method, routeLabel(c), status, time.Since(start))
		return err
	}
}

func routeLabel(c *pipeline.Context) string {
	if c.Route == "" {
		return routeUnmatched
	}
	return c.Route
}
