// SPDX-License-Identifier: MIT

package middleware

import (
	"strconv"
	"time"

	"github.com/ManuGH/ssrserve/internal/pipeline"
)

// HeaderResponseTime carries the downstream processing time in whole
// milliseconds.
const HeaderResponseTime = "X-Response-Time"

// ResponseTime measures the rest of the pipeline and records the elapsed time
// in the X-Response-Time header, also when downstream fails or panics. A
// downstream panic is returned as a *pipeline.PanicError.
func ResponseTime() pipeline.Stage {
	return func(c *pipeline.Context, next pipeline.Next) error {
		start := time.Now()
		err := pipeline.Guard(next)
		c.Response.Header().Set(HeaderResponseTime, formatMillis(time.Since(start)))
		return err
	}
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
