// SPDX-License-Identifier: MIT

package middleware

import (
	"github.com/ManuGH/ssrserve/internal/httperr"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/rs/zerolog"
)

// AccessLog emits one info entry per request once the rest of the pipeline has
// run. It must sit outside ResponseTime so the header is already set.
//
// The status is the one the error boundary will send when downstream failed.
// Panics are recovered into errors so they are logged like any other failure.
func AccessLog(logger zerolog.Logger, f *xglog.AccessFormatter) pipeline.Stage {
	return func(c *pipeline.Context, next pipeline.Next) error {
		err := pipeline.Guard(next)

		r := c.Request
		status := c.Response.Status()
		if err != nil {
			status = httperr.StatusCode(err)
		}
		rt := c.Response.Header().Get(HeaderResponseTime)

		logger.Info().
			Str(xglog.FieldEvent, "request.handled").
			Str(xglog.FieldMethod, r.Method).
			Str(xglog.FieldPath, r.URL.Path).
			Str(xglog.FieldResponseTime, rt).
			Int(xglog.FieldStatus, status).
			Str(xglog.FieldRequestID, xglog.RequestIDFromContext(r.Context())).
			Msg(f.Format(r.Method, r.URL.Path, rt))

		return err
	}
}
