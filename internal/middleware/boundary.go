// SPDX-License-Identifier: MIT

package middleware

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/ManuGH/ssrserve/internal/httperr"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/rs/zerolog"
)

const errorPage = "<!DOCTYPE html>\n<html>\n  <body>\n    <h1>%d - %s</h1>\n  </body>\n</html>"

// ErrorBoundary converts every error or panic raised downstream into an
// HTML error page. It never returns an error itself.
//
// Typed errors answer with their own status and, when exposed, their message.
// Anything else is answered with a fixed 500 page and logged with its stack.
func ErrorBoundary(logger zerolog.Logger) pipeline.Stage {
	return func(c *pipeline.Context, next pipeline.Next) error {
		err := pipeline.Guard(next)
		if err == nil {
			return nil
		}

		// The boundary runs outside RequestID, so the id is read back from
		// the response rather than the request context.
		l := logger
		if id := c.Response.Header().Get(HeaderRequestID); id != "" {
			l = l.With().Str(xglog.FieldRequestID, id).Logger()
		}
		status, message := classify(l, c.Request, err)

		res := c.Response
		res.Reset()
		if he, ok := httperr.As(err); ok {
			for k, v := range he.Header {
				res.Header()[k] = append([]string(nil), v...)
			}
		}
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		res.SetStatus(status)
		res.SetBodyString(fmt.Sprintf(errorPage, status, html.EscapeString(message)))
		return nil
	}
}

// classify logs err and returns the status and message to render.
func classify(l zerolog.Logger, r *http.Request, err error) (int, string) {
	if he, ok := httperr.As(err); ok {
		metrics.IncHTTPError(metrics.ErrorTyped)

		ev := l.Debug()
		if he.Status >= http.StatusInternalServerError {
			ev = l.Warn()
		}
		ev.Str(xglog.FieldEvent, "request.error").
			Str(xglog.FieldMethod, r.Method).
			Str(xglog.FieldPath, r.URL.Path).
			Int(xglog.FieldStatus, he.Status).
			Msg(he.Reason())

		if he.Expose {
			return he.Status, he.Message
		}
		return he.Status, he.Reason()
	}

	var stack string
	var pe *pipeline.PanicError
	if errors.As(err, &pe) {
		metrics.IncHTTPError(metrics.ErrorPanic)
		stack = pe.Stack
	} else {
		metrics.IncHTTPError(metrics.ErrorGeneric)
		stack = fmt.Sprintf("%+v", err)
	}

	l.Error().
		Err(err).
		Str(xglog.FieldEvent, "request.failed").
		Str(xglog.FieldMethod, r.Method).
		Str(xglog.FieldPath, r.URL.Path).
		Str(xglog.FieldStackTrace, stack).
		Msg("request failed")

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
