// SPDX-License-Identifier: MIT

package middleware

import (
	"errors"
	"net/http"

	"github.com/ManuGH/ssrserve/internal/httperr"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/ManuGH/ssrserve/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request. Incoming W3C trace context is
// honoured. The span is renamed after the answering stage once it is known.
func Tracing(tracerName string) pipeline.Stage {
	tracer := telemetry.Tracer(tracerName)

	return func(c *pipeline.Context, next pipeline.Next) error {
		orig := c.Request
		defer func() { c.Request = orig }()

		ctx := otel.GetTextMapPropagator().Extract(orig.Context(), propagation.HeaderCarrier(orig.Header))
		ctx, span := tracer.Start(ctx, orig.Method,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()
		c.Request = orig.WithContext(ctx)

		// Never include query values in spans.
		urlLabel := orig.URL.Path
		if orig.URL.RawQuery != "" {
			urlLabel += "?"
		}

		err := next()

		status := c.Response.Status()
		if err != nil {
			status = httperr.StatusCode(err)
		}
		route := routeLabel(c)
		span.SetName(orig.Method + " " + route)
		span.SetAttributes(telemetry.HTTPAttributes(orig.Method, route, urlLabel, status)...)
		if reqID := c.Response.Header().Get(HeaderRequestID); reqID != "" {
			span.SetAttributes(attribute.String(telemetry.HTTPRequestIDKey, reqID))
		}

		switch {
		case err != nil && status >= http.StatusInternalServerError:
			span.RecordError(err)
			span.SetAttributes(telemetry.ErrorAttributes(errorKind(err))...)
			span.SetStatus(codes.Error, http.StatusText(status))
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		default:
			// 4xx are client issues, not server faults.
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}

func errorKind(err error) string {
	var pe *pipeline.PanicError
	if errors.As(err, &pe) {
		return "panic"
	}
	if _, ok := httperr.As(err); ok {
		return "typed"
	}
	return "generic"
}
