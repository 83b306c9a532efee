// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "zipkin"})
	require.Error(t, err)
	assert.EqualError(t, err, "unsupported exporter type: zipkin (supported: grpc, http)")
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sampler(tt.rate).Description())
	}
}

func TestProvider_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := newProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "ssrserve",
		ServiceVersion: "test",
		SamplingRate:   1,
	}, exp)
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })

	_, span := Tracer("test").Start(context.Background(), "GET /")
	span.SetAttributes(HTTPAttributes("GET", "/", "/", 200)...)
	span.End()

	// The in-memory exporter forgets its spans on Shutdown, so flush and
	// read them first.
	require.NoError(t, p.tp.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.NoError(t, p.Shutdown(context.Background()))

	require.Len(t, spans, 1)
	assert.Equal(t, "GET /", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.Int(HTTPStatusCodeKey, 200))

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "ssrserve", service)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("panic")
	assert.Equal(t, []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, "panic"),
	}, attrs)
}
