// SPDX-License-Identifier: MIT

// Package httpx builds the outbound HTTP clients of ssrserve.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

type options struct {
	responseHeaderTimeout time.Duration
	traced                bool
	spanName              string
}

// Option customises a client built by NewClient.
type Option func(*options)

// WithResponseHeaderTimeout lets the peer take up to d before sending headers.
// Callers whose peer computes the whole reply before answering (such as a
// renderer) need this to exceed the default cap.
func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(o *options) { o.responseHeaderTimeout = d }
}

// WithTracing wraps the transport with OpenTelemetry client spans named
// spanName.
func WithTracing(spanName string) Option {
	return func(o *options) {
		o.traced = true
		o.spanName = spanName
	}
}

// NewClient returns a hardened HTTP client for runtime calls and ops probes.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dialTimeout := min(timeout, defaultDialTimeout)

	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)
	if o.responseHeaderTimeout > 0 {
		responseHeaderTimeout = min(timeout, o.responseHeaderTimeout)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if o.traced {
		name := o.spanName
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(string, *http.Request) string { return name }),
		)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
