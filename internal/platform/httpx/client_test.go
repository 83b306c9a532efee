// SPDX-License-Identifier: MIT

package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func transportOf(t *testing.T, c *http.Client) *http.Transport {
	t.Helper()
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok, "transport type = %T, want *http.Transport", c.Transport)
	return tr
}

func TestNewClient_DefaultTimeoutAndTransport(t *testing.T) {
	client := NewClient(0)
	assert.Equal(t, defaultClientTimeout, client.Timeout)

	transport := transportOf(t, client)
	assert.Equal(t, defaultMaxIdleConns, transport.MaxIdleConns)
	assert.Equal(t, defaultMaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
	assert.Equal(t, defaultIdleConnTimeout, transport.IdleConnTimeout)
}

func TestNewClient_CapsDialAndHeaderTimeouts(t *testing.T) {
	transport := transportOf(t, NewClient(10*time.Second))
	assert.Equal(t, defaultDialTimeout, transport.TLSHandshakeTimeout)
	assert.Equal(t, defaultResponseHeaderTimeout, transport.ResponseHeaderTimeout)
}

func TestNewClient_UsesShortTimeoutAsProvided(t *testing.T) {
	want := 1500 * time.Millisecond
	client := NewClient(want)
	transport := transportOf(t, client)
	assert.Equal(t, want, client.Timeout)
	assert.Equal(t, want, transport.TLSHandshakeTimeout)
	assert.Equal(t, want, transport.ResponseHeaderTimeout)
}

func TestNewClient_ResponseHeaderTimeoutOption(t *testing.T) {
	transport := transportOf(t, NewClient(10*time.Second, WithResponseHeaderTimeout(8*time.Second)))
	assert.Equal(t, 8*time.Second, transport.ResponseHeaderTimeout)

	// never beyond the overall timeout
	transport = transportOf(t, NewClient(2*time.Second, WithResponseHeaderTimeout(8*time.Second)))
	assert.Equal(t, 2*time.Second, transport.ResponseHeaderTimeout)
}

func TestNewClient_Tracing(t *testing.T) {
	client := NewClient(time.Second, WithTracing("render"))
	_, ok := client.Transport.(*otelhttp.Transport)
	require.True(t, ok, "transport type = %T, want *otelhttp.Transport", client.Transport)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
