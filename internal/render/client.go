// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/manifest"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/platform/httpx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// maxResponseBytes bounds the sidecar reply.
	maxResponseBytes = 32 << 20
	// maxErrorSnippet bounds the part of a failed reply that is logged.
	maxErrorSnippet = 512
	defaultTimeout  = 10 * time.Second
)

// ErrEmptyEndpoint is returned by NewClient without an endpoint.
var ErrEmptyEndpoint = errors.New("render: endpoint is required")

// ClientConfig configures a sidecar Client.
type ClientConfig struct {
	// Endpoint is the absolute URL the render request is POSTed to.
	Endpoint string
	// Timeout bounds a single render call. The request context still applies.
	Timeout time.Duration
	// HTTPClient overrides the default traced client.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client renders pages through an HTTP rendering sidecar.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   zerolog.Logger
}

type renderRequest struct {
	Symbols *manifest.Manifest `json:"symbols"`
	URL     string             `json:"url"`
	Debug   bool               `json:"debug"`
}

type renderResponse struct {
	HTML *string `json:"html"`
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "render: parse endpoint")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("render: endpoint must be an absolute http(s) URL, got %q", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(timeout,
			httpx.WithResponseHeaderTimeout(timeout),
			httpx.WithTracing("render"),
		)
	}

	logger := xglog.WithComponent("render")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		endpoint: u.String(),
		timeout:  timeout,
		http:     hc,
		logger:   logger,
	}, nil
}

// Endpoint returns the sidecar URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Render sends the manifest and request URL to the sidecar and returns the
// document it produced. Every failure is a plain error carrying a stack.
func (c *Client) Render(ctx context.Context, opts Options) (res Result, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case err != nil && ctx.Err() != nil: // caller went away
			outcome = metrics.OutcomeCanceled
		case err != nil:
			outcome = metrics.OutcomeFailure
		}
		metrics.RecordRender(outcome, time.Since(start), len(res.HTML))
	}()

	if opts.URL == nil {
		return Result{}, errors.New("render: request URL is required")
	}

	payload, err := json.Marshal(renderRequest{
		Symbols: opts.Symbols,
		URL:     opts.URL.String(),
		Debug:   opts.Debug,
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "render: encode request")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, errors.Wrap(err, "render: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rid := xglog.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, errors.Wrap(err, "render: call sidecar")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return Result{}, errors.Wrap(err, "render: read response")
	}
	if len(body) > maxResponseBytes {
		return Result{}, errors.Errorf("render: response exceeds %d bytes", maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str(xglog.FieldEvent, "render.sidecar_error").
			Int(xglog.FieldStatus, resp.StatusCode).
			Str("body", snippet(body)).
			Msg("render sidecar returned an error status")
		return Result{}, errors.Errorf("render: sidecar returned status %d", resp.StatusCode)
	}

	var out renderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, errors.Wrap(err, "render: decode response")
	}
	if out.HTML == nil {
		return Result{}, errors.New("render: response has no html field")
	}

	return Result{HTML: *out.HTML}, nil
}

func snippet(b []byte) string {
	if len(b) > maxErrorSnippet {
		b = b[:maxErrorSnippet]
	}
	return string(b)
}
