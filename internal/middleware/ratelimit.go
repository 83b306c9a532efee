// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/ssrserve/internal/httperr"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for the rate-limit stage.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window.
	RequestLimit int
	// WindowSize is the sliding window.
	WindowSize time.Duration
	// KeyFunc extracts the limit key. Defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit rejects clients over the limit with a typed 429 carrying
// Retry-After. The error flows to the error boundary like any other.
func RateLimit(cfg RateLimitConfig) pipeline.Stage {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return pipeline.Wrap(httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(_ http.ResponseWriter, r *http.Request) {
			metrics.IncRateLimited()
			pipeline.Fail(r, httperr.New(http.StatusTooManyRequests, "",
				httperr.WithHeader("Retry-After", retryAfter)))
		}),
	))
}
