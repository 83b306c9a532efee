// SPDX-License-Identifier: MIT

package middleware

import (
	"io"

	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/rs/zerolog"
)

// StackConfig configures the canonical ingress stack placed in front of the
// routing stages.
type StackConfig struct {
	Logger zerolog.Logger
	Access *xglog.AccessFormatter

	// Correlation and observability
	EnableRequestID bool
	EnableMetrics   bool
	TracingService  string // empty disables tracing

	// Rate limiting; nil disables it.
	RateLimit *RateLimitConfig
}

// Stack returns the ingress stages in order:
//
//  1. ErrorBoundary (outermost, sees every failure)
//  2. RequestID (correlation early, so later logs carry it)
//  3. Tracing
//  4. Metrics
//  5. AccessLog (reads the response time set below it)
//  6. ResponseTime
//  7. RateLimit
func Stack(cfg StackConfig) []pipeline.Stage {
	access := cfg.Access
	if access == nil {
		access = xglog.NewAccessFormatter(io.Discard, false)
	}

	stages := []pipeline.Stage{ErrorBoundary(cfg.Logger)}
	if cfg.EnableRequestID {
		stages = append(stages, RequestID())
	}
	if cfg.TracingService != "" {
		stages = append(stages, Tracing(cfg.TracingService))
	}
	if cfg.EnableMetrics {
		stages = append(stages, Metrics())
	}
	stages = append(stages, AccessLog(cfg.Logger, access), ResponseTime())
	if cfg.RateLimit != nil {
		stages = append(stages, RateLimit(*cfg.RateLimit))
	}
	return stages
}
