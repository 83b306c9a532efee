// SPDX-License-Identifier: MIT

// Package server composes the request pipeline of the public listener.
package server

import (
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/manifest"
	"github.com/ManuGH/ssrserve/internal/middleware"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/ManuGH/ssrserve/internal/render"
	"github.com/ManuGH/ssrserve/internal/static"
	"github.com/rs/zerolog"
)

// Stage names reported as the metrics route label and span name.
const (
	RouteRender   = "render"
	RouteStatic   = "static"
	RouteNotFound = "notfound"
)

// Config collects everything the pipeline is built from.
type Config struct {
	Logger zerolog.Logger
	// Access styles the access line; nil logs plain lines.
	Access *xglog.AccessFormatter

	Renderer    render.Renderer
	Manifest    *manifest.Manifest
	RenderDebug bool
	StaticRoot  string

	EnableRequestID bool
	EnableMetrics   bool
	TracingService  string
	RateLimit       *middleware.RateLimitConfig
}

// New builds the pipeline:
//
//	boundary -> [request id, tracing, metrics] -> access log -> response time
//	-> [rate limit] -> render route -> static files -> not found
func New(cfg Config) *pipeline.Pipeline {
	logger := cfg.Logger

	stages := middleware.Stack(middleware.StackConfig{
		Logger:          logger.With().Str(xglog.FieldComponent, "http").Logger(),
		Access:          cfg.Access,
		EnableRequestID: cfg.EnableRequestID,
		EnableMetrics:   cfg.EnableMetrics,
		TracingService:  cfg.TracingService,
		RateLimit:       cfg.RateLimit,
	})

	route := render.NewRoute(cfg.Renderer, cfg.Manifest,
		render.WithDebug(cfg.RenderDebug),
		render.WithLogger(logger.With().Str(xglog.FieldComponent, "render").Logger()),
	)
	files := static.New(cfg.StaticRoot,
		static.WithLogger(logger.With().Str(xglog.FieldComponent, "static").Logger()),
	)

	stages = append(stages,
		pipeline.Named(RouteRender, route.Stage()),
		pipeline.Named(RouteStatic, files.Stage()),
		pipeline.Named(RouteNotFound, NotFound(logger.With().Str(xglog.FieldComponent, "notfound").Logger())),
	)

	return pipeline.New(stages...).WithLogger(logger)
}
