// SPDX-License-Identifier: MIT

// Package daemon wires the server from configuration and owns its lifecycle.
package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ManuGH/ssrserve/internal/config"
	"github.com/ManuGH/ssrserve/internal/health"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/manifest"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/middleware"
	"github.com/ManuGH/ssrserve/internal/platform/httpx"
	"github.com/ManuGH/ssrserve/internal/render"
	"github.com/ManuGH/ssrserve/internal/server"
	"github.com/ManuGH/ssrserve/internal/telemetry"
	"github.com/ManuGH/ssrserve/internal/version"
	"github.com/rs/zerolog"
)

const healthProbeTimeout = 2 * time.Second

// Build wires the server described by cfg. The returned Manager is ready to
// Start; the tracer provider is flushed by its shutdown hook.
func Build(ctx context.Context, cfg config.AppConfig) (*Manager, error) {
	logger := xglog.WithComponent("daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	mgr, err := build(cfg, logger)
	if err != nil {
		_ = provider.Shutdown(context.WithoutCancel(ctx))
		return nil, err
	}
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	return mgr, nil
}

func build(cfg config.AppConfig, logger zerolog.Logger) (*Manager, error) {
	symbols, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	logger.Info().
		Str(xglog.FieldEvent, "manifest.loaded").
		Str(xglog.FieldManifest, symbols.Path()).
		Int(xglog.FieldSymbols, symbols.Len()).
		Msg("asset-symbol manifest loaded")

	metrics.RecordBuildInfo(cfg.Version, version.Commit)
	metrics.RecordManifest(symbols.Len())

	renderLogger := xglog.WithComponent("render")
	renderer, err := render.NewClient(render.ClientConfig{
		Endpoint: cfg.Render.URL,
		Timeout:  cfg.Render.Timeout,
		Logger:   &renderLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("render client: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewManifestChecker(symbols))
	hm.RegisterChecker(health.NewStaticRootChecker(cfg.StaticRoot))
	hm.RegisterChecker(health.NewHTTPChecker("render", cfg.Render.HealthURL, httpx.NewClient(healthProbeTimeout)))

	var rateLimit *middleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rateLimit = &middleware.RateLimitConfig{
			RequestLimit: cfg.RateLimit.Requests,
			WindowSize:   cfg.RateLimit.Window,
		}
	}
	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = cfg.Log.Service
	}

	handler := server.New(server.Config{
		Logger:          xglog.Base(),
		Access:          xglog.NewAccessFormatter(os.Stdout, xglog.Console()),
		Renderer:        renderer,
		Manifest:        symbols,
		RenderDebug:     cfg.Render.Debug,
		StaticRoot:      cfg.StaticRoot,
		EnableRequestID: cfg.RequestID,
		EnableMetrics:   cfg.OpsListen != "",
		TracingService:  tracingService,
		RateLimit:       rateLimit,
	})

	logger.Info().
		Str(xglog.FieldStaticRoot, cfg.StaticRoot).
		Str("render_url", renderer.Endpoint()).
		Bool("render_debug", cfg.Render.Debug).
		Bool("rate_limit", rateLimit != nil).
		Bool("tracing", tracingService != "").
		Str("ops_listen", cfg.OpsListen).
		Msg("pipeline configured")

	return NewManager(config.ServerConfigFor(cfg), Deps{
		Logger:     logger,
		Handler:    handler,
		OpsHandler: server.NewOpsHandler(hm),
		OpsAddr:    cfg.OpsListen,
	})
}

// Run builds the server and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.AppConfig) error {
	mgr, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	return mgr.Start(ctx)
}
