// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/ssrserve/internal/validate"
	"github.com/rs/zerolog"
)

// Validate checks cfg and reports every problem at once. The returned error
// wraps ErrInvalidConfig and a validate.ValidationError.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Port("Port", cfg.Port)
	v.NotEmpty("StaticRoot", cfg.StaticRoot)
	v.NotEmpty("ManifestPath", cfg.ManifestPath)

	// Render sidecar
	v.URL("Render.URL", cfg.Render.URL, []string{"http", "https"})
	v.MinDuration("Render.Timeout", cfg.Render.Timeout, time.Millisecond)
	if strings.TrimSpace(cfg.Render.HealthURL) != "" {
		v.URL("Render.HealthURL", cfg.Render.HealthURL, []string{"http", "https"})
	}

	// Ops listener (optional)
	if cfg.OpsListen != "" {
		v.ListenAddr("OpsListen", cfg.OpsListen)
		if cfg.OpsListen == cfg.ListenAddr() {
			v.AddError("OpsListen", "must differ from the public listen address", cfg.OpsListen)
		}
	}

	// Zero keeps the http.Server default.
	if cfg.Server.MaxHeaderBytes != 0 {
		v.Range("Server.MaxHeaderBytes", cfg.Server.MaxHeaderBytes, 1<<10, 1<<24)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("RateLimit.Requests", cfg.RateLimit.Requests)
		v.MinDuration("RateLimit.Window", cfg.RateLimit.Window, time.Second)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("Tracing.SamplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	v.Custom("Log.Level", cfg.Log.Level, func(val any) error {
		if _, err := zerolog.ParseLevel(val.(string)); err != nil {
			return fmt.Errorf("unknown log level %q", val)
		}
		return nil
	})
	v.OneOf("Log.Format", cfg.Log.Format, []string{"json", "console"})

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
