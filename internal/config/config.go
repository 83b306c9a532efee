// SPDX-License-Identifier: MIT

package config

import (
	"net"
	"strconv"
	"time"
)

// Defaults.
const (
	DefaultPort            = 8080
	DefaultRenderURL       = "http://127.0.0.1:3001/render"
	DefaultRenderTimeout   = 10 * time.Second
	DefaultRateLimitWindow = time.Minute
	DefaultRateLimitCount  = 600
	DefaultTracingExporter = "grpc"
	DefaultTracingEndpoint = "localhost:4317"
	DefaultTracingSampling = 1.0
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLogService      = "ssrserve"

	defaultStaticDir    = "public"
	defaultManifestFile = "build/q-symbols.json"
)

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string

	// Host is the interface of the public listener; empty binds all interfaces.
	Host string
	Port int

	// StaticRoot is the directory served by the static fallback.
	StaticRoot string
	// ManifestPath is the generated asset-symbol manifest handed to every render.
	ManifestPath string

	Render    RenderConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
	Server    ServerRuntimeConfig
	Log       LogConfig

	// OpsListen is the address of the metrics/health listener. Empty disables it.
	OpsListen string
	// RequestID enables X-Request-ID propagation.
	RequestID bool
}

// RenderConfig configures the SSR sidecar client.
type RenderConfig struct {
	URL       string
	Timeout   time.Duration
	Debug     bool
	HealthURL string
}

// RateLimitConfig configures the optional per-client rate limiter.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // "grpc" or "http"
	Endpoint     string
	SamplingRate float64
}

// ServerRuntimeConfig holds the HTTP server timeouts and limits.
type ServerRuntimeConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level   string
	Format  string
	Service string
}

// ListenAddr returns the public listen address.
func (c AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FileConfig is the YAML file layout. Pointer fields distinguish "unset" from
// the zero value.
type FileConfig struct {
	Host         string `yaml:"host,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	StaticRoot   string `yaml:"staticRoot,omitempty"`
	ManifestPath string `yaml:"manifest,omitempty"`
	OpsListen    string `yaml:"opsListen,omitempty"`
	RequestID    *bool  `yaml:"requestId,omitempty"`

	Render    RenderFileConfig    `yaml:"render,omitempty"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Tracing   TracingFileConfig   `yaml:"tracing,omitempty"`
	Server    ServerFileConfig    `yaml:"server,omitempty"`
	Log       LogFileConfig       `yaml:"log,omitempty"`
}

// RenderFileConfig is the YAML layout of the render section.
type RenderFileConfig struct {
	URL       string        `yaml:"url,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Debug     *bool         `yaml:"debug,omitempty"`
	HealthURL string        `yaml:"healthUrl,omitempty"`
}

// RateLimitFileConfig is the YAML layout of the rate limit section.
type RateLimitFileConfig struct {
	Enabled  *bool         `yaml:"enabled,omitempty"`
	Requests int           `yaml:"requests,omitempty"`
	Window   time.Duration `yaml:"window,omitempty"`
}

// TracingFileConfig is the YAML layout of the tracing section.
type TracingFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// ServerFileConfig is the YAML layout of the server section.
type ServerFileConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idleTimeout,omitempty"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"`
}

// LogFileConfig is the YAML layout of the log section.
type LogFileConfig struct {
	Level   string `yaml:"level,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Service string `yaml:"service,omitempty"`
}
