// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
	baseDir    string
}

// NewLoader creates a new configuration loader. Default asset paths are
// resolved against the directory of the running executable.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// WithBaseDir overrides the directory default asset paths are resolved
// against.
func (l *Loader) WithBaseDir(dir string) *Loader {
	l.baseDir = dir
	return l
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}

	// 1. Set defaults
	if err := l.setDefaults(&cfg); err != nil {
		return cfg, fmt.Errorf("set defaults: %w", err)
	}

	// 2. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	// 3. Override with environment variables (highest priority)
	mergeEnvConfig(&cfg)

	// 4. Absolute asset paths so logs and health checks are unambiguous
	for _, p := range []*string{&cfg.StaticRoot, &cfg.ManifestPath} {
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	cfg.Version = l.version

	// 5. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (l *Loader) setDefaults(cfg *AppConfig) error {
	base := l.baseDir
	if base == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return err
		}
		base = dir
	}

	cfg.Port = DefaultPort
	cfg.StaticRoot = filepath.Join(base, "..", defaultStaticDir)
	cfg.ManifestPath = filepath.Join(base, filepath.FromSlash(defaultManifestFile))

	// The original application always rendered in debug mode.
	cfg.Render = RenderConfig{
		URL:     DefaultRenderURL,
		Timeout: DefaultRenderTimeout,
		Debug:   true,
	}
	cfg.RateLimit = RateLimitConfig{
		Requests: DefaultRateLimitCount,
		Window:   DefaultRateLimitWindow,
	}
	cfg.Tracing = TracingConfig{
		Exporter:     DefaultTracingExporter,
		Endpoint:     DefaultTracingEndpoint,
		SamplingRate: DefaultTracingSampling,
	}
	cfg.Server = defaultServerRuntimeConfig()
	cfg.Log = LogConfig{
		Level:   DefaultLogLevel,
		Format:  DefaultLogFormat,
		Service: DefaultLogService,
	}
	return nil
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// Parse YAML with strict mode (unknown fields cause errors)
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingContent
	}

	return &fileCfg, nil
}

// mergeFileConfig merges non-empty file values into dst.
func mergeFileConfig(dst *AppConfig, src *FileConfig) {
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.StaticRoot != "" {
		dst.StaticRoot = expandEnv(src.StaticRoot)
	}
	if src.ManifestPath != "" {
		dst.ManifestPath = expandEnv(src.ManifestPath)
	}
	if src.OpsListen != "" {
		dst.OpsListen = src.OpsListen
	}
	if src.RequestID != nil {
		dst.RequestID = *src.RequestID
	}

	// Render
	if src.Render.URL != "" {
		dst.Render.URL = expandEnv(src.Render.URL)
	}
	if src.Render.Timeout > 0 {
		dst.Render.Timeout = src.Render.Timeout
	}
	if src.Render.Debug != nil {
		dst.Render.Debug = *src.Render.Debug
	}
	if src.Render.HealthURL != "" {
		dst.Render.HealthURL = expandEnv(src.Render.HealthURL)
	}

	// Rate limit
	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.Requests > 0 {
		dst.RateLimit.Requests = src.RateLimit.Requests
	}
	if src.RateLimit.Window > 0 {
		dst.RateLimit.Window = src.RateLimit.Window
	}

	// Tracing
	if src.Tracing.Enabled != nil {
		dst.Tracing.Enabled = *src.Tracing.Enabled
	}
	if src.Tracing.Exporter != "" {
		dst.Tracing.Exporter = src.Tracing.Exporter
	}
	if src.Tracing.Endpoint != "" {
		dst.Tracing.Endpoint = expandEnv(src.Tracing.Endpoint)
	}
	if src.Tracing.SamplingRate != nil {
		dst.Tracing.SamplingRate = *src.Tracing.SamplingRate
	}

	// Server
	if src.Server.ReadTimeout > 0 {
		dst.Server.ReadTimeout = src.Server.ReadTimeout
	}
	if src.Server.WriteTimeout > 0 {
		dst.Server.WriteTimeout = src.Server.WriteTimeout
	}
	if src.Server.IdleTimeout > 0 {
		dst.Server.IdleTimeout = src.Server.IdleTimeout
	}
	if src.Server.MaxHeaderBytes > 0 {
		dst.Server.MaxHeaderBytes = src.Server.MaxHeaderBytes
	}
	if src.Server.ShutdownTimeout > 0 {
		dst.Server.ShutdownTimeout = src.Server.ShutdownTimeout
	}

	// Logging
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
	if src.Log.Service != "" {
		dst.Log.Service = src.Log.Service
	}
}

// mergeEnvConfig overlays environment variables. Every key defaults to the
// value already resolved from file and defaults.
func mergeEnvConfig(cfg *AppConfig) {
	cfg.Host = ParseString("SSR_HOST", cfg.Host)
	cfg.Port = ParseInt("PORT", cfg.Port)
	cfg.StaticRoot = ParseString("SSR_STATIC_ROOT", cfg.StaticRoot)
	cfg.ManifestPath = ParseString("SSR_MANIFEST", cfg.ManifestPath)
	cfg.OpsListen = ParseString("SSR_OPS_LISTEN", cfg.OpsListen)
	cfg.RequestID = ParseBool("SSR_REQUEST_ID", cfg.RequestID)

	cfg.Render.URL = ParseString("SSR_RENDER_URL", cfg.Render.URL)
	cfg.Render.Timeout = ParseDuration("SSR_RENDER_TIMEOUT", cfg.Render.Timeout)
	cfg.Render.Debug = ParseBool("SSR_RENDER_DEBUG", cfg.Render.Debug)
	cfg.Render.HealthURL = ParseString("SSR_RENDER_HEALTH_URL", cfg.Render.HealthURL)

	cfg.RateLimit.Enabled = ParseBool("SSR_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = ParseInt("SSR_RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = ParseDuration("SSR_RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Tracing.Enabled = ParseBool("SSR_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString("SSR_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString("SSR_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat("SSR_TRACING_SAMPLING", cfg.Tracing.SamplingRate)

	cfg.Server.ReadTimeout = ParseDuration("SSR_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration("SSR_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = ParseDuration("SSR_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = ParseInt("SSR_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = ParseDuration("SSR_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Log.Level = ParseString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = ParseString("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Service = ParseString("LOG_SERVICE", cfg.Log.Service)
}
