// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureForTest(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	Configure(cfg)
	t.Cleanup(func() { Configure(Config{Level: "info"}) })
	return &buf
}

func TestConfigure_JSON(t *testing.T) {
	buf := configureForTest(t, Config{Level: "debug", Format: FormatJSON, Service: "svc", Version: "v1"})

	l := WithComponent("pipeline")
	l.Debug().Str(FieldEvent, "test.event").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "svc", entry["service"])
	assert.Equal(t, "v1", entry["version"])
	assert.Equal(t, "pipeline", entry[FieldComponent])
	assert.Equal(t, "test.event", entry[FieldEvent])
	assert.Equal(t, "debug", entry["level"])
	assert.False(t, Console())
}

func TestConfigure_LevelFilters(t *testing.T) {
	buf := configureForTest(t, Config{Level: "warn"})

	lg := Base()
	lg.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	lg.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestConfigure_InvalidLevelDefaultsToInfo(t *testing.T) {
	configureForTest(t, Config{Level: "verbose"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestConfigure_Console(t *testing.T) {
	buf := configureForTest(t, Config{Format: "Console"})

	lg := Base()
	lg.Info().Msg("human readable")
	assert.True(t, Console())
	assert.Contains(t, buf.String(), "human readable")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestConfigure_EnvFallbacks(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_SERVICE", "from-env")
	buf := configureForTest(t, Config{})

	lg := Base()
	lg.Error().Msg("boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "from-env", entry["service"])
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	l := StdLogger(zerolog.New(&buf), zerolog.WarnLevel)
	l.Print("http: TLS handshake error\n")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "http: TLS handshake error", entry["message"])
}
