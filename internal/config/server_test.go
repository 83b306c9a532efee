// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerConfigFor(t *testing.T) {
	t.Run("defaults for zero values", func(t *testing.T) {
		sc := ServerConfigFor(AppConfig{Port: 8080})
		assert.Equal(t, ":8080", sc.ListenAddr)
		assert.Equal(t, defaultReadTimeout, sc.ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, sc.WriteTimeout)
		assert.Equal(t, defaultIdleTimeout, sc.IdleTimeout)
		assert.Equal(t, defaultMaxHeaderBytes, sc.MaxHeaderBytes)
		assert.Equal(t, defaultShutdownTimeout, sc.ShutdownTimeout)
	})

	t.Run("explicit values win", func(t *testing.T) {
		sc := ServerConfigFor(AppConfig{
			Host: "0.0.0.0",
			Port: 9000,
			Server: ServerRuntimeConfig{
				ReadTimeout:     time.Second,
				WriteTimeout:    2 * time.Second,
				IdleTimeout:     3 * time.Second,
				MaxHeaderBytes:  4096,
				ShutdownTimeout: 10 * time.Second,
			},
		})
		assert.Equal(t, "0.0.0.0:9000", sc.ListenAddr)
		assert.Equal(t, time.Second, sc.ReadTimeout)
		assert.Equal(t, 2*time.Second, sc.WriteTimeout)
		assert.Equal(t, 3*time.Second, sc.IdleTimeout)
		assert.Equal(t, 4096, sc.MaxHeaderBytes)
		assert.Equal(t, 10*time.Second, sc.ShutdownTimeout)
	})

	t.Run("shutdown timeout floor", func(t *testing.T) {
		sc := ServerConfigFor(AppConfig{Port: 1, Server: ServerRuntimeConfig{ShutdownTimeout: time.Second}})
		assert.Equal(t, 3*time.Second, sc.ShutdownTimeout)
	})
}
