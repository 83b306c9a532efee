// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/ssrserve/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testServerConfig(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 3 * time.Second,
	}
}

func hello() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
}

func noKeepAlive() *http.Client {
	return &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := noKeepAlive().Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewManager_ValidatesDeps(t *testing.T) {
	_, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: zerolog.Nop().Level(zerolog.InfoLevel)})
	assert.ErrorIs(t, err, ErrMissingHandler)

	_, err = NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: zerolog.Nop(), Handler: hello()})
	assert.ErrorIs(t, err, ErrMissingLogger)
}

func TestManager_ServesAndStopsWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{
		Logger:     zerolog.New(io.Discard),
		Handler:    hello(),
		OpsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ops") }),
		OpsAddr:    "127.0.0.1:0",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	select {
	case <-m.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("listeners not bound")
	}
	assert.Equal(t, "hello", get(t, "http://"+m.Addr().String()+"/"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
}

func TestManager_ShutdownHooksRunLIFO(t *testing.T) {
	m, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: zerolog.New(io.Discard), Handler: hello()})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		m.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}
	m.RegisterShutdownHook("broken", func(context.Context) error { return errors.New("flush failed") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-m.Ready()
	cancel()

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook broken: flush failed")
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// Second shutdown is a no-op.
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StartTwice(t *testing.T) {
	m, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: zerolog.New(io.Discard), Handler: hello()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-m.Ready()

	assert.ErrorIs(t, m.Start(ctx), ErrManagerStarted)
	cancel()
	require.NoError(t, <-done)
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m, err := NewManager(testServerConfig("127.0.0.1:0"), Deps{Logger: zerolog.New(io.Discard), Handler: hello()})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	m, err := NewManager(testServerConfig(ln.Addr().String()), Deps{Logger: zerolog.New(io.Discard), Handler: hello()})
	require.NoError(t, err)

	err = m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public listener")
}
