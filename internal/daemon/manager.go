// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ManuGH/ssrserve/internal/config"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Deps are the collaborators of a Manager.
type Deps struct {
	Logger zerolog.Logger

	// Handler serves the public listener.
	Handler http.Handler

	// OpsHandler serves the ops listener on OpsAddr. Both must be set to
	// enable it.
	OpsHandler http.Handler
	OpsAddr    string
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Handler == nil {
		return ErrMissingHandler
	}
	return nil
}

// Manager owns the listeners: it binds them, serves until the context ends or
// a server fails, then shuts everything down within the shutdown timeout.
type Manager struct {
	serverCfg config.ServerConfig
	deps      Deps
	logger    zerolog.Logger

	mu            sync.Mutex
	started       bool
	stopping      bool
	shutdownHooks []namedHook
	servers       []*http.Server
	addr          net.Addr
	ready         chan struct{}
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg config.ServerConfig, deps Deps) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &Manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str(xglog.FieldComponent, "manager").Logger(),
		ready:     make(chan struct{}),
	}, nil
}

// Ready is closed once every listener is bound.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Addr is the bound address of the public listener, nil before Ready.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Start binds the listeners and serves until ctx is cancelled or a server
// fails. It returns after shutdown completed; a clean stop returns nil.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerStarted
	}
	m.started = true
	m.mu.Unlock()

	pub, pubLn, err := m.bind(m.serverCfg.ListenAddr, m.deps.Handler)
	if err != nil {
		return fmt.Errorf("public listener: %w", err)
	}
	type bound struct {
		name string
		srv  *http.Server
		ln   net.Listener
	}
	listeners := []bound{{"public", pub, pubLn}}

	if m.deps.OpsHandler != nil && m.deps.OpsAddr != "" {
		ops, opsLn, err := m.bind(m.deps.OpsAddr, m.deps.OpsHandler)
		if err != nil {
			_ = pubLn.Close()
			return fmt.Errorf("ops listener: %w", err)
		}
		ops.WriteTimeout = 0
		listeners = append(listeners, bound{"ops", ops, opsLn})
	}

	m.mu.Lock()
	m.addr = pubLn.Addr()
	for _, l := range listeners {
		m.servers = append(m.servers, l.srv)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		host, port := splitAddr(l.ln.Addr())
		m.logger.Info().
			Str(xglog.FieldEvent, "server.listening").
			Str("listener", l.name).
			Str(xglog.FieldAddr, host).
			Int(xglog.FieldPort, port).
			Msgf("listening on %s", l.ln.Addr())
	}
	close(m.ready)

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		g.Go(func() error {
			if err := l.srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Error().
					Err(err).
					Str(xglog.FieldEvent, "server.failed").
					Str("listener", l.name).
					Msg("server failed")
				return fmt.Errorf("%s server: %w", l.name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			m.logger.Info().Str(xglog.FieldEvent, "server.stopping").Msg("shutdown signal received")
		}
		return m.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

func (m *Manager) bind(addr string, h http.Handler) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
		MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
		ErrorLog:          xglog.StdLogger(m.logger, zerolog.WarnLevel),
	}
	return srv, ln, nil
}

func splitAddr(a net.Addr) (string, int) {
	host, portStr, err := net.SplitHostPort(a.String())
	if err != nil {
		return a.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// Shutdown stops the servers gracefully and then runs the shutdown hooks in
// reverse registration order. Calling it again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	servers := m.servers
	hooks := m.shutdownHooks
	m.mu.Unlock()

	m.logger.Info().Str(xglog.FieldEvent, "server.shutdown").Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(xglog.FieldEvent, "server.stopped").Msg("stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
