// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"

	"github.com/watchbind/watchbind/internal/app"
	"github.com/watchbind/watchbind/internal/logging"
	"github.com/watchbind/watchbind/internal/tui"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated ServerState = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is running and accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or encountered a fatal error (terminal state).
	StateFailed
)

const (
	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ErrNoSessionFactory is returned by Start when Config.NewSession is nil.
var ErrNoSessionFactory = errors.New("ssh server has no session factory")

type (
	// ServerState represents the lifecycle state of the server.
	ServerState int32

	// SessionFactory creates the coordinator and interface options for one
	// session. id is unique per session. The Controller and Context fields of
	// the returned options are filled in by the server.
	SessionFactory func(id string, logger *log.Logger) (*app.Coordinator, tui.Options, error)

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: localhost).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// HostKeyPath is the server key; created when missing. An empty path
		// uses a key generated for this run only.
		HostKeyPath string
		// AuthorizedKeys restricts logins to the keys in this file. When
		// empty, any client may connect.
		AuthorizedKeys string
		// StartupTimeout is the max time to wait for the server to be ready (default: 5s).
		StartupTimeout time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
		// NewSession builds the per-session application.
		NewSession SessionFactory
		// Logger receives server and session logs; nil discards them.
		Logger *log.Logger
	}

	// Server serves the interface over SSH.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		cfg Config

		state atomic.Int32

		stateMu  sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string

		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{}
		errCh     chan error
		lastErr   error

		sessions atomic.Int64
		logger   *log.Logger
	}
)

// String returns a human-readable representation of the server state.
func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// New creates a new SSH server instance.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
		logger:    logger.WithPrefix("ssh"),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// Start starts the SSH server and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start() returns nil, use Err() to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.lastErr
	default:
	}

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", s.State())
	}

	opts, err := s.serverOptions()
	if err != nil {
		s.transitionToFailed(err)
		return s.lastErr
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastErr
	}

	srv, err := wish.NewServer(append([]ssh.Option{wish.WithAddress(addr)}, opts...)...)
	if err != nil {
		_ = listener.Close()
		s.transitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srv = srv
	s.stateMu.Unlock()

	s.wg.Add(1)
	go s.serve()

	select {
	case <-s.startedCh:
		s.logger.Info("SSH server started", "address", s.addr)
		return nil

	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err

	case <-startupCtx.Done():
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastErr
	}
}

// Stop gracefully stops the SSH server.
// It blocks until all connections are closed or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	for {
		currentState := s.State()
		switch currentState {
		case StateStopped, StateFailed:
			return nil
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				s.cancel()
				return nil
			}
		case StateStopping:
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			if s.state.CompareAndSwap(int32(currentState), int32(StateStopping)) {
				return s.doStop()
			}
		default:
			return fmt.Errorf("unknown server state: %d", currentState)
		}
	}
}

// Err returns a channel that receives fatal server errors.
// The channel is closed when the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current server state.
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// IsRunning returns whether the server is currently running and accepting connections.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Sessions returns the number of sessions currently being served.
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

// Address returns the server's bound address (host:port).
// Blocks until the server has started or failed.
// Returns empty string if server never started or failed.
func (s *Server) Address() string {
	select {
	case <-s.startedCh:
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// Port returns the server's listening port, or 0 if it never started.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Wait blocks until the server stops (either gracefully or due to error).
// Returns the error if the server failed, nil otherwise.
func (s *Server) Wait() error {
	select {
	case <-s.ctx.Done():
	case <-s.startedCh:
		<-s.ctx.Done()
	}
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.lastErr
	}
	return nil
}

func (s *Server) serverOptions() ([]ssh.Option, error) {
	if s.cfg.NewSession == nil {
		return nil, ErrNoSessionFactory
	}
	opts := []ssh.Option{
		wish.WithMiddleware(
			bm.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlog.MiddlewareWithLogger(s.logger),
		),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}
	auth, err := authOption(s.cfg.AuthorizedKeys)
	if err != nil {
		return nil, err
	}
	if auth != nil {
		opts = append(opts, auth)
	} else {
		s.logger.Warn("no authorized keys configured; any client may connect", "host", s.cfg.Host)
	}
	return opts, nil
}

func (s *Server) serve() {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.stateMu.Lock()
	srv, listener := s.srv, s.listener
	s.stateMu.Unlock()

	if err := srv.Serve(listener); err != nil {
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
			s.logger.Error("SSH server error (channel full)", "error", err)
		}
	}
}

func (s *Server) doStop() error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.stateMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error, closing remaining sessions", "error", shutdownErr)
			_ = s.srv.Close()
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.stateMu.Unlock()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	s.cancel()
	s.logger.Info("SSH server stopped")
	close(s.errCh)

	return shutdownErr
}

func (s *Server) transitionToFailed(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
	s.cancel()
	select {
	case s.errCh <- err:
	default:
	}
}

func isClosedConnError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
