package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inakam/k8s-restart-notify/internal/infra/appstate"
	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown"
)

// listener holds the lifecycle shared by the probe and metrics servers.
type listener struct {
	logger     *slog.Logger
	name       string
	port       string
	server     *http.Server
	addr       string
	ready      chan struct{}
	inShutdown atomic.Bool
}

func newListener(logger *slog.Logger, name, port string) *listener {
	return &listener{
		logger: logger.With("component", name),
		name:   name,
		port:   port,
		ready:  make(chan struct{}),
	}
}

// Name returns the name of the server component
func (l *listener) Name() string {
	return l.name
}

// Ready returns a channel that is closed once the server is listening
func (l *listener) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address. Only valid after Ready is closed.
func (l *listener) Addr() string {
	return l.addr
}

// Ping returns nil when the server is listening.
func (l *listener) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ready:
		return nil
	default:
		return fmt.Errorf("%s: %w", l.name, ErrNotReady)
	}
}

// serve opens the listener synchronously so bind errors reach the caller,
// then serves in a goroutine.
func (l *listener) serve(ctx context.Context, handler http.Handler) error {
	if l.inShutdown.Load() {
		l.logger.InfoContext(ctx, "server is shutting down, skipping start")

		return nil
	}

	addr := ":" + l.port
	l.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	lc := &net.ListenConfig{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable: true,
		},
	}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%s listen tcp: %w", l.name, err)
	}

	l.addr = ln.Addr().String()
	l.logger.InfoContext(ctx, "server listening", "addr", l.addr)

	close(l.ready)

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.ErrorContext(ctx, "server error", "reason", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server
func (l *listener) Shutdown(ctx context.Context) error {
	if !l.inShutdown.CompareAndSwap(false, true) {
		l.logger.ErrorContext(ctx, "server is already shutting down, skipping shutdown")

		return nil
	}

	if l.server == nil {
		return nil
	}

	l.logger.InfoContext(ctx, "shutting down server")

	if err := l.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown: %w", l.name, err)
	}

	l.logger.InfoContext(ctx, "server closed properly")

	return nil
}

// Server serves the health, readiness and status endpoints.
type Server struct {
	*listener

	appState appstater
}

// New creates a new HTTP server instance
func New(logger *slog.Logger, appState appstater, port string) *Server {
	if port == "" {
		port = defaultPort
	}

	return &Server{
		listener: newListener(logger, "http-server", port),
		appState: appState,
	}
}

var _ shutdown.Shutdowner = (*Server)(nil)

// Start starts listening and serves requests in a goroutine
func (s *Server) Start(ctx context.Context) error {
	return s.serve(ctx, s.Router())
}

// Router returns the probe routes.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/-/healthz", appstate.HandleHealthz(s.logger, s.appState))
	router.Get("/-/readyz", appstate.HandleReadyz(s.logger, s.appState))
	router.Get("/-/status", appstate.HandleStatus(s.logger, s.appState))

	return router
}
