package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Server wraps http.Server with middleware.
type Server struct {
	server          *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration

	mu   sync.Mutex
	addr net.Addr
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithMiddleware wraps the handler; the first middleware runs outermost.
func WithMiddleware(middlewares ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		h := s.server.Handler
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		s.server.Handler = h
	}
}

// WithShutdownHook runs fn when shutdown starts. http.Server.Shutdown does not wait
// for hijacked connections, so the alert feed closes its WebSockets here.
func WithShutdownHook(fn func()) ServerOption {
	return func(s *Server) {
		s.server.RegisterOnShutdown(fn)
	}
}

// NewServer builds HTTP server with provided handler.
func NewServer(addr string, handler http.Handler, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:          logger,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the bound address once Run is listening, nil before.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin http server", zap.String("addr", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
