package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/harriteja/reqguard/pkg/logger"
	"github.com/harriteja/reqguard/pkg/types"
)

// Server serves a handler that can be replaced while running, which is how
// rule-file reloads take effect without dropping connections
type Server struct {
	server  *http.Server
	handler atomic.Value
	logger  types.Logger
}

// ServerOptions represents server configuration options
type ServerOptions struct {
	// Address to listen on
	Address string
	// ReadTimeout for requests
	ReadTimeout time.Duration
	// WriteTimeout for responses
	WriteTimeout time.Duration
	// IdleTimeout for keep-alive connections
	IdleTimeout time.Duration
	// Logger instance
	Logger types.Logger
}

type handlerBox struct {
	h http.Handler
}

// NewServer creates a Server serving handler
func NewServer(handler http.Handler, opts ServerOptions) *Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 120 * time.Second
	}

	s := &Server{logger: logger.OrDefault(opts.Logger)}
	s.SetHandler(handler)
	s.server = &http.Server{
		Addr:         opts.Address,
		Handler:      s,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

// SetHandler atomically replaces the served handler. Requests already in
// flight finish on the previous one.
func (s *Server) SetHandler(h http.Handler) {
	if h == nil {
		h = http.NotFoundHandler()
	}
	s.handler.Store(handlerBox{h})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.Load().(handlerBox).h.ServeHTTP(w, r)
}

// Start listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", types.LogField{Key: "address", Value: s.server.Addr})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "failed to serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shut down server")
	}
	return nil
}
