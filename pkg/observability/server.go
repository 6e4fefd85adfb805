package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server exposes the bus's metrics and health endpoints over HTTP. The health
// checker is a constructor dependency so embedders can run several runtimes
// in one process, each with its own checker and port.
type Server struct {
	httpServer   *http.Server
	addr         string
	checker      *HealthChecker
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHTTPTimeouts overrides the read and write timeouts.
func WithHTTPTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// NewServer creates an observability server bound to the given port, serving
// the given checker's health state. A nil checker falls back to the global
// checker.
func NewServer(port int, checker *HealthChecker, opts ...ServerOption) *Server {
	s := &Server{
		addr:         fmt.Sprintf(":%d", port),
		checker:      checker,
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		idleTimeout:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// routes assembles the endpoint mux.
func (s *Server) routes() *http.ServeMux {
	checker := s.checker
	if checker == nil {
		checker = GetHealthChecker()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", checker.ReadinessHandler())
	mux.Handle("/metrics", MetricsHandler())
	return mux
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
