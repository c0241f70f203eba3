package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports process liveness and component readiness.
type HealthChecker interface {
	Liveness() bool
	Readiness(ctx context.Context) (bool, map[string]string)
}

// Config holds the listen ports. Port 0 picks a free port.
type Config struct {
	HealthPort  int
	MetricsPort int
}

// Validate checks the port range and that both servers do not share a port.
func (c Config) Validate() error {
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("invalid health port %d", c.HealthPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.MetricsPort)
	}
	if c.HealthPort != 0 && c.HealthPort == c.MetricsPort {
		return fmt.Errorf("health and metrics ports must differ, both are %d", c.HealthPort)
	}
	return nil
}

// Server represents the HTTP server for health and metrics.
type Server struct {
	healthServer  *http.Server
	metricsServer *http.Server
	healthAddr    net.Addr
	metricsAddr   net.Addr
	logger        *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	config Config,
	healthChecker HealthChecker,
	registry *prometheus.Registry,
	logger *slog.Logger,
) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health/live", LivenessHandler(healthChecker, logger))
	healthMux.HandleFunc("/health/ready", ReadinessHandler(healthChecker, logger))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		healthServer:  newHTTPServer(config.HealthPort, healthMux),
		metricsServer: newHTTPServer(config.MetricsPort, metricsMux),
		logger:        logger,
	}, nil
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Start binds both listeners and serves them in the background. Bind
// errors are returned synchronously.
func (s *Server) Start() error {
	healthLn, err := net.Listen("tcp", s.healthServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on health address %s: %w", s.healthServer.Addr, err)
	}
	metricsLn, err := net.Listen("tcp", s.metricsServer.Addr)
	if err != nil {
		healthLn.Close()
		return fmt.Errorf("failed to listen on metrics address %s: %w", s.metricsServer.Addr, err)
	}
	s.healthAddr = healthLn.Addr()
	s.metricsAddr = metricsLn.Addr()

	s.serve("health", s.healthServer, healthLn)
	s.serve("metrics", s.metricsServer, metricsLn)
	return nil
}

func (s *Server) serve(name string, server *http.Server, ln net.Listener) {
	go func() {
		s.logger.Info("starting "+name+" server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(name+" server failed", "error", err)
		}
	}()
}

// HealthAddr returns the bound health address after Start.
func (s *Server) HealthAddr() net.Addr {
	return s.healthAddr
}

// MetricsAddr returns the bound metrics address after Start.
func (s *Server) MetricsAddr() net.Addr {
	return s.metricsAddr
}

// Shutdown gracefully shuts down both servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP servers")

	errChan := make(chan error, 2)
	go func() {
		errChan <- s.healthServer.Shutdown(ctx)
	}()
	go func() {
		errChan <- s.metricsServer.Shutdown(ctx)
	}()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errChan; err != nil {
			s.logger.Error("error shutting down server", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
