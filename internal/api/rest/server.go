package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/infrastructure/config"
	"github.com/davidleathers/normative-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/normative-engine/internal/metrics"
	engine "github.com/davidleathers/normative-engine/internal/service/normative"
)

// Server is the HTTP front of the normative engine.
type Server struct {
	config     *config.Config
	httpServer *http.Server
	handler    *Handler
	logger     *zap.Logger
}

// NewServer wires the handler, middleware chain, and http.Server.
func NewServer(cfg *config.Config, logger *zap.Logger, service engine.Service, registry *metrics.Registry) *Server {
	handler := NewHandler(service, logger)
	tracer := telemetry.NewOpenTelemetryTracer("api.rest.server")
	limiter := newClientRateLimiter(
		float64(cfg.Security.RateLimit.RequestsPerSecond),
		cfg.Security.RateLimit.BurstSize,
	)

	// Tracing wraps logging so the access log can pick up the span ids.
	middlewares := []Middleware{
		requestIDMiddleware,
		tracingMiddleware(tracer),
		loggingMiddleware(logger.Named("api.http")),
		metricsMiddleware(registry),
		recoveryMiddleware(logger.Named("api.http")),
		rateLimitMiddleware(limiter),
		timeoutMiddleware(cfg.Server.WriteTimeout),
	}

	server := &Server{
		config:  cfg,
		handler: handler,
		logger:  logger.Named("api.server"),
	}

	var h http.Handler = server.setupRoutes()
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	server.httpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        h,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleHealth)

	mux.HandleFunc("POST /api/v1/frameworks", s.handler.handleRegisterFramework)
	mux.HandleFunc("GET /api/v1/frameworks", s.handler.handleListFrameworks)
	mux.HandleFunc("GET /api/v1/frameworks/{id}", s.handler.handleGetFramework)
	mux.HandleFunc("GET /api/v1/frameworks/{id}/hierarchy", s.handler.handleGetHierarchy)

	mux.HandleFunc("POST /api/v1/conflicts/detect", s.handler.handleDetectConflicts)

	mux.HandleFunc("POST /api/v1/assessments", s.handler.handleAssessCompliance)
	mux.HandleFunc("POST /api/v1/assessments/report", s.handler.handleComplianceReport)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	})
}

// Start runs the server until an error or a shutdown signal.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		zap.String("address", s.httpServer.Addr),
		zap.String("environment", s.config.Environment),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", zap.Error(err))
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}
