package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erp-period-closing/internal/api_gateway/handler"
	"github.com/erp-period-closing/internal/api_gateway/service"
	closingservice "github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/config"
	"github.com/gin-gonic/gin"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// Services are the use cases the HTTP API exposes
type Services struct {
	Closing       closingservice.ClosingService
	TrialBalance  service.TrialBalanceQueryService
	Recalculation service.RecalculationRequester // nil disables ?async=true
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	periodHandler := handler.NewPeriodHandler(log, services.Closing, services.Recalculation)
	trialBalanceHandler := handler.NewTrialBalanceHandler(log, services.TrialBalance)

	setupRouter(log, httpRouter, periodHandler, trialBalanceHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most timeout for
// in-flight closes to finish
func (s *Server) Stop(ctx context.Context, timeout time.Duration) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
