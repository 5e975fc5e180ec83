package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp-period-closing/internal/api_gateway"
	"github.com/erp-period-closing/internal/api_gateway/service"
	"github.com/erp-period-closing/internal/closing/components"
	"github.com/erp-period-closing/internal/config"
	"github.com/erp-period-closing/internal/logger"
	"github.com/erp-period-closing/internal/platform/messaging/producers"
	"github.com/erp-period-closing/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("closing_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Queued recalculation is optional; the synchronous endpoints work without Kafka
	var requester service.RecalculationRequester
	kafkaProducer, err := producers.NewRecalculationReqProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Warn("Kafka producer unavailable, queued recalculation disabled", "error", err)
	}

	// Initialize repositories
	deps := components.NewStoreDependencies(log, postgresDB, mongoDB)

	// Initialize services
	closingService := components.CreateClosingService(deps, logger.ForComponent(log, "closing_service"), cfg)
	queryService := service.NewTrialBalanceQueryService(log, deps.PeriodRepo, deps.TrialBalanceRepo, deps.Registry, deps.RunRepo)
	if kafkaProducer != nil {
		requester = service.NewRecalculationService(log, deps.PeriodRepo, kafkaProducer)
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Closing:       closingService,
		TrialBalance:  queryService,
		Recalculation: requester,
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the pools go away
	if err = server.Stop(shutdownCtx, cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if kafkaProducer != nil {
		if err = kafkaProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
