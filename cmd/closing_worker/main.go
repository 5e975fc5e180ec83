package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/erp-period-closing/internal/closing/components"
	"github.com/erp-period-closing/internal/closing/consumer"
	"github.com/erp-period-closing/internal/closing/outbox_poller"
	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/config"
	"github.com/erp-period-closing/internal/logger"
	"github.com/erp-period-closing/internal/platform/messaging/consumers"
	"github.com/erp-period-closing/internal/platform/messaging/producers"
	"github.com/erp-period-closing/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("closing_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Closing Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Initialize repositories
	deps := components.NewStoreDependencies(log, postgresDB, mongoDB)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	// Recalculations run on the bounded worker pool
	closingService := components.CreateWorkerClosingService(deps, logger.ForComponent(log, "closing_service"), cfg)

	recalculationHandler := consumer.NewRecalculationEventHandler(
		logger.ForComponent(log, "recalculation_consumer"),
		closingService,
		deadLetters,
	)

	// Initialize outbox poller
	runPublisher := outbox_poller.NewCloseRunPublisher(
		deps.OutboxRepo,
		deps.RunRepo,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		deps.OutboxRepo,
		runPublisher,
		logger.ForComponent(log, "outbox_poller"),
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.RecalculationTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.RecalculationTopic, cfg.Kafka.ConsumerGroup, recalculationHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Release the worker pool when the wrapper was built
	if wpService, ok := closingService.(*service.WorkerPoolClosingService); ok {
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Closing Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Closing Worker shutdown completed with errors")
	} else {
		log.Info("Closing Worker shutdown completed successfully")
	}
}
