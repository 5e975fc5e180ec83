package components

import (
	"log/slog"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/config"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/outbox"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
)

// Dependencies are the stores the closing service is assembled from
type Dependencies struct {
	TxExecutor       service.TxExecutor
	PeriodRepo       period.Repository
	Registry         coa.Registry
	Store            ledger.Store
	TrialBalanceRepo trialbalance.Repository
	OutboxRepo       outbox.Repository
	RunRepo          closing.RunRepository
	Lock             closing.PeriodLock
	DraftCounters    []closing.DraftCounter
}

// CreateClosingService creates the base closing service from its components
func CreateClosingService(deps Dependencies, logger *slog.Logger, cfg *config.Config) service.ClosingService {
	tolerance := closing.NewTolerance(cfg.Closing.BalanceTolerance, cfg.Closing.CurrencyTolerances)

	validator := NewPeriodValidator(
		deps.PeriodRepo,
		deps.Store,
		deps.DraftCounters,
		tolerance,
		cfg.Closing.BaseCurrency,
		logger.With("component", "period_validator"),
	)
	aggregator := NewBalanceAggregator(
		deps.PeriodRepo,
		deps.Registry,
		deps.Store,
		deps.TrialBalanceRepo,
		AggregatorConfig{
			Currency:             cfg.Closing.BaseCurrency,
			Tolerance:            tolerance,
			FiscalYearStartMonth: cfg.Closing.FiscalYearStartMonth,
		},
		logger.With("component", "balance_aggregator"),
	)
	periodManager := NewPeriodManager(
		deps.PeriodRepo,
		deps.Lock,
		SuccessorConfig{
			Cadence:              shared.Cadence(cfg.Closing.SuccessorCadence),
			FiscalYearStartMonth: cfg.Closing.FiscalYearStartMonth,
		},
		logger.With("component", "period_manager"),
	)
	snapshotWriter := NewSnapshotWriter(deps.TrialBalanceRepo, logger)
	outboxManager := NewOutboxManager(deps.OutboxRepo, logger)
	runRecorder := NewRunRecorder(deps.RunRepo, logger)

	return service.NewClosingService(
		deps.TxExecutor,
		validator,
		aggregator,
		periodManager,
		snapshotWriter,
		outboxManager,
		runRecorder,
		logger,
	)
}

// CreateWorkerClosingService wraps the base service with the recalculation
// worker pool, falling back to the base service when the pool cannot be built.
func CreateWorkerClosingService(deps Dependencies, logger *slog.Logger, cfg *config.Config) service.ClosingService {
	baseService := CreateClosingService(deps, logger, cfg)

	workerPoolService, err := service.NewWorkerPoolClosingService(
		baseService,
		service.WorkerPoolConfig{
			Size:    cfg.WorkerPool.Size,
			Timeout: cfg.Closing.RecalculationTimeout,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool closing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
