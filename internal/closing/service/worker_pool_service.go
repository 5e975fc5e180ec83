package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolClosingService implements the ClosingService interface. Recalculations
// run on a bounded ants pool; the other operations go straight to the base service.
type WorkerPoolClosingService struct {
	baseService ClosingService
	pool        *ants.Pool
	timeout     time.Duration
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan recalculationResult
}

type WorkerPoolConfig struct {
	Size int
	// Timeout bounds a single recalculation; zero means no limit
	Timeout time.Duration
}

type recalculationResult struct {
	result *CloseResult
	err    error
}

func NewWorkerPoolClosingService(
	baseService ClosingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolClosingService, error) {
	pool, err := ants.NewPool(config.Size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}

	return &WorkerPoolClosingService{
		baseService: baseService,
		pool:        pool,
		timeout:     config.Timeout,
		logger:      logger,
		results:     make(map[string]chan recalculationResult),
	}, nil
}

func (s *WorkerPoolClosingService) ValidateClosing(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error) {
	return s.baseService.ValidateClosing(ctx, periodID)
}

func (s *WorkerPoolClosingService) ClosePeriod(ctx context.Context, cmd *ClosePeriodCommand) (*CloseResult, error) {
	return s.baseService.ClosePeriod(ctx, cmd)
}

func (s *WorkerPoolClosingService) ReopenPeriod(ctx context.Context, cmd *ReopenCommand) (*CloseResult, error) {
	return s.baseService.ReopenPeriod(ctx, cmd)
}

// RecalculateTrialBalance submits the recalculation to the worker pool and waits for it.
// The job's context carries the configured timeout, so an overrun is rolled back.
func (s *WorkerPoolClosingService) RecalculateTrialBalance(ctx context.Context, cmd *RecalculateCommand) (*CloseResult, error) {
	logger := s.logger
	if cmd.CorrelationID != "" {
		logger = s.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Submitting recalculation to worker pool", "period_id", cmd.PeriodID.String())

	resultChan := make(chan recalculationResult, 1)

	jobID := uuid.NewString()
	s.mu.Lock()
	s.results[jobID] = resultChan
	s.mu.Unlock()

	// Create a copy of the command to avoid data races
	cmdCopy := *cmd

	err := s.pool.Submit(func() {
		jobCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.timeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, s.timeout)
		}
		defer cancel()

		result, err := s.baseService.RecalculateTrialBalance(jobCtx, &cmdCopy)

		s.mu.Lock()
		delete(s.results, jobID)
		s.mu.Unlock()

		resultChan <- recalculationResult{result: result, err: err}
		close(resultChan)
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, jobID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit recalculation to worker pool",
			"period_id", cmd.PeriodID.String(),
			"error", err,
		)
		return nil, err
	}

	res := <-resultChan
	return res.result, res.err
}

// Pending returns the number of recalculations submitted and not yet finished
func (s *WorkerPoolClosingService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolClosingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolClosingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolClosingService) Capacity() int {
	return s.pool.Cap()
}
