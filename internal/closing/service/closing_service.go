package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClosingServiceImpl struct {
	txExecutor     TxExecutor
	validator      PeriodValidator
	aggregator     BalanceAggregator
	periodManager  PeriodManager
	snapshotWriter SnapshotWriter
	outboxManager  OutboxManager
	runRecorder    RunRecorder
	logger         *slog.Logger
}

func NewClosingService(
	txExecutor TxExecutor,
	validator PeriodValidator,
	aggregator BalanceAggregator,
	periodManager PeriodManager,
	snapshotWriter SnapshotWriter,
	outboxManager OutboxManager,
	runRecorder RunRecorder,
	logger *slog.Logger,
) ClosingService {
	return &ClosingServiceImpl{
		txExecutor:     txExecutor,
		validator:      validator,
		aggregator:     aggregator,
		periodManager:  periodManager,
		snapshotWriter: snapshotWriter,
		outboxManager:  outboxManager,
		runRecorder:    runRecorder,
		logger:         logger,
	}
}

// ValidateClosing reports whether the period could be closed now
func (s *ClosingServiceImpl) ValidateClosing(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error) {
	return s.validator.Validate(ctx, periodID)
}

// ClosePeriod validates, snapshots and closes the period in one transaction.
// Nothing is written unless every step succeeds.
func (s *ClosingServiceImpl) ClosePeriod(ctx context.Context, cmd *ClosePeriodCommand) (*CloseResult, error) {
	logger := s.loggerFor(cmd.CorrelationID, cmd.PeriodID)
	logger.Info("Closing period", "auto_create_next", cmd.AutoCreateNext, "closed_by", cmd.ClosedBy)

	run := closing.NewCloseRun(cmd.PeriodID, shared.RunActionClose, cmd.ClosedBy, cmd.CorrelationID)
	var result *CloseResult

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		// 1. Serialize closers of this period
		if err := s.periodManager.AcquireCloseLock(ctx, tx, cmd.PeriodID); err != nil {
			return err
		}

		// 2. Lock the period row
		p, err := s.periodManager.LockPeriod(ctx, tx, cmd.PeriodID)
		if err != nil {
			return err
		}
		run.PeriodCode = p.Code
		if p.IsClosed {
			return period.ErrPeriodAlreadyClosed{PeriodID: p.ID, Code: p.Code}
		}

		// 3. Opening balances must come from a closed predecessor
		if err = s.periodManager.RequirePreviousClosed(ctx, tx, p); err != nil {
			return err
		}

		// 4. Validate before any write
		report, err := s.validator.Check(ctx, p)
		if err != nil {
			return err
		}
		run.Report = report
		if !report.Success {
			return closing.ErrPeriodNotReady{Report: report}
		}

		// 5. Compute and replace the trial balance
		now := time.Now().UTC()
		snapshot, err := s.aggregator.BuildSnapshot(ctx, p, shared.SnapshotSourceClose, now)
		if err != nil {
			return err
		}
		if err = s.snapshotWriter.WriteSnapshot(ctx, tx, snapshot); err != nil {
			return err
		}

		// 6. Flip the period state
		if err = s.periodManager.MarkClosed(ctx, tx, p, cmd.ClosedBy, now); err != nil {
			return err
		}

		result = &CloseResult{Run: run, Period: p, Totals: snapshot.Totals()}

		// 7. Open the next period
		if cmd.AutoCreateNext {
			next, created, err := s.periodManager.EnsureSuccessor(ctx, tx, p)
			if err != nil {
				return err
			}
			result.Successor = next
			result.SuccessorCreated = created
			run.SuccessorPeriodID = &next.ID
			run.SuccessorCode = next.Code
		}

		// 8. Publish through the outbox
		run.RowCount = len(snapshot.Rows)
		run.EndingDebit = result.Totals.EndingDebit
		run.EndingCredit = result.Totals.EndingCredit
		run.Succeed()
		return s.outboxManager.CreateOutboxEntry(ctx, tx, run)
	})
	if err != nil {
		return nil, s.handleFailure(ctx, logger, run, err)
	}

	logger.Info("Period closed",
		"period_code", run.PeriodCode,
		"rows", run.RowCount,
		"successor_code", run.SuccessorCode,
		"successor_created", result.SuccessorCreated,
	)
	return result, nil
}

// RecalculateTrialBalance rebuilds the snapshot of an open or closed period without touching its state
func (s *ClosingServiceImpl) RecalculateTrialBalance(ctx context.Context, cmd *RecalculateCommand) (*CloseResult, error) {
	logger := s.loggerFor(cmd.CorrelationID, cmd.PeriodID)
	logger.Info("Recalculating trial balance", "requested_by", cmd.RequestedBy)

	run := closing.NewCloseRun(cmd.PeriodID, shared.RunActionRecalculate, cmd.RequestedBy, cmd.CorrelationID)
	var result *CloseResult

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.periodManager.AcquireCloseLock(ctx, tx, cmd.PeriodID); err != nil {
			return err
		}
		p, err := s.periodManager.LockPeriod(ctx, tx, cmd.PeriodID)
		if err != nil {
			return err
		}
		run.PeriodCode = p.Code

		snapshot, err := s.aggregator.BuildSnapshot(ctx, p, shared.SnapshotSourceRecalculate, time.Now().UTC())
		if err != nil {
			return err
		}
		if err = s.snapshotWriter.WriteSnapshot(ctx, tx, snapshot); err != nil {
			return err
		}

		result = &CloseResult{Run: run, Period: p, Totals: snapshot.Totals()}
		run.RowCount = len(snapshot.Rows)
		run.EndingDebit = result.Totals.EndingDebit
		run.EndingCredit = result.Totals.EndingCredit
		run.Succeed()
		return s.outboxManager.CreateOutboxEntry(ctx, tx, run)
	})
	if err != nil {
		return nil, s.handleFailure(ctx, logger, run, err)
	}

	logger.Info("Trial balance recalculated", "period_code", run.PeriodCode, "rows", run.RowCount)
	return result, nil
}

// ReopenPeriod moves a closed period back to open. The trial balance is kept.
func (s *ClosingServiceImpl) ReopenPeriod(ctx context.Context, cmd *ReopenCommand) (*CloseResult, error) {
	logger := s.loggerFor(cmd.CorrelationID, cmd.PeriodID)
	logger.Info("Reopening period", "reopen_by", cmd.ReopenBy)

	run := closing.NewCloseRun(cmd.PeriodID, shared.RunActionReopen, cmd.ReopenBy, cmd.CorrelationID)
	var result *CloseResult

	err := s.txExecutor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.periodManager.AcquireCloseLock(ctx, tx, cmd.PeriodID); err != nil {
			return err
		}
		p, err := s.periodManager.LockPeriod(ctx, tx, cmd.PeriodID)
		if err != nil {
			return err
		}
		run.PeriodCode = p.Code

		if err = s.periodManager.Reopen(ctx, tx, p, cmd.ReopenBy, cmd.Reason, time.Now().UTC()); err != nil {
			return err
		}

		result = &CloseResult{Run: run, Period: p}
		run.Reason = cmd.Reason
		run.Succeed()
		return s.outboxManager.CreateOutboxEntry(ctx, tx, run)
	})
	if err != nil {
		return nil, s.handleFailure(ctx, logger, run, err)
	}

	logger.Info("Period reopened", "period_code", run.PeriodCode)
	return result, nil
}

// handleFailure records the run outside the rolled-back transaction and
// wraps infrastructure errors in ErrClosingFailed. Recording problems are
// logged and never replace the original error.
func (s *ClosingServiceImpl) handleFailure(ctx context.Context, logger *slog.Logger, run *closing.CloseRun, err error) error {
	if isRejection(err) {
		logger.Warn("Closing operation rejected", "action", run.Action, "error", err)
		run.Reject(err.Error())
	} else {
		logger.Error("Closing operation failed, transaction rolled back", "action", run.Action, "error", err)
		run.Fail(err.Error())
		err = closing.ErrClosingFailed{PeriodID: run.PeriodID, Cause: err}
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recordErr := s.runRecorder.RecordRun(recordCtx, run); recordErr != nil {
		logger.Error("Failed to record close run", "run_id", run.RunID.String(), "error", recordErr)
	}
	return err
}

func (s *ClosingServiceImpl) loggerFor(correlationID string, periodID uuid.UUID) *slog.Logger {
	logger := s.logger.With("period_id", periodID.String())
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}
	return logger
}

// isRejection separates errors the caller can act on from infrastructure failures
func isRejection(err error) bool {
	switch {
	case errors.Is(err, period.ErrPeriodNotFound{}),
		errors.Is(err, period.ErrPeriodAlreadyClosed{}),
		errors.As(err, &period.ErrPeriodNotClosed{}),
		errors.As(err, &period.ErrLaterPeriodClosed{}),
		errors.As(err, &period.ErrPreviousPeriodOpen{}),
		errors.As(err, &period.ErrPeriodOverlap{}),
		errors.Is(err, period.ErrEmptyReopenReason),
		errors.Is(err, closing.ErrPeriodNotReady{}),
		errors.Is(err, closing.ErrPeriodCloseInProgress{}),
		errors.Is(err, closing.ErrImbalanceDetected{}),
		errors.Is(err, coa.ErrAccountNotPosting{}),
		errors.Is(err, coa.ErrAccountNotFound{}),
		errors.As(err, &coa.ErrInvalidChart{}):
		return true
	}
	return false
}
