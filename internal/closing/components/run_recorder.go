package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
)

type RunRecorderImpl struct {
	runRepo closing.RunRepository
	logger  *slog.Logger
}

func NewRunRecorder(runRepo closing.RunRepository, logger *slog.Logger) service.RunRecorder {
	return &RunRecorderImpl{
		runRepo: runRepo,
		logger:  logger,
	}
}

// RecordRun writes a run that never reached the outbox. A stored run with the
// same id and status is left untouched.
func (r *RunRecorderImpl) RecordRun(ctx context.Context, run *closing.CloseRun) error {
	logger := r.logger
	if run.CorrelationID != "" {
		logger = r.logger.With("correlation_id", run.CorrelationID)
	}

	logger.Info("Recording close run", "run_id", run.RunID.String(), "action", run.Action, "status", run.Status, "reason", run.Reason)

	existing, err := r.runRepo.GetByRunID(ctx, run.RunID)
	if err != nil && !errors.As(err, &closing.ErrRunNotFound{}) {
		logger.Error("Failed to look up existing close run", "run_id", run.RunID.String(), "error", err)
	}
	if existing != nil && existing.Status == run.Status {
		logger.Info("Close run already recorded", "run_id", run.RunID.String(), "status", run.Status)
		return nil
	}

	if err := r.runRepo.Record(ctx, run); err != nil {
		logger.Error("Failed to record close run", "run_id", run.RunID.String(), "error", err)
		return err
	}
	return nil
}
