package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/outbox"
	"github.com/erp-period-closing/internal/domain/shared"
)

// RunPublisher moves a committed outbox message into the close-run audit log
type RunPublisher interface {
	PublishRun(ctx context.Context, message *outbox.Message) error
}

// CloseRunPublisher implements RunPublisher on top of the run repository
type CloseRunPublisher struct {
	outboxRepo outbox.Repository
	runRepo    closing.RunRepository
	logger     *slog.Logger
}

// NewCloseRunPublisher creates a new publisher
func NewCloseRunPublisher(
	outboxRepo outbox.Repository,
	runRepo closing.RunRepository,
	logger *slog.Logger,
) RunPublisher {
	return &CloseRunPublisher{
		outboxRepo: outboxRepo,
		runRepo:    runRepo,
		logger:     logger,
	}
}

// PublishRun records the run carried by message and marks the message processed.
// Record is an upsert, so redelivery after a failed status update is harmless.
func (p *CloseRunPublisher) PublishRun(ctx context.Context, message *outbox.Message) error {
	run, err := message.GetCloseRun()
	if err != nil {
		p.logger.Error("Failed to unmarshal close run from outbox payload",
			"outbox_id", message.ID, "run_id", message.RunID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if run.CorrelationID != "" {
		logger = p.logger.With("correlation_id", run.CorrelationID)
	}

	if err := p.runRepo.Record(ctx, run); err != nil {
		logger.Error("Failed to record close run in audit log", "run_id", run.RunID.String(), "error", err)
		return fmt.Errorf("failed to record close run %s: %w", run.RunID.String(), err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "run_id", run.RunID.String(), "error", err,
		)
		return fmt.Errorf("close run %s recorded, but failed to mark outbox %d as PROCESSED: %w", run.RunID.String(), message.ID, err)
	}

	logger.Info("Close run published to audit log",
		"outbox_id", message.ID,
		"run_id", run.RunID.String(),
		"event_type", message.EventType,
		"period_code", run.PeriodCode,
	)
	return nil
}
