package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stores the run in the outbox so it is published only if tx commits
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, run *closing.CloseRun) error {
	logger := m.logger
	if run.CorrelationID != "" {
		logger = m.logger.With("correlation_id", run.CorrelationID)
	}

	outboxRepoTx := m.outboxRepo.WithTx(tx)

	outboxMessage, err := outbox.NewMessage(run)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"run_id", run.RunID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for run %s: %w", run.RunID.String(), err)
	}

	if err = outboxRepoTx.Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"run_id", run.RunID.String(),
			"period_id", run.PeriodID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for run %s: %w", run.RunID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"run_id", run.RunID.String(),
		"event_type", outboxMessage.EventType,
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
