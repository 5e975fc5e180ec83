package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/jackc/pgx/v5"
)

type SnapshotWriterImpl struct {
	tbRepo trialbalance.Repository
	logger *slog.Logger
}

func NewSnapshotWriter(tbRepo trialbalance.Repository, logger *slog.Logger) service.SnapshotWriter {
	return &SnapshotWriterImpl{
		tbRepo: tbRepo,
		logger: logger,
	}
}

// WriteSnapshot replaces the period's trial balance within tx
func (w *SnapshotWriterImpl) WriteSnapshot(ctx context.Context, tx pgx.Tx, snapshot *trialbalance.Snapshot) error {
	if err := w.tbRepo.WithTx(tx).ReplaceSnapshot(ctx, snapshot); err != nil {
		w.logger.Error("Failed to write trial balance snapshot",
			"period_id", snapshot.PeriodID.String(),
			"rows", len(snapshot.Rows),
			"error", err,
		)
		return fmt.Errorf("failed to write trial balance for period %s: %w", snapshot.PeriodID.String(), err)
	}
	w.logger.Info("Trial balance snapshot written",
		"period_id", snapshot.PeriodID.String(),
		"source", snapshot.Source,
		"rows", len(snapshot.Rows),
	)
	return nil
}
