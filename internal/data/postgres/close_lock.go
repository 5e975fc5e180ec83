package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CloseLock serializes closing work per period with a transaction-scoped
// advisory lock. The lock is released when the transaction ends.
type CloseLock struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ closing.PeriodLock = (*CloseLock)(nil)

// NewCloseLock creates an advisory lock bound to the pool
func NewCloseLock(logger *slog.Logger, db *persistence.PostgresDB) *CloseLock {
	return &CloseLock{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the lock to tx; TryLock is only meaningful inside a transaction
func (l *CloseLock) WithTx(tx pgx.Tx) closing.PeriodLock {
	return &CloseLock{
		querier: tx,
		logger:  l.logger,
	}
}

// TryLock reports whether this transaction now holds the period's lock
func (l *CloseLock) TryLock(ctx context.Context, periodID uuid.UUID) (bool, error) {
	var acquired bool
	err := l.querier.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, periodID.String()).Scan(&acquired)
	if err != nil {
		l.logger.Error("Failed to acquire period close lock", "period_id", periodID.String(), "error", err)
		return false, fmt.Errorf("failed to acquire period close lock: %w", err)
	}
	return acquired, nil
}
