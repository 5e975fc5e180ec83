package closing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PeriodLock is a per-period mutual exclusion scoped to one transaction
type PeriodLock interface {
	// TryLock reports false without blocking when another transaction holds the lock
	TryLock(ctx context.Context, periodID uuid.UUID) (bool, error)
	WithTx(tx pgx.Tx) PeriodLock
}
