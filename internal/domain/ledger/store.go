package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the read contract over posted ledger lines. Date bounds are
// inclusive calendar dates and only POSTED lines are summed.
type Store interface {
	SumPostedAmounts(ctx context.Context, accountID uuid.UUID, start, end time.Time) (decimal.Decimal, decimal.Decimal, error)
	SumPostedByAccount(ctx context.Context, start, end time.Time) (map[uuid.UUID]Movement, error)
	SumPostedTotals(ctx context.Context, start, end time.Time) (Movement, error)

	// SumPostedBefore sums every posted line dated strictly before date
	SumPostedBefore(ctx context.Context, date time.Time) (map[uuid.UUID]Movement, error)
}
