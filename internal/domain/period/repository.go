package period

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines accounting period persistence operations
type Repository interface {
	Create(ctx context.Context, p *Period) error
	GetByID(ctx context.Context, id uuid.UUID) (*Period, error)
	GetByCode(ctx context.Context, code string) (*Period, error)

	// GetPrevious returns the period immediately preceding p chronologically,
	// or nil when p is the first period.
	GetPrevious(ctx context.Context, p *Period) (*Period, error)
	ListByFiscalYear(ctx context.Context, fiscalYear int) ([]*Period, error)
	ListAfter(ctx context.Context, date time.Time) ([]*Period, error)
	FindOverlapping(ctx context.Context, start, end time.Time) ([]*Period, error)

	// LockForUpdate acquires a row lock on the period for the enclosing transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Period, error)

	// MarkClosed persists the closed state only if the period is still open
	MarkClosed(ctx context.Context, p *Period) error
	MarkReopened(ctx context.Context, p *Period) error
	WithTx(tx pgx.Tx) Repository
}

// ErrPeriodNotFound indicates a period id that does not resolve
type ErrPeriodNotFound struct {
	PeriodID uuid.UUID
}

func (e ErrPeriodNotFound) Error() string {
	return "accounting period not found: " + e.PeriodID.String()
}

// Is matches any ErrPeriodNotFound when the target carries no id
func (e ErrPeriodNotFound) Is(target error) bool {
	t, ok := target.(ErrPeriodNotFound)
	if !ok {
		return false
	}
	return t.PeriodID == uuid.Nil || t.PeriodID == e.PeriodID
}

// ErrPeriodAlreadyClosed indicates a mutation attempted on a closed period
type ErrPeriodAlreadyClosed struct {
	PeriodID uuid.UUID
	Code     string
}

func (e ErrPeriodAlreadyClosed) Error() string {
	if e.Code != "" {
		return "accounting period already closed: " + e.Code
	}
	return "accounting period already closed: " + e.PeriodID.String()
}

func (e ErrPeriodAlreadyClosed) Is(target error) bool {
	t, ok := target.(ErrPeriodAlreadyClosed)
	if !ok {
		return false
	}
	return t.PeriodID == uuid.Nil || t.PeriodID == e.PeriodID
}

// ErrPeriodNotClosed indicates a reopen attempted on an open period
type ErrPeriodNotClosed struct {
	PeriodID uuid.UUID
}

func (e ErrPeriodNotClosed) Error() string {
	return "accounting period is not closed: " + e.PeriodID.String()
}

// ErrLaterPeriodClosed blocks a reopen that would break the carry-forward chain
type ErrLaterPeriodClosed struct {
	PeriodID  uuid.UUID
	LaterCode string
}

func (e ErrLaterPeriodClosed) Error() string {
	return "cannot reopen period " + e.PeriodID.String() + ": later period " + e.LaterCode + " is closed"
}

// ErrPreviousPeriodOpen blocks a close whose opening balances are not final yet
type ErrPreviousPeriodOpen struct {
	PeriodID     uuid.UUID
	PreviousCode string
}

func (e ErrPreviousPeriodOpen) Error() string {
	return "cannot close period " + e.PeriodID.String() + ": previous period " + e.PreviousCode + " is still open"
}

// ErrPeriodOverlap indicates a new period collides with an existing range
type ErrPeriodOverlap struct {
	Code string
}

func (e ErrPeriodOverlap) Error() string {
	return "accounting period overlaps existing period: " + e.Code
}
