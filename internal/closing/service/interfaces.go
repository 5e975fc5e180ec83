package service

import (
	"context"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClosingService defines the period closing operations exposed to the API, the worker and closectl.
type ClosingService interface {
	ValidateClosing(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error)
	ClosePeriod(ctx context.Context, cmd *ClosePeriodCommand) (*CloseResult, error)
	RecalculateTrialBalance(ctx context.Context, cmd *RecalculateCommand) (*CloseResult, error)
	ReopenPeriod(ctx context.Context, cmd *ReopenCommand) (*CloseResult, error)
}

// TxExecutor runs fn inside one database transaction
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PeriodValidator checks whether a period may be closed
type PeriodValidator interface {
	Validate(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error)
	// Check runs the readiness checks against an already loaded open period
	Check(ctx context.Context, p *period.Period) (*closing.ReadinessReport, error)
}

// BalanceAggregator derives trial balance rows from the ledger
type BalanceAggregator interface {
	Compute(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]trialbalance.BalanceRow, error)
	ComputeAccount(ctx context.Context, periodID, accountID uuid.UUID) (trialbalance.BalanceRow, error)
	// BuildSnapshot computes every posting account of p and orders the rows by account code
	BuildSnapshot(ctx context.Context, p *period.Period, source shared.SnapshotSource, at time.Time) (*trialbalance.Snapshot, error)
}

// PeriodManager handles the period row mutations of a closing transaction
type PeriodManager interface {
	AcquireCloseLock(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) error
	LockPeriod(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) (*period.Period, error)
	// RequirePreviousClosed rejects p while the period before it is open
	RequirePreviousClosed(ctx context.Context, tx pgx.Tx, p *period.Period) error
	MarkClosed(ctx context.Context, tx pgx.Tx, p *period.Period, closedBy string, at time.Time) error
	Reopen(ctx context.Context, tx pgx.Tx, p *period.Period, reopenBy, reason string, at time.Time) error
	// EnsureSuccessor creates the next open period unless one with its code exists
	EnsureSuccessor(ctx context.Context, tx pgx.Tx, p *period.Period) (*period.Period, bool, error)
}

// SnapshotWriter persists trial balance snapshots inside the closing transaction
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, tx pgx.Tx, snapshot *trialbalance.Snapshot) error
}

// OutboxManager handles the creation of outbox entries for committed close runs
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, run *closing.CloseRun) error
}

// RunRecorder writes rejected and failed runs straight to the audit log
type RunRecorder interface {
	RecordRun(ctx context.Context, run *closing.CloseRun) error
}

// ClosePeriodCommand closes one period
type ClosePeriodCommand struct {
	PeriodID       uuid.UUID
	AutoCreateNext bool
	ClosedBy       string
	CorrelationID  string
}

// RecalculateCommand rebuilds a period's trial balance without changing its state
type RecalculateCommand struct {
	PeriodID      uuid.UUID
	RequestedBy   string
	CorrelationID string
}

// ReopenCommand returns a closed period to the open state
type ReopenCommand struct {
	PeriodID      uuid.UUID
	ReopenBy      string
	Reason        string
	CorrelationID string
}

// CloseResult describes a committed closing operation
type CloseResult struct {
	Run       *closing.CloseRun
	Period    *period.Period
	Successor *period.Period
	// SuccessorCreated is false when the successor already existed
	SuccessorCreated bool
	Totals           trialbalance.Totals
}
