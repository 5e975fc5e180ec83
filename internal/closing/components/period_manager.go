package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SuccessorConfig controls how the period after a closed one is derived
type SuccessorConfig struct {
	Cadence              shared.Cadence
	FiscalYearStartMonth int
}

// PeriodManagerImpl implements the PeriodManager interface
type PeriodManagerImpl struct {
	periodRepo period.Repository
	lock       closing.PeriodLock
	successor  SuccessorConfig
	logger     *slog.Logger
}

// NewPeriodManager creates a new PeriodManagerImpl
func NewPeriodManager(periodRepo period.Repository, lock closing.PeriodLock, successor SuccessorConfig, logger *slog.Logger) service.PeriodManager {
	return &PeriodManagerImpl{
		periodRepo: periodRepo,
		lock:       lock,
		successor:  successor,
		logger:     logger,
	}
}

// AcquireCloseLock fails fast with ErrPeriodCloseInProgress when another
// transaction is closing or recalculating the same period
func (m *PeriodManagerImpl) AcquireCloseLock(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) error {
	acquired, err := m.lock.WithTx(tx).TryLock(ctx, periodID)
	if err != nil {
		return err
	}
	if !acquired {
		m.logger.Warn("Period close lock is held by another transaction", "period_id", periodID.String())
		return closing.ErrPeriodCloseInProgress{PeriodID: periodID}
	}
	return nil
}

// LockPeriod row-locks the period for the rest of the transaction
func (m *PeriodManagerImpl) LockPeriod(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) (*period.Period, error) {
	p, err := m.periodRepo.WithTx(tx).LockForUpdate(ctx, periodID)
	if err != nil {
		if errors.Is(err, period.ErrPeriodNotFound{PeriodID: periodID}) {
			m.logger.Warn("Period not found for lock", "period_id", periodID.String())
			return nil, err
		}
		m.logger.Error("Failed to lock period", "period_id", periodID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock period %s: %w", periodID.String(), err)
	}
	m.logger.Info("Period locked", "period_id", p.ID.String(), "code", p.Code, "closed", p.IsClosed, "ver", p.Version)
	return p, nil
}

// RequirePreviousClosed rejects p while the period before it is still open,
// since its closing snapshot is where p's opening balances come from
func (m *PeriodManagerImpl) RequirePreviousClosed(ctx context.Context, tx pgx.Tx, p *period.Period) error {
	prev, err := m.periodRepo.WithTx(tx).GetPrevious(ctx, p)
	if err != nil {
		m.logger.Error("Failed to load previous period", "period_id", p.ID.String(), "error", err)
		return err
	}
	if prev != nil && !prev.IsClosed {
		m.logger.Warn("Close blocked by open previous period", "period_id", p.ID.String(), "previous_code", prev.Code)
		return period.ErrPreviousPeriodOpen{PeriodID: p.ID, PreviousCode: prev.Code}
	}
	return nil
}

// MarkClosed flips the period to closed in memory and persists it
func (m *PeriodManagerImpl) MarkClosed(ctx context.Context, tx pgx.Tx, p *period.Period, closedBy string, at time.Time) error {
	if err := p.Close(closedBy, at); err != nil {
		return err
	}
	if err := m.periodRepo.WithTx(tx).MarkClosed(ctx, p); err != nil {
		m.logger.Error("Failed to persist closed period", "period_id", p.ID.String(), "error", err)
		return err
	}
	m.logger.Info("Period marked closed", "period_id", p.ID.String(), "code", p.Code, "closed_by", closedBy)
	return nil
}

// Reopen moves a closed period back to open. It refuses when any later
// period is closed, since that period's opening balances depend on this one.
func (m *PeriodManagerImpl) Reopen(ctx context.Context, tx pgx.Tx, p *period.Period, reopenBy, reason string, at time.Time) error {
	repoTx := m.periodRepo.WithTx(tx)

	if !p.IsClosed {
		return period.ErrPeriodNotClosed{PeriodID: p.ID}
	}

	later, err := repoTx.ListAfter(ctx, p.EndDate)
	if err != nil {
		return err
	}
	for _, lp := range later {
		if lp.IsClosed {
			m.logger.Warn("Reopen blocked by later closed period", "period_id", p.ID.String(), "later_code", lp.Code)
			return period.ErrLaterPeriodClosed{PeriodID: p.ID, LaterCode: lp.Code}
		}
	}

	if err := p.Reopen(reopenBy, reason, at); err != nil {
		return err
	}
	if err := repoTx.MarkReopened(ctx, p); err != nil {
		m.logger.Error("Failed to persist reopened period", "period_id", p.ID.String(), "error", err)
		return err
	}
	m.logger.Info("Period reopened", "period_id", p.ID.String(), "code", p.Code, "reopen_by", reopenBy)
	return nil
}

// EnsureSuccessor returns the period following p, creating it open when no
// period carries its code or overlaps its range.
func (m *PeriodManagerImpl) EnsureSuccessor(ctx context.Context, tx pgx.Tx, p *period.Period) (*period.Period, bool, error) {
	repoTx := m.periodRepo.WithTx(tx)

	next, err := p.Successor(m.successor.Cadence, m.successor.FiscalYearStartMonth)
	if err != nil {
		return nil, false, err
	}

	existing, err := repoTx.GetByCode(ctx, next.Code)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		m.logger.Info("Successor period already exists", "period_code", p.Code, "successor_code", existing.Code)
		return existing, false, nil
	}

	overlapping, err := repoTx.FindOverlapping(ctx, next.StartDate, next.EndDate)
	if err != nil {
		return nil, false, err
	}
	if len(overlapping) > 0 {
		m.logger.Warn("Derived successor overlaps an existing period, keeping the existing one",
			"successor_code", next.Code,
			"existing_code", overlapping[0].Code)
		return overlapping[0], false, nil
	}

	if err := repoTx.Create(ctx, next); err != nil {
		m.logger.Error("Failed to create successor period", "successor_code", next.Code, "error", err)
		return nil, false, err
	}
	m.logger.Info("Successor period created", "period_code", p.Code, "successor_code", next.Code, "successor_id", next.ID.String())
	return next, true, nil
}
