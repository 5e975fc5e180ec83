package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/google/uuid"
)

type PeriodValidatorImpl struct {
	periodRepo period.Repository
	store      ledger.Store
	counters   []closing.DraftCounter
	tolerance  closing.Tolerance
	currency   string
	logger     *slog.Logger
}

// NewPeriodValidator registers counters in the order their checks appear in the report
func NewPeriodValidator(
	periodRepo period.Repository,
	store ledger.Store,
	counters []closing.DraftCounter,
	tolerance closing.Tolerance,
	currency string,
	logger *slog.Logger,
) service.PeriodValidator {
	return &PeriodValidatorImpl{
		periodRepo: periodRepo,
		store:      store,
		counters:   counters,
		tolerance:  tolerance,
		currency:   currency,
		logger:     logger,
	}
}

// Validate loads the period and runs the readiness checks without side effects
func (v *PeriodValidatorImpl) Validate(ctx context.Context, periodID uuid.UUID) (*closing.ReadinessReport, error) {
	p, err := v.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return v.Check(ctx, p)
}

// Check counts drafts per registered category and tests the posted totals against the tolerance
func (v *PeriodValidatorImpl) Check(ctx context.Context, p *period.Period) (*closing.ReadinessReport, error) {
	logger := v.logger.With("period_id", p.ID.String(), "period_code", p.Code)

	if p.IsClosed {
		return nil, period.ErrPeriodAlreadyClosed{PeriodID: p.ID, Code: p.Code}
	}

	report := &closing.ReadinessReport{
		PeriodID:   p.ID,
		PeriodCode: p.Code,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Checks:     make([]closing.DraftCheck, 0, len(v.counters)),
		Currency:   v.currency,
	}

	for _, counter := range v.counters {
		count, err := counter.CountDraftsInRange(ctx, p.StartDate, p.EndDate)
		if err != nil {
			logger.Error("Draft count failed", "category", counter.Category(), "error", err)
			return nil, fmt.Errorf("readiness check %s failed for period %s: %w", counter.Category(), p.Code, err)
		}
		report.AddCheck(counter.Category(), counter.Requirement(), count)
	}

	totals, err := v.store.SumPostedTotals(ctx, p.StartDate, p.EndDate)
	if err != nil {
		logger.Error("Failed to sum posted ledger totals", "error", err)
		return nil, fmt.Errorf("readiness balance check failed for period %s: %w", p.Code, err)
	}
	report.SetLedgerTotals(totals.Debit, totals.Credit, v.tolerance)
	report.CheckedAt = time.Now().UTC()

	if !report.Evaluate() {
		logger.Info("Period is not ready to close",
			"draft_documents", report.TotalDrafts(),
			"is_balanced", report.IsBalanced,
			"difference", report.Difference.String(),
		)
	}
	return report, nil
}
