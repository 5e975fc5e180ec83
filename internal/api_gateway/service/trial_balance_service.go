package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
)

const defaultRunLimit = 20

// TrialBalanceQueryServiceImpl implements the TrialBalanceQueryService interface
type TrialBalanceQueryServiceImpl struct {
	periodRepo       period.Repository
	trialBalanceRepo trialbalance.Repository
	registry         coa.Registry
	runRepo          closing.RunRepository
	logger           *slog.Logger
}

// NewTrialBalanceQueryService creates a new trial balance query service
func NewTrialBalanceQueryService(
	logger *slog.Logger,
	periodRepo period.Repository,
	trialBalanceRepo trialbalance.Repository,
	registry coa.Registry,
	runRepo closing.RunRepository,
) TrialBalanceQueryService {
	return &TrialBalanceQueryServiceImpl{
		periodRepo:       periodRepo,
		trialBalanceRepo: trialBalanceRepo,
		registry:         registry,
		runRepo:          runRepo,
		logger:           logger,
	}
}

// GetTrialBalance reads the stored snapshot. Totals cover posting rows only.
func (s *TrialBalanceQueryServiceImpl) GetTrialBalance(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) (*TrialBalanceResult, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	header, err := s.trialBalanceRepo.GetSnapshotHeader(ctx, periodID)
	if err != nil {
		s.logger.Error("Failed to get trial balance header", "period_id", periodID.String(), "error", err)
		return nil, err
	}
	if header == nil {
		s.logger.Info("Trial balance not calculated", "period_id", periodID.String(), "period_code", p.Code)
		return &TrialBalanceResult{
			Period:   p,
			Status:   TrialBalanceStatusNotCalculated,
			Rows:     []trialbalance.ReportRow{},
			Balanced: true,
		}, nil
	}

	rows, err := s.trialBalanceRepo.ListRows(ctx, periodID, filter)
	if err != nil {
		return nil, err
	}

	chart, err := s.registry.LoadChart(ctx)
	if err != nil {
		s.logger.Error("Failed to load chart of accounts", "period_id", periodID.String(), "error", err)
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}

	report := make([]trialbalance.ReportRow, 0, len(rows))
	balances := make([]trialbalance.BalanceRow, 0, len(rows))
	for _, row := range rows {
		if filter.HideEmpty && row.IsEmpty() {
			continue
		}
		if enriched, ok := trialbalance.Enrich(row.BalanceRow, chart); ok {
			row = enriched
		}
		report = append(report, row)
		balances = append(balances, row.BalanceRow)
	}

	if filter.IncludeHeaders {
		// headers summarize the rows that survived the filter
		report = append(report, trialbalance.RollUp(balances, chart)...)
		trialbalance.SortByCode(report)
	}

	totals := trialbalance.PostingTotals(report)
	return &TrialBalanceResult{
		Period:   p,
		Status:   TrialBalanceStatusAvailable,
		Header:   header,
		Rows:     report,
		Totals:   totals,
		Balanced: totals.EndingDebit.Equal(totals.EndingCredit),
	}, nil
}

// ListCloseRuns returns the most recent runs of a period
func (s *TrialBalanceQueryServiceImpl) ListCloseRuns(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error) {
	if _, err := s.periodRepo.GetByID(ctx, periodID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := s.runRepo.ListByPeriod(ctx, periodID, limit)
	if err != nil {
		s.logger.Error("Failed to list close runs", "period_id", periodID.String(), "error", err)
		return nil, err
	}
	return runs, nil
}
