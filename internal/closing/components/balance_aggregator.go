package components

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/erp-period-closing/internal/closing/service"
	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accounts processed between cancellation checks
const cancelCheckInterval = 256

// AggregatorConfig holds the accounting rules of the balance computation
type AggregatorConfig struct {
	Currency             string
	Tolerance            closing.Tolerance
	FiscalYearStartMonth int
}

type BalanceAggregatorImpl struct {
	periodRepo period.Repository
	registry   coa.Registry
	store      ledger.Store
	tbRepo     trialbalance.Repository
	cfg        AggregatorConfig
	logger     *slog.Logger
}

func NewBalanceAggregator(
	periodRepo period.Repository,
	registry coa.Registry,
	store ledger.Store,
	tbRepo trialbalance.Repository,
	cfg AggregatorConfig,
	logger *slog.Logger,
) service.BalanceAggregator {
	if cfg.FiscalYearStartMonth < 1 || cfg.FiscalYearStartMonth > 12 {
		cfg.FiscalYearStartMonth = 1
	}
	return &BalanceAggregatorImpl{
		periodRepo: periodRepo,
		registry:   registry,
		store:      store,
		tbRepo:     tbRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

// Compute returns one row per posting account of the period
func (a *BalanceAggregatorImpl) Compute(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]trialbalance.BalanceRow, error) {
	p, err := a.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	chart, err := a.registry.LoadChart(ctx)
	if err != nil {
		return nil, err
	}
	return a.compute(ctx, p, chart)
}

// BuildSnapshot computes p and orders the rows by account code
func (a *BalanceAggregatorImpl) BuildSnapshot(ctx context.Context, p *period.Period, source shared.SnapshotSource, at time.Time) (*trialbalance.Snapshot, error) {
	chart, err := a.registry.LoadChart(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := a.compute(ctx, p, chart)
	if err != nil {
		return nil, err
	}
	return trialbalance.NewSnapshot(p.ID, source, a.cfg.Currency, rows, chart, at), nil
}

// ComputeAccount derives the row of a single posting account with the same
// rules as Compute, without the ledger-wide imbalance check.
func (a *BalanceAggregatorImpl) ComputeAccount(ctx context.Context, periodID, accountID uuid.UUID) (trialbalance.BalanceRow, error) {
	p, err := a.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return trialbalance.BalanceRow{}, err
	}
	chart, err := a.registry.LoadChart(ctx)
	if err != nil {
		return trialbalance.BalanceRow{}, err
	}
	acc, ok := chart.Get(accountID)
	if !ok {
		return trialbalance.BalanceRow{}, coa.ErrAccountNotFound{AccountID: accountID}
	}
	if !acc.IsPosting() {
		return trialbalance.BalanceRow{}, coa.ErrAccountNotPosting{AccountID: acc.ID, Code: acc.Code}
	}

	var opening ledger.Movement
	prev, err := a.periodRepo.GetPrevious(ctx, p)
	if err != nil {
		return trialbalance.BalanceRow{}, err
	}
	if prev != nil {
		header, err := a.carriedSnapshot(ctx, prev)
		if err != nil {
			return trialbalance.BalanceRow{}, err
		}
		if header != nil {
			endings, err := a.tbRepo.GetEndingBalances(ctx, prev.ID)
			if err != nil {
				return trialbalance.BalanceRow{}, err
			}
			opening = endings[acc.ID].Ending()
		} else {
			debit, credit, err := a.store.SumPostedAmounts(ctx, acc.ID, time.Time{}, p.StartDate.AddDate(0, 0, -1))
			if err != nil {
				return trialbalance.BalanceRow{}, err
			}
			opening = ledger.Movement{Debit: debit, Credit: credit}
		}
	}

	debit, credit, err := a.store.SumPostedAmounts(ctx, acc.ID, p.StartDate, p.EndDate)
	if err != nil {
		return trialbalance.BalanceRow{}, err
	}
	movement := ledger.Movement{Debit: debit, Credit: credit}

	ytd := movement
	if fyStart := a.fiscalYearStart(p); fyStart.Before(p.StartDate) {
		debit, credit, err := a.store.SumPostedAmounts(ctx, acc.ID, fyStart, p.EndDate)
		if err != nil {
			return trialbalance.BalanceRow{}, err
		}
		ytd = ledger.Movement{Debit: debit, Credit: credit}
	}

	return buildRow(acc, opening, movement, ytd, a.cfg.Currency), nil
}

func (a *BalanceAggregatorImpl) compute(ctx context.Context, p *period.Period, chart *coa.Chart) (map[uuid.UUID]trialbalance.BalanceRow, error) {
	logger := a.logger.With("period_id", p.ID.String(), "period_code", p.Code)

	opening, err := a.openingBalances(ctx, p, chart)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	movement, err := a.store.SumPostedByAccount(ctx, p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	if err := checkPostingAccounts(chart, movement); err != nil {
		logger.Error("Ledger movement on a non-posting account", "error", err)
		return nil, err
	}

	var total ledger.Movement
	for _, m := range movement {
		total = total.Add(m)
	}
	if !a.cfg.Tolerance.Within(total.Net(), a.cfg.Currency) {
		logger.Error("Posted period movement is unbalanced",
			"debit", total.Debit.String(),
			"credit", total.Credit.String())
		return nil, closing.ErrImbalanceDetected{Delta: total.Net(), Tolerance: a.cfg.Tolerance.For(a.cfg.Currency)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ytd := movement
	if fyStart := a.fiscalYearStart(p); fyStart.Before(p.StartDate) {
		ytd, err = a.store.SumPostedByAccount(ctx, fyStart, p.EndDate)
		if err != nil {
			return nil, err
		}
		if err := checkPostingAccounts(chart, ytd); err != nil {
			return nil, err
		}
	}

	accounts := chart.PostingAccounts()
	rows := make(map[uuid.UUID]trialbalance.BalanceRow, len(accounts))
	for i, acc := range accounts {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rows[acc.ID] = buildRow(acc, opening[acc.ID], movement[acc.ID], ytd[acc.ID], a.cfg.Currency)
	}

	logger.Debug("Computed trial balance rows", "rows", len(rows))
	return rows, nil
}

// openingBalances carries the previous period's snapshot forward. Without a
// previous period the opening is zero; a previous period that is still open
// or was never calculated falls back to every posted line before p starts.
func (a *BalanceAggregatorImpl) openingBalances(ctx context.Context, p *period.Period, chart *coa.Chart) (map[uuid.UUID]ledger.Movement, error) {
	prev, err := a.periodRepo.GetPrevious(ctx, p)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return map[uuid.UUID]ledger.Movement{}, nil
	}

	header, err := a.carriedSnapshot(ctx, prev)
	if err != nil {
		return nil, err
	}
	if header == nil {
		a.logger.Warn("Previous period has no final trial balance, deriving opening from ledger history",
			"period_code", p.Code,
			"previous_code", prev.Code,
			"previous_closed", prev.IsClosed)
		before, err := a.store.SumPostedBefore(ctx, p.StartDate)
		if err != nil {
			return nil, err
		}
		if err := checkPostingAccounts(chart, before); err != nil {
			return nil, err
		}
		return before, nil
	}

	endings, err := a.tbRepo.GetEndingBalances(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]ledger.Movement, len(endings))
	for id, row := range endings {
		out[id] = row.Ending()
	}
	return out, nil
}

// carriedSnapshot returns prev's snapshot header when it can seed the next
// opening. An open period can still take postings, so its snapshot may be stale.
func (a *BalanceAggregatorImpl) carriedSnapshot(ctx context.Context, prev *period.Period) (*trialbalance.Header, error) {
	if !prev.IsClosed {
		return nil, nil
	}
	return a.tbRepo.GetSnapshotHeader(ctx, prev.ID)
}

func (a *BalanceAggregatorImpl) fiscalYearStart(p *period.Period) time.Time {
	fy, _ := period.FiscalPosition(p.StartDate, a.cfg.FiscalYearStartMonth)
	return time.Date(fy, time.Month(a.cfg.FiscalYearStartMonth), 1, 0, 0, 0, 0, time.UTC)
}

// checkPostingAccounts rejects movement on unknown or header accounts,
// reporting the lowest offending id so repeated runs fail identically.
func checkPostingAccounts(chart *coa.Chart, movements map[uuid.UUID]ledger.Movement) error {
	ids := make([]uuid.UUID, 0, len(movements))
	for id := range movements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	for _, id := range ids {
		acc, ok := chart.Get(id)
		if !ok {
			return fmt.Errorf("ledger references account outside the chart: %w", coa.ErrAccountNotFound{AccountID: id})
		}
		if !acc.IsPosting() {
			return coa.ErrAccountNotPosting{AccountID: acc.ID, Code: acc.Code}
		}
	}
	return nil
}

// buildRow normalizes each horizon to one side. YTD is fiscal-year activity
// only; balances carried in from earlier fiscal years stay in the opening.
func buildRow(acc *coa.Account, opening, movement, ytd ledger.Movement, currency string) trialbalance.BalanceRow {
	row := trialbalance.BalanceRow{
		AccountID:    acc.ID,
		PeriodDebit:  orZero(movement.Debit),
		PeriodCredit: orZero(movement.Credit),
		Currency:     currency,
	}
	row.OpeningDebit, row.OpeningCredit = trialbalance.Normalize(opening.Net(), acc.NormalBalance)
	row.EndingDebit, row.EndingCredit = trialbalance.Normalize(opening.Add(movement).Net(), acc.NormalBalance)
	row.YTDDebit, row.YTDCredit = trialbalance.Normalize(ytd.Net(), acc.NormalBalance)
	return row
}

// orZero replaces the uninitialized decimal with decimal.Zero so rows compare and encode alike
func orZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return d
}
