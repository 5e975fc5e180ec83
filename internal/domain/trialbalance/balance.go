package trialbalance

import (
	"time"

	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceRow holds the four balance horizons of one posting account in one period.
// Opening, ending and YTD pairs are normalized: at most one side is non-zero.
type BalanceRow struct {
	AccountID     uuid.UUID       `json:"account_id"`
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	EndingDebit   decimal.Decimal `json:"ending_debit"`
	EndingCredit  decimal.Decimal `json:"ending_credit"`
	YTDDebit      decimal.Decimal `json:"ytd_debit"`
	YTDCredit     decimal.Decimal `json:"ytd_credit"`
	Currency      string          `json:"currency"`
}

// Opening returns the opening pair as a movement
func (r BalanceRow) Opening() ledger.Movement {
	return ledger.Movement{Debit: r.OpeningDebit, Credit: r.OpeningCredit}
}

// Period returns the period movement
func (r BalanceRow) Period() ledger.Movement {
	return ledger.Movement{Debit: r.PeriodDebit, Credit: r.PeriodCredit}
}

// Ending returns the ending pair as a movement
func (r BalanceRow) Ending() ledger.Movement {
	return ledger.Movement{Debit: r.EndingDebit, Credit: r.EndingCredit}
}

// Equal compares every amount numerically
func (r BalanceRow) Equal(o BalanceRow) bool {
	return r.AccountID == o.AccountID &&
		r.Currency == o.Currency &&
		r.OpeningDebit.Equal(o.OpeningDebit) &&
		r.OpeningCredit.Equal(o.OpeningCredit) &&
		r.PeriodDebit.Equal(o.PeriodDebit) &&
		r.PeriodCredit.Equal(o.PeriodCredit) &&
		r.EndingDebit.Equal(o.EndingDebit) &&
		r.EndingCredit.Equal(o.EndingCredit) &&
		r.YTDDebit.Equal(o.YTDDebit) &&
		r.YTDCredit.Equal(o.YTDCredit)
}

// IsEmpty reports whether the row carries no amounts at all
func (r BalanceRow) IsEmpty() bool {
	return r.Opening().IsZero() && r.Period().IsZero() && r.Ending().IsZero() &&
		r.YTDDebit.IsZero() && r.YTDCredit.IsZero()
}

// Normalize splits a signed net (debit minus credit) into a one-sided pair.
// A balance on the account's normal side is positive in that column; a
// contra balance lands in the opposite column.
func Normalize(net decimal.Decimal, normal coa.NormalBalance) (decimal.Decimal, decimal.Decimal) {
	zero := decimal.Zero
	if normal == coa.NormalBalanceCredit {
		balance := net.Neg()
		if balance.IsNegative() {
			return balance.Neg(), zero
		}
		return zero, balance
	}
	if net.IsNegative() {
		return zero, net.Neg()
	}
	return net, zero
}

// NormalBalanceAmount returns the pair's balance signed relative to the normal side
func NormalBalanceAmount(m ledger.Movement, normal coa.NormalBalance) decimal.Decimal {
	if normal == coa.NormalBalanceCredit {
		return m.Credit.Sub(m.Debit)
	}
	return m.Debit.Sub(m.Credit)
}

// Snapshot is the persisted trial balance of a period
type Snapshot struct {
	PeriodID     uuid.UUID             `json:"period_id"`
	Source       shared.SnapshotSource `json:"source"`
	Currency     string                `json:"currency"`
	CalculatedAt time.Time             `json:"calculated_at"`
	Rows         []BalanceRow          `json:"rows"`
}

// NewSnapshot orders rows by the chart's account codes so writes are deterministic
func NewSnapshot(periodID uuid.UUID, source shared.SnapshotSource, currency string, rows map[uuid.UUID]BalanceRow, chart *coa.Chart, at time.Time) *Snapshot {
	s := &Snapshot{
		PeriodID:     periodID,
		Source:       source,
		Currency:     currency,
		CalculatedAt: at,
		Rows:         make([]BalanceRow, 0, len(rows)),
	}
	for _, acc := range chart.PostingAccounts() {
		if row, ok := rows[acc.ID]; ok {
			s.Rows = append(s.Rows, row)
		}
	}
	return s
}

// Totals returns the column sums of the snapshot rows
func (s *Snapshot) Totals() Totals {
	return SumRows(s.Rows)
}

// Header describes a stored snapshot without its rows
type Header struct {
	PeriodID     uuid.UUID             `json:"period_id"`
	Source       shared.SnapshotSource `json:"source"`
	Currency     string                `json:"currency"`
	RowCount     int                   `json:"row_count"`
	CalculatedAt time.Time             `json:"calculated_at"`
}

// Totals are column-wise sums over a set of rows
type Totals struct {
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	EndingDebit   decimal.Decimal `json:"ending_debit"`
	EndingCredit  decimal.Decimal `json:"ending_credit"`
	YTDDebit      decimal.Decimal `json:"ytd_debit"`
	YTDCredit     decimal.Decimal `json:"ytd_credit"`
}

// Add accumulates one row
func (t Totals) Add(r BalanceRow) Totals {
	return Totals{
		OpeningDebit:  t.OpeningDebit.Add(r.OpeningDebit),
		OpeningCredit: t.OpeningCredit.Add(r.OpeningCredit),
		PeriodDebit:   t.PeriodDebit.Add(r.PeriodDebit),
		PeriodCredit:  t.PeriodCredit.Add(r.PeriodCredit),
		EndingDebit:   t.EndingDebit.Add(r.EndingDebit),
		EndingCredit:  t.EndingCredit.Add(r.EndingCredit),
		YTDDebit:      t.YTDDebit.Add(r.YTDDebit),
		YTDCredit:     t.YTDCredit.Add(r.YTDCredit),
	}
}

// Equal compares every column numerically
func (t Totals) Equal(o Totals) bool {
	return t.OpeningDebit.Equal(o.OpeningDebit) &&
		t.OpeningCredit.Equal(o.OpeningCredit) &&
		t.PeriodDebit.Equal(o.PeriodDebit) &&
		t.PeriodCredit.Equal(o.PeriodCredit) &&
		t.EndingDebit.Equal(o.EndingDebit) &&
		t.EndingCredit.Equal(o.EndingCredit) &&
		t.YTDDebit.Equal(o.YTDDebit) &&
		t.YTDCredit.Equal(o.YTDCredit)
}

// SumRows returns the column-wise sum of rows
func SumRows(rows []BalanceRow) Totals {
	var t Totals
	for _, r := range rows {
		t = t.Add(r)
	}
	return t
}
