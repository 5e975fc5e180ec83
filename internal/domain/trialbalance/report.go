package trialbalance

import (
	"sort"

	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportRow is a balance row joined with its account attributes
type ReportRow struct {
	BalanceRow
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType coa.AccountType `json:"account_type"`
	PostingType coa.PostingType `json:"posting_type"`
	ParentID    *uuid.UUID      `json:"parent_id,omitempty"`
	Level       int             `json:"level"`
}

// IsHeader reports whether the row is a roll-up of posting descendants
func (r ReportRow) IsHeader() bool {
	return r.PostingType == coa.PostingTypeHeader
}

// Filter narrows a trial balance listing
type Filter struct {
	Search         string
	AccountType    coa.AccountType
	IncludeHeaders bool
	// HideEmpty drops posting rows with no amount in any horizon
	HideEmpty bool
}

// EndingBalance is the ending pair signed against the account's normal side,
// so a contra balance comes out negative
func (r ReportRow) EndingBalance() decimal.Decimal {
	normal, err := coa.NormalBalanceFor(r.AccountType)
	if err != nil {
		normal = coa.NormalBalanceDebit
	}
	return NormalBalanceAmount(r.Ending(), normal)
}

// Enrich attaches account attributes from the chart to a balance row
func Enrich(row BalanceRow, chart *coa.Chart) (ReportRow, bool) {
	acc, ok := chart.Get(row.AccountID)
	if !ok {
		return ReportRow{}, false
	}
	return ReportRow{
		BalanceRow:  row,
		AccountCode: acc.Code,
		AccountName: acc.Name,
		AccountType: acc.Type,
		PostingType: acc.PostingType,
		ParentID:    acc.ParentID,
		Level:       len(chart.Ancestors(acc.ID)),
	}, true
}

// RollUp derives one row per header account by summing its posting
// descendants' rows. Opening, ending and YTD pairs are re-normalized against
// the header's own normal balance. Headers with no descendant rows are omitted.
func RollUp(rows []BalanceRow, chart *coa.Chart) []ReportRow {
	byAccount := make(map[uuid.UUID]BalanceRow, len(rows))
	for _, r := range rows {
		byAccount[r.AccountID] = r
	}

	var out []ReportRow
	for _, acc := range chart.Accounts() {
		if acc.IsPosting() {
			continue
		}
		var sum Totals
		var currency string
		found := false
		for _, leaf := range chart.PostingDescendants(acc.ID) {
			r, ok := byAccount[leaf.ID]
			if !ok {
				continue
			}
			sum = sum.Add(r)
			currency = r.Currency
			found = true
		}
		if !found {
			continue
		}

		row := BalanceRow{
			AccountID:    acc.ID,
			PeriodDebit:  sum.PeriodDebit,
			PeriodCredit: sum.PeriodCredit,
			Currency:     currency,
		}
		row.OpeningDebit, row.OpeningCredit = Normalize(sum.OpeningDebit.Sub(sum.OpeningCredit), acc.NormalBalance)
		row.EndingDebit, row.EndingCredit = Normalize(sum.EndingDebit.Sub(sum.EndingCredit), acc.NormalBalance)
		row.YTDDebit, row.YTDCredit = Normalize(sum.YTDDebit.Sub(sum.YTDCredit), acc.NormalBalance)

		enriched, _ := Enrich(row, chart)
		out = append(out, enriched)
	}
	return out
}

// SortByCode orders report rows by account code
func SortByCode(rows []ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AccountCode < rows[j].AccountCode
	})
}

// PostingTotals sums only posting rows, so header roll-ups are never double counted
func PostingTotals(rows []ReportRow) Totals {
	var t Totals
	for _, r := range rows {
		if r.IsHeader() {
			continue
		}
		t = t.Add(r.BalanceRow)
	}
	return t
}
