package closing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReadinessReport is the structured result of validating a period for closing
type ReadinessReport struct {
	PeriodID    uuid.UUID       `json:"period_id" bson:"period_id"`
	PeriodCode  string          `json:"period_code" bson:"period_code"`
	StartDate   time.Time       `json:"start_date" bson:"start_date"`
	EndDate     time.Time       `json:"end_date" bson:"end_date"`
	Checks      []DraftCheck    `json:"checks" bson:"checks"`
	IsBalanced  bool            `json:"is_balanced" bson:"is_balanced"`
	TotalDebit  decimal.Decimal `json:"total_debit" bson:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit" bson:"total_credit"`
	Difference  decimal.Decimal `json:"difference" bson:"difference"`
	Tolerance   decimal.Decimal `json:"tolerance" bson:"tolerance"`
	Currency    string          `json:"currency" bson:"currency"`
	Success     bool            `json:"success" bson:"success"`
	CheckedAt   time.Time       `json:"checked_at" bson:"checked_at"`
}

// AddCheck records the draft count of one document category
func (r *ReadinessReport) AddCheck(category DocumentCategory, requirement string, count int) {
	r.Checks = append(r.Checks, DraftCheck{
		Category:    category,
		Requirement: requirement,
		DraftCount:  count,
		Passed:      count == 0,
	})
}

// SetLedgerTotals records the posted totals and evaluates them against tol
func (r *ReadinessReport) SetLedgerTotals(debit, credit decimal.Decimal, tol Tolerance) {
	r.TotalDebit = debit
	r.TotalCredit = credit
	r.Difference = debit.Sub(credit)
	r.Tolerance = tol.For(r.Currency)
	r.IsBalanced = tol.Within(r.Difference, r.Currency)
}

// Evaluate sets Success from the draft checks and the balance check
func (r *ReadinessReport) Evaluate() bool {
	r.Success = r.IsBalanced && r.TotalDrafts() == 0
	return r.Success
}

// TotalDrafts sums the draft counts of every category
func (r *ReadinessReport) TotalDrafts() int {
	total := 0
	for _, c := range r.Checks {
		total += c.DraftCount
	}
	return total
}

// DraftCount returns the draft count for category, or 0 when it was not checked
func (r *ReadinessReport) DraftCount(category DocumentCategory) int {
	for _, c := range r.Checks {
		if c.Category == category {
			return c.DraftCount
		}
	}
	return 0
}

// Remediation lists, in check order, what must be fixed before the period can close
func (r *ReadinessReport) Remediation() []string {
	items := make([]string, 0, len(r.Checks)+1)
	for _, c := range r.Checks {
		if c.Passed {
			continue
		}
		items = append(items, fmt.Sprintf("%s: %d draft document(s) dated %s to %s. %s",
			c.Category, c.DraftCount,
			r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly),
			c.Requirement,
		))
	}
	if !r.IsBalanced {
		items = append(items, fmt.Sprintf(
			"LEDGER: posted debits %s and credits %s differ by %s %s, above the %s tolerance. Correct the unbalanced postings.",
			r.TotalDebit.StringFixed(2), r.TotalCredit.StringFixed(2),
			r.Difference.Abs().String(), r.Currency, r.Tolerance.String(),
		))
	}
	return items
}
