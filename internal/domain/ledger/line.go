package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNegativeAmount    = errors.New("ledger amounts must not be negative")
	ErrOneSidedLine      = errors.New("exactly one of debit or credit must be non-zero")
	ErrUnbalancedEntry   = errors.New("journal entry debits and credits do not balance")
	ErrEmptyJournalEntry = errors.New("journal entry has no lines")
	ErrInvalidLineStatus = errors.New("line status must be DRAFT or POSTED")
)

// LineStatus is the posting state of a ledger line
type LineStatus string

const (
	LineStatusDraft  LineStatus = "DRAFT"
	LineStatusPosted LineStatus = "POSTED"
)

// Line is a single debit or credit against one posting account
type Line struct {
	ID              uuid.UUID       `json:"id"`
	JournalEntryID  uuid.UUID       `json:"journal_entry_id"`
	AccountID       uuid.UUID       `json:"account_id"`
	DebitAmount     decimal.Decimal `json:"debit_amount"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
	Currency        string          `json:"currency"`
	TransactionDate time.Time       `json:"transaction_date"`
	Status          LineStatus      `json:"status"`
}

// Validate checks the one-sided, non-negative amount rule
func (l *Line) Validate() error {
	if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if l.DebitAmount.IsZero() == l.CreditAmount.IsZero() {
		return ErrOneSidedLine
	}
	if l.Status != LineStatusDraft && l.Status != LineStatusPosted {
		return ErrInvalidLineStatus
	}
	return nil
}

// JournalEntry groups the lines of one double-entry posting
type JournalEntry struct {
	ID              uuid.UUID  `json:"id"`
	Number          string     `json:"number"`
	TransactionDate time.Time  `json:"transaction_date"`
	Status          LineStatus `json:"status"`
	Lines           []Line     `json:"lines"`
}

// Totals returns the summed debit and credit sides of the entry
func (e *JournalEntry) Totals() Movement {
	var m Movement
	for _, l := range e.Lines {
		m = m.Add(Movement{Debit: l.DebitAmount, Credit: l.CreditAmount})
	}
	return m
}

// IsBalanced reports whether sum(debit) equals sum(credit)
func (e *JournalEntry) IsBalanced() bool {
	t := e.Totals()
	return t.Debit.Equal(t.Credit)
}

// Validate checks every line and the entry-level balance
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrEmptyJournalEntry
	}
	for i := range e.Lines {
		if err := e.Lines[i].Validate(); err != nil {
			return err
		}
	}
	if !e.IsBalanced() {
		return ErrUnbalancedEntry
	}
	return nil
}

// Movement is a pair of debit and credit sums
type Movement struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Add returns the column-wise sum of m and o
func (m Movement) Add(o Movement) Movement {
	return Movement{Debit: m.Debit.Add(o.Debit), Credit: m.Credit.Add(o.Credit)}
}

// Net returns debit minus credit
func (m Movement) Net() decimal.Decimal {
	return m.Debit.Sub(m.Credit)
}

// IsZero reports whether both sides are zero
func (m Movement) IsZero() bool {
	return m.Debit.IsZero() && m.Credit.IsZero()
}

// SumPostedLines aggregates POSTED lines dated within [start, end] by account.
// A zero start means no lower bound.
func SumPostedLines(lines []Line, start, end time.Time) map[uuid.UUID]Movement {
	out := make(map[uuid.UUID]Movement)
	for _, l := range lines {
		if l.Status != LineStatusPosted {
			continue
		}
		if !start.IsZero() && l.TransactionDate.Before(start) {
			continue
		}
		if l.TransactionDate.After(end) {
			continue
		}
		out[l.AccountID] = out[l.AccountID].Add(Movement{Debit: l.DebitAmount, Credit: l.CreditAmount})
	}
	return out
}
