package coa

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyAccountCode      = errors.New("account code cannot be empty")
	ErrInvalidAccountType    = errors.New("unknown account type")
	ErrInvalidPostingType    = errors.New("posting type must be HEADER or POSTING")
	ErrNormalBalanceMismatch = errors.New("normal balance does not match account type")
	ErrInvalidNormalBalance  = errors.New("normal balance must be DEBIT or CREDIT")
)

// AccountType classifies an account on the balance sheet or income statement
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeCOGS      AccountType = "COGS"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists every supported account type in reporting order
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeCOGS,
	AccountTypeExpense,
}

// ParseAccountType resolves a case-insensitive account type name
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AccountTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
}

// NormalBalance is the side on which an account's balance increases
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// PostingType tells whether an account accepts ledger lines
type PostingType string

const (
	PostingTypeHeader  PostingType = "HEADER"
	PostingTypePosting PostingType = "POSTING"
)

// NormalBalanceFor returns the normal balance implied by an account type
func NormalBalanceFor(t AccountType) (NormalBalance, error) {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCOGS:
		return NormalBalanceDebit, nil
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return NormalBalanceCredit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, t)
	}
}

// Account is a node of the chart of accounts
type Account struct {
	ID            uuid.UUID     `json:"id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Type          AccountType   `json:"type"`
	NormalBalance NormalBalance `json:"normal_balance"`
	PostingType   PostingType   `json:"posting_type"`
	ParentID      *uuid.UUID    `json:"parent_id,omitempty"`
}

// IsPosting reports whether ledger lines may reference the account
func (a *Account) IsPosting() bool {
	return a.PostingType == PostingTypePosting
}

// Validate checks the account's own attributes
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return ErrEmptyAccountCode
	}
	expected, err := NormalBalanceFor(a.Type)
	if err != nil {
		return err
	}
	if a.NormalBalance != NormalBalanceDebit && a.NormalBalance != NormalBalanceCredit {
		return ErrInvalidNormalBalance
	}
	if a.NormalBalance != expected {
		return fmt.Errorf("%w: %s is %s but has %s normal balance", ErrNormalBalanceMismatch, a.Code, a.Type, a.NormalBalance)
	}
	if a.PostingType != PostingTypeHeader && a.PostingType != PostingTypePosting {
		return ErrInvalidPostingType
	}
	return nil
}
