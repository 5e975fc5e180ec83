package coa

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides read access to the chart of accounts
type Repository interface {
	ListAll(ctx context.Context) ([]*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// Registry loads the validated chart used by aggregation and reporting
type Registry interface {
	LoadChart(ctx context.Context) (*Chart, error)
}

// ErrAccountNotFound indicates an account id missing from the chart
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// An empty target id matches any missing account
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrAccountNotPosting indicates a header account used where a posting account is required
type ErrAccountNotPosting struct {
	AccountID uuid.UUID
	Code      string
}

func (e ErrAccountNotPosting) Error() string {
	return "account " + e.Code + " is a header account and cannot carry balances"
}

// Is implements the errors.Is interface for ErrAccountNotPosting
func (e ErrAccountNotPosting) Is(target error) bool {
	t, ok := target.(ErrAccountNotPosting)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || e.AccountID == t.AccountID
}

// ErrInvalidChart indicates a structurally broken chart of accounts
type ErrInvalidChart struct {
	Reason string
}

func (e ErrInvalidChart) Error() string {
	return "invalid chart of accounts: " + e.Reason
}
