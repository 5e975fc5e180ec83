package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/coa"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository reads the chart of accounts. It serves both
// coa.Repository and coa.Registry.
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var (
	_ coa.Repository = (*AccountRepository)(nil)
	_ coa.Registry   = (*AccountRepository)(nil)
)

// NewAccountRepository creates a new PostgreSQL chart of accounts repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanAccount(s scanner) (*coa.Account, error) {
	var acc coa.Account
	err := s.Scan(
		&acc.ID,
		&acc.Code,
		&acc.Name,
		&acc.Type,
		&acc.NormalBalance,
		&acc.PostingType,
		&acc.ParentID,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// ListAll returns every account ordered by code
func (r *AccountRepository) ListAll(ctx context.Context) ([]*coa.Account, error) {
	query := `
		SELECT id, code, name, account_type, normal_balance, posting_type, parent_id
		FROM accounts
		ORDER BY code ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*coa.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over accounts", "error", err)
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*coa.Account, error) {
	query := `
		SELECT id, code, name, account_type, normal_balance, posting_type, parent_id
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coa.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// LoadChart reads and validates the whole chart of accounts
func (r *AccountRepository) LoadChart(ctx context.Context) (*coa.Chart, error) {
	accounts, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	chart, err := coa.NewChart(accounts)
	if err != nil {
		r.logger.Error("Chart of accounts failed validation", "error", err)
		return nil, err
	}
	return chart, nil
}
