package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/domain/ledger"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStore sums posted ledger lines. It never writes.
type LedgerStore struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore creates a read-only ledger store over the pool
func NewLedgerStore(logger *slog.Logger, db *persistence.PostgresDB) *LedgerStore {
	return &LedgerStore{
		querier: db.Pool(),
		logger:  logger,
	}
}

// SumPostedAmounts returns the debit and credit sums of one account within [start, end]
func (s *LedgerStore) SumPostedAmounts(ctx context.Context, accountID uuid.UUID, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		FROM ledger_lines
		WHERE status = 'POSTED' AND account_id = $1 AND transaction_date BETWEEN $2 AND $3
	`

	var debit, credit decimal.Decimal
	if err := s.querier.QueryRow(ctx, query, accountID, start, end).Scan(&debit, &credit); err != nil {
		s.logger.Error("Failed to sum posted amounts", "account_id", accountID.String(), "error", err)
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum posted amounts: %w", err)
	}
	return debit, credit, nil
}

// SumPostedByAccount returns per-account movement within [start, end]
func (s *LedgerStore) SumPostedByAccount(ctx context.Context, start, end time.Time) (map[uuid.UUID]ledger.Movement, error) {
	query := `
		SELECT account_id, COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		FROM ledger_lines
		WHERE status = 'POSTED' AND transaction_date BETWEEN $1 AND $2
		GROUP BY account_id
	`
	return s.sumByAccount(ctx, "sum posted amounts by account", query, start, end)
}

// SumPostedBefore returns per-account movement of every line dated before date
func (s *LedgerStore) SumPostedBefore(ctx context.Context, date time.Time) (map[uuid.UUID]ledger.Movement, error) {
	query := `
		SELECT account_id, COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		FROM ledger_lines
		WHERE status = 'POSTED' AND transaction_date < $1
		GROUP BY account_id
	`
	return s.sumByAccount(ctx, "sum posted amounts before date", query, date)
}

func (s *LedgerStore) sumByAccount(ctx context.Context, op, query string, args ...any) (map[uuid.UUID]ledger.Movement, error) {
	rows, err := s.querier.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]ledger.Movement)
	for rows.Next() {
		var (
			accountID uuid.UUID
			m         ledger.Movement
		)
		if err := rows.Scan(&accountID, &m.Debit, &m.Credit); err != nil {
			s.logger.Error("Failed to scan ledger movement", "error", err)
			return nil, fmt.Errorf("failed to scan ledger movement: %w", err)
		}
		out[accountID] = m
	}

	if err := rows.Err(); err != nil {
		s.logger.Error("Error iterating over ledger movements", "error", err)
		return nil, fmt.Errorf("error iterating over ledger movements: %w", err)
	}
	return out, nil
}

// SumPostedTotals returns the ledger-wide debit and credit totals within [start, end]
func (s *LedgerStore) SumPostedTotals(ctx context.Context, start, end time.Time) (ledger.Movement, error) {
	query := `
		SELECT COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		FROM ledger_lines
		WHERE status = 'POSTED' AND transaction_date BETWEEN $1 AND $2
	`

	var m ledger.Movement
	if err := s.querier.QueryRow(ctx, query, start, end).Scan(&m.Debit, &m.Credit); err != nil {
		s.logger.Error("Failed to sum posted totals", "error", err)
		return ledger.Movement{}, fmt.Errorf("failed to sum posted totals: %w", err)
	}
	return m, nil
}
