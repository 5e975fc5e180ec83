package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/erp-period-closing/internal/domain/trialbalance"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const balanceColumns = `opening_debit, opening_credit, period_debit, period_credit,
		ending_debit, ending_credit, ytd_debit, ytd_credit, currency`

// TrialBalanceRepository implements the trialbalance.Repository interface for PostgreSQL
type TrialBalanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTrialBalanceRepository creates a new PostgreSQL trial balance repository
func NewTrialBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) trialbalance.Repository {
	return &TrialBalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx
func (r *TrialBalanceRepository) WithTx(tx pgx.Tx) trialbalance.Repository {
	return &TrialBalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetSnapshotHeader returns nil, nil when the period has no snapshot
func (r *TrialBalanceRepository) GetSnapshotHeader(ctx context.Context, periodID uuid.UUID) (*trialbalance.Header, error) {
	query := `
		SELECT period_id, source, currency, row_count, calculated_at
		FROM trial_balance_runs
		WHERE period_id = $1
	`

	var h trialbalance.Header
	err := r.querier.QueryRow(ctx, query, periodID).Scan(
		&h.PeriodID,
		&h.Source,
		&h.Currency,
		&h.RowCount,
		&h.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get trial balance header", "period_id", periodID.String(), "error", err)
		return nil, fmt.Errorf("failed to get trial balance header: %w", err)
	}
	return &h, nil
}

// GetEndingBalances returns the stored rows of a period keyed by account
func (r *TrialBalanceRepository) GetEndingBalances(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]trialbalance.BalanceRow, error) {
	query := `SELECT account_id, ` + balanceColumns + ` FROM trial_balances WHERE period_id = $1`

	rows, err := r.querier.Query(ctx, query, periodID)
	if err != nil {
		r.logger.Error("Failed to get ending balances", "period_id", periodID.String(), "error", err)
		return nil, fmt.Errorf("failed to get ending balances: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]trialbalance.BalanceRow)
	for rows.Next() {
		var b trialbalance.BalanceRow
		err := rows.Scan(
			&b.AccountID,
			&b.OpeningDebit,
			&b.OpeningCredit,
			&b.PeriodDebit,
			&b.PeriodCredit,
			&b.EndingDebit,
			&b.EndingCredit,
			&b.YTDDebit,
			&b.YTDCredit,
			&b.Currency,
		)
		if err != nil {
			r.logger.Error("Failed to scan trial balance row", "error", err)
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		out[b.AccountID] = b
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over trial balance rows", "error", err)
		return nil, fmt.Errorf("error iterating over trial balance rows: %w", err)
	}
	return out, nil
}

// ListRows returns the period's posting rows joined with their accounts,
// filtered by search text and account type and ordered by account code.
// Level is left at zero; callers holding the chart fill it in.
func (r *TrialBalanceRepository) ListRows(ctx context.Context, periodID uuid.UUID, filter trialbalance.Filter) ([]trialbalance.ReportRow, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT tb.account_id, tb.opening_debit, tb.opening_credit, tb.period_debit, tb.period_credit,
		tb.ending_debit, tb.ending_credit, tb.ytd_debit, tb.ytd_credit, tb.currency,
		a.code, a.name, a.account_type, a.posting_type, a.parent_id
		FROM trial_balances tb
		JOIN accounts a ON a.id = tb.account_id
		WHERE tb.period_id = $1`)
	args := []any{periodID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		sb.WriteString(` AND (a.code ILIKE $` + n + ` OR a.name ILIKE $` + n + `)`)
	}
	if filter.AccountType != "" {
		args = append(args, filter.AccountType)
		sb.WriteString(` AND a.account_type = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY a.code ASC`)

	rows, err := r.querier.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to list trial balance rows", "period_id", periodID.String(), "error", err)
		return nil, fmt.Errorf("failed to list trial balance rows: %w", err)
	}
	defer rows.Close()

	var out []trialbalance.ReportRow
	for rows.Next() {
		var row trialbalance.ReportRow
		err := rows.Scan(
			&row.AccountID,
			&row.OpeningDebit,
			&row.OpeningCredit,
			&row.PeriodDebit,
			&row.PeriodCredit,
			&row.EndingDebit,
			&row.EndingCredit,
			&row.YTDDebit,
			&row.YTDCredit,
			&row.Currency,
			&row.AccountCode,
			&row.AccountName,
			&row.AccountType,
			&row.PostingType,
			&row.ParentID,
		)
		if err != nil {
			r.logger.Error("Failed to scan trial balance report row", "error", err)
			return nil, fmt.Errorf("failed to scan trial balance report row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over trial balance report rows", "error", err)
		return nil, fmt.Errorf("error iterating over trial balance report rows: %w", err)
	}
	return out, nil
}

// ReplaceSnapshot deletes the period's rows, inserts the snapshot rows and
// upserts the run header. It must run inside the caller's transaction.
func (r *TrialBalanceRepository) ReplaceSnapshot(ctx context.Context, snapshot *trialbalance.Snapshot) error {
	if _, err := r.querier.Exec(ctx, `DELETE FROM trial_balances WHERE period_id = $1`, snapshot.PeriodID); err != nil {
		r.logger.Error("Failed to delete trial balance rows", "period_id", snapshot.PeriodID.String(), "error", err)
		return fmt.Errorf("failed to delete trial balance rows: %w", err)
	}

	insert := `
		INSERT INTO trial_balances (period_id, account_id, ` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, row := range snapshot.Rows {
		_, err := r.querier.Exec(ctx, insert,
			snapshot.PeriodID,
			row.AccountID,
			row.OpeningDebit,
			row.OpeningCredit,
			row.PeriodDebit,
			row.PeriodCredit,
			row.EndingDebit,
			row.EndingCredit,
			row.YTDDebit,
			row.YTDCredit,
			row.Currency,
		)
		if err != nil {
			r.logger.Error("Failed to insert trial balance row",
				"period_id", snapshot.PeriodID.String(),
				"account_id", row.AccountID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to insert trial balance row: %w", err)
		}
	}

	upsert := `
		INSERT INTO trial_balance_runs (period_id, source, currency, row_count, calculated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (period_id) DO UPDATE
		SET source = EXCLUDED.source, currency = EXCLUDED.currency,
			row_count = EXCLUDED.row_count, calculated_at = EXCLUDED.calculated_at
	`
	_, err := r.querier.Exec(ctx, upsert,
		snapshot.PeriodID,
		snapshot.Source,
		snapshot.Currency,
		len(snapshot.Rows),
		snapshot.CalculatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert trial balance header", "period_id", snapshot.PeriodID.String(), "error", err)
		return fmt.Errorf("failed to upsert trial balance header: %w", err)
	}

	return nil
}
