// Package postgres provides PostgreSQL implementations of the closing
// repositories. Every repository can be rebound to a transaction with WithTx so
// the period closer can compose them under one commit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/domain/period"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const periodColumns = `id, code, name, fiscal_year, quarter, start_date, end_date, is_closed,
		closed_at, closed_by, reopen_at, reopen_by, reopen_reason, version, created_at, updated_at`

// scanner is satisfied by both pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// PeriodRepository implements the period.Repository interface for PostgreSQL
type PeriodRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPeriodRepository creates a new PostgreSQL period repository
func NewPeriodRepository(logger *slog.Logger, db *persistence.PostgresDB) period.Repository {
	return &PeriodRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx
func (r *PeriodRepository) WithTx(tx pgx.Tx) period.Repository {
	return &PeriodRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanPeriod(s scanner) (*period.Period, error) {
	var p period.Period
	err := s.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.FiscalYear,
		&p.Quarter,
		&p.StartDate,
		&p.EndDate,
		&p.IsClosed,
		&p.ClosedAt,
		&p.ClosedBy,
		&p.ReopenAt,
		&p.ReopenBy,
		&p.ReopenReason,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new period. Code collisions and date-range overlaps are
// reported as ErrPeriodOverlap.
func (r *PeriodRepository) Create(ctx context.Context, p *period.Period) error {
	query := `
		INSERT INTO accounting_periods (id, code, name, fiscal_year, quarter, start_date, end_date, is_closed, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.Code,
		p.Name,
		p.FiscalYear,
		p.Quarter,
		p.StartDate,
		p.EndDate,
		p.IsClosed,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01") {
			return period.ErrPeriodOverlap{Code: p.Code}
		}
		r.logger.Error("Failed to create period", "code", p.Code, "error", err)
		return fmt.Errorf("failed to create period: %w", err)
	}

	return nil
}

// GetByID retrieves a period by its ID
func (r *PeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE id = $1`

	p, err := scanPeriod(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, period.ErrPeriodNotFound{PeriodID: id}
		}
		r.logger.Error("Failed to get period", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

// GetByCode returns nil, nil when no period carries the code
func (r *PeriodRepository) GetByCode(ctx context.Context, code string) (*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE code = $1`

	p, err := scanPeriod(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get period by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get period by code: %w", err)
	}
	return p, nil
}

// GetPrevious returns the period with the greatest end date before p starts
func (r *PeriodRepository) GetPrevious(ctx context.Context, p *period.Period) (*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE end_date < $1
		ORDER BY end_date DESC
		LIMIT 1`

	prev, err := scanPeriod(r.querier.QueryRow(ctx, query, p.StartDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get previous period", "code", p.Code, "error", err)
		return nil, fmt.Errorf("failed to get previous period: %w", err)
	}
	return prev, nil
}

// ListByFiscalYear returns the fiscal year's periods in chronological order
func (r *PeriodRepository) ListByFiscalYear(ctx context.Context, fiscalYear int) ([]*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE fiscal_year = $1
		ORDER BY start_date ASC`
	return r.list(ctx, "list periods by fiscal year", query, fiscalYear)
}

// ListAfter returns the periods starting after date in chronological order
func (r *PeriodRepository) ListAfter(ctx context.Context, date time.Time) ([]*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE start_date > $1
		ORDER BY start_date ASC`
	return r.list(ctx, "list periods after date", query, date)
}

// FindOverlapping returns the periods sharing at least one day with [start, end]
func (r *PeriodRepository) FindOverlapping(ctx context.Context, start, end time.Time) ([]*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date ASC`
	return r.list(ctx, "find overlapping periods", query, start, end)
}

func (r *PeriodRepository) list(ctx context.Context, op, query string, args ...any) ([]*period.Period, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var periods []*period.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			r.logger.Error("Failed to scan period", "error", err)
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over periods", "error", err)
		return nil, fmt.Errorf("error iterating over periods: %w", err)
	}

	return periods, nil
}

// LockForUpdate obtains a row lock on the period for the rest of the transaction
func (r *PeriodRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*period.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE id = $1 FOR UPDATE`

	p, err := scanPeriod(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, period.ErrPeriodNotFound{PeriodID: id}
		}
		r.logger.Error("Failed to lock period for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock period for update: %w", err)
	}
	return p, nil
}

// MarkClosed persists the closed state; it fails if the period is no longer open
func (r *PeriodRepository) MarkClosed(ctx context.Context, p *period.Period) error {
	query := `
		UPDATE accounting_periods
		SET is_closed = TRUE, closed_at = $1, closed_by = $2, version = $3, updated_at = $4
		WHERE id = $5 AND is_closed = FALSE
	`

	result, err := r.querier.Exec(ctx, query, p.ClosedAt, p.ClosedBy, p.Version, p.UpdatedAt, p.ID)
	if err != nil {
		r.logger.Error("Failed to mark period closed", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to mark period closed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return period.ErrPeriodAlreadyClosed{PeriodID: p.ID, Code: p.Code}
	}
	return nil
}

// MarkReopened persists the reopen lineage; it fails if the period is not closed
func (r *PeriodRepository) MarkReopened(ctx context.Context, p *period.Period) error {
	query := `
		UPDATE accounting_periods
		SET is_closed = FALSE, reopen_at = $1, reopen_by = $2, reopen_reason = $3, version = $4, updated_at = $5
		WHERE id = $6 AND is_closed = TRUE
	`

	result, err := r.querier.Exec(ctx, query, p.ReopenAt, p.ReopenBy, p.ReopenReason, p.Version, p.UpdatedAt, p.ID)
	if err != nil {
		r.logger.Error("Failed to mark period reopened", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to mark period reopened: %w", err)
	}

	if result.RowsAffected() == 0 {
		return period.ErrPeriodNotClosed{PeriodID: p.ID}
	}
	return nil
}
