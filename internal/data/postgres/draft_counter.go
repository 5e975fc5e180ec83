package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// DraftTable describes where one document category keeps its workflow state
type DraftTable struct {
	Category      closing.DocumentCategory
	Requirement   string
	Table         string
	DateColumn    string
	DraftStatuses []string
}

// DefaultDraftTables lists the document categories that post to the ledger
func DefaultDraftTables() []DraftTable {
	return []DraftTable{
		{
			Category:      closing.CategoryJournalEntries,
			Requirement:   "Post or delete all draft journal entries",
			Table:         "journal_entries",
			DateColumn:    "transaction_date",
			DraftStatuses: []string{"DRAFT"},
		},
		{
			Category:      closing.CategorySalesInvoices,
			Requirement:   "Approve or void all draft sales invoices",
			Table:         "sales_invoices",
			DateColumn:    "invoice_date",
			DraftStatuses: []string{"DRAFT", "PENDING_APPROVAL"},
		},
		{
			Category:      closing.CategoryExpenseClaims,
			Requirement:   "Approve or reject all submitted expense claims",
			Table:         "expense_claims",
			DateColumn:    "claim_date",
			DraftStatuses: []string{"DRAFT", "SUBMITTED"},
		},
		{
			Category:      closing.CategoryPurchaseOrders,
			Requirement:   "Approve or cancel all draft purchase orders",
			Table:         "purchase_orders",
			DateColumn:    "order_date",
			DraftStatuses: []string{"DRAFT", "PENDING_APPROVAL"},
		},
	}
}

// DraftCounter counts non-final documents of one table
type DraftCounter struct {
	querier persistence.Querier
	logger  *slog.Logger
	table   DraftTable
	query   string
}

var _ closing.DraftCounter = (*DraftCounter)(nil)

// NewDraftCounter creates a counter for one document table
func NewDraftCounter(logger *slog.Logger, db *persistence.PostgresDB, table DraftTable) *DraftCounter {
	return newDraftCounter(db.Pool(), logger, table)
}

// NewDraftCounters creates one counter per table, preserving order
func NewDraftCounters(logger *slog.Logger, db *persistence.PostgresDB, tables []DraftTable) []closing.DraftCounter {
	counters := make([]closing.DraftCounter, 0, len(tables))
	for _, t := range tables {
		counters = append(counters, NewDraftCounter(logger, db, t))
	}
	return counters
}

func newDraftCounter(q persistence.Querier, logger *slog.Logger, table DraftTable) *DraftCounter {
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE status = ANY($1) AND %s BETWEEN $2 AND $3`,
		pgx.Identifier{table.Table}.Sanitize(),
		pgx.Identifier{table.DateColumn}.Sanitize(),
	)
	return &DraftCounter{
		querier: q,
		logger:  logger.With("category", string(table.Category)),
		table:   table,
		query:   query,
	}
}

func (c *DraftCounter) Category() closing.DocumentCategory {
	return c.table.Category
}

func (c *DraftCounter) Requirement() string {
	return c.table.Requirement
}

// CountDraftsInRange counts documents dated within [start, end] in a draft status
func (c *DraftCounter) CountDraftsInRange(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	if err := c.querier.QueryRow(ctx, c.query, c.table.DraftStatuses, start, end).Scan(&count); err != nil {
		c.logger.Error("Failed to count draft documents", "table", c.table.Table, "error", err)
		return 0, fmt.Errorf("failed to count draft %s: %w", c.table.Table, err)
	}
	return count, nil
}
