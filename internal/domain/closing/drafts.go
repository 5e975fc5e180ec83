package closing

import (
	"context"
	"time"
)

// DocumentCategory names an external document type that posts to the ledger
type DocumentCategory string

const (
	CategoryJournalEntries DocumentCategory = "JOURNAL_ENTRIES"
	CategorySalesInvoices  DocumentCategory = "SALES_INVOICES"
	CategoryExpenseClaims  DocumentCategory = "EXPENSE_CLAIMS"
	CategoryPurchaseOrders DocumentCategory = "PURCHASE_ORDERS"
)

// DraftCounter counts documents of one category that are still in a
// non-final workflow state and dated within [start, end].
type DraftCounter interface {
	Category() DocumentCategory
	Requirement() string
	CountDraftsInRange(ctx context.Context, start, end time.Time) (int, error)
}

// DraftCheck is the outcome of one DraftCounter for a period
type DraftCheck struct {
	Category    DocumentCategory `json:"category" bson:"category"`
	Requirement string           `json:"requirement" bson:"requirement"`
	DraftCount  int              `json:"draft_count" bson:"draft_count"`
	Passed      bool             `json:"passed" bson:"passed"`
}
