package trialbalance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists trial balance snapshots
type Repository interface {
	// GetSnapshotHeader returns nil when the period was never calculated
	GetSnapshotHeader(ctx context.Context, periodID uuid.UUID) (*Header, error)
	GetEndingBalances(ctx context.Context, periodID uuid.UUID) (map[uuid.UUID]BalanceRow, error)
	ListRows(ctx context.Context, periodID uuid.UUID, filter Filter) ([]ReportRow, error)

	// ReplaceSnapshot removes the period's rows and writes the new set
	ReplaceSnapshot(ctx context.Context, snapshot *Snapshot) error
	WithTx(tx pgx.Tx) Repository
}
