package components

import (
	"log/slog"

	"github.com/erp-period-closing/internal/data/mongo"
	"github.com/erp-period-closing/internal/data/postgres"
	"github.com/erp-period-closing/internal/platform/persistence"
)

// NewStoreDependencies wires the PostgreSQL stores and the MongoDB audit log
func NewStoreDependencies(logger *slog.Logger, postgresDB *persistence.PostgresDB, mongoDB *persistence.MongoDB) Dependencies {
	return Dependencies{
		TxExecutor:       postgresDB,
		PeriodRepo:       postgres.NewPeriodRepository(logger, postgresDB),
		Registry:         postgres.NewAccountRepository(logger, postgresDB),
		Store:            postgres.NewLedgerStore(logger, postgresDB),
		TrialBalanceRepo: postgres.NewTrialBalanceRepository(logger, postgresDB),
		OutboxRepo:       postgres.NewOutboxRepository(logger, postgresDB),
		RunRepo:          mongo.NewCloseRunRepository(logger, mongoDB.Database()),
		Lock:             postgres.NewCloseLock(logger, postgresDB),
		DraftCounters:    postgres.NewDraftCounters(logger, postgresDB, postgres.DefaultDraftTables()),
	}
}
