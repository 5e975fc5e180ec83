package closectl

import (
	"context"

	"github.com/erp-period-closing/internal/api_gateway/service"
	"github.com/erp-period-closing/internal/closing/components"
	"github.com/erp-period-closing/internal/config"
	"github.com/erp-period-closing/internal/logger"
	"github.com/erp-period-closing/internal/platform/persistence"
)

// NewStoreBackend returns a factory that connects to PostgreSQL and MongoDB
// with the given configuration
func NewStoreBackend(cfg *config.Config) BackendFactory {
	return func(ctx context.Context) (*Backend, error) {
		log := logger.NewStderrLogger(cfg)

		postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
		if err != nil {
			postgresDB.Close()
			return nil, err
		}

		deps := components.NewStoreDependencies(log, postgresDB, mongoDB)
		return &Backend{
			Periods:      deps.PeriodRepo,
			Closing:      components.CreateClosingService(deps, logger.ForComponent(log, "closing_service"), cfg),
			TrialBalance: service.NewTrialBalanceQueryService(log, deps.PeriodRepo, deps.TrialBalanceRepo, deps.Registry, deps.RunRepo),
			Close: func() {
				postgresDB.Close()
				if err := mongoDB.Close(context.Background()); err != nil {
					log.Error("Error closing MongoDB connection", "error", err)
				}
			},
		}, nil
	}
}
