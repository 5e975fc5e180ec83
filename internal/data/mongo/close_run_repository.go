// Package mongo stores the close-run audit log in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// CloseRunCollectionName is the name of the close-run collection in MongoDB
	CloseRunCollectionName = "close_runs"

	defaultRunListLimit = 50
)

// CloseRunRepository implements the closing.RunRepository interface for MongoDB
type CloseRunRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewCloseRunRepository creates a new MongoDB close-run repository
func NewCloseRunRepository(logger *slog.Logger, db *mongo.Database) closing.RunRepository {
	return &CloseRunRepository{
		db:     db,
		logger: logger,
	}
}

// Record upserts the run by RunID. The outbox poller may deliver the same
// run more than once; the stored copy converges on the last write.
func (r *CloseRunRepository) Record(ctx context.Context, run *closing.CloseRun) error {
	collection := r.db.Collection(CloseRunCollectionName)

	filter := bson.M{"run_id": run.RunID}
	_, err := collection.ReplaceOne(ctx, filter, run, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to record close run",
			"run_id", run.RunID.String(),
			"period_id", run.PeriodID.String(),
			"error", err)
		return fmt.Errorf("failed to record close run: %w", err)
	}

	return nil
}

// GetByRunID returns ErrRunNotFound when the run was never recorded
func (r *CloseRunRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*closing.CloseRun, error) {
	collection := r.db.Collection(CloseRunCollectionName)

	var run closing.CloseRun
	err := collection.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, closing.ErrRunNotFound{RunID: runID}
		}
		r.logger.Error("Failed to get close run",
			"run_id", runID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get close run: %w", err)
	}

	return &run, nil
}

// ListByPeriod returns the period's runs, newest first
func (r *CloseRunRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID, limit int) ([]*closing.CloseRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	collection := r.db.Collection(CloseRunCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"period_id": periodID}, opts)
	if err != nil {
		r.logger.Error("Failed to list close runs",
			"period_id", periodID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list close runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := make([]*closing.CloseRun, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		r.logger.Error("Failed to decode close runs",
			"period_id", periodID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode close runs: %w", err)
	}

	return runs, nil
}
