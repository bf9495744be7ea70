package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobRecord is the persisted form of a finished or failed recognition job.
type JobRecord struct {
	SessionID     string    `bson:"session_id" json:"session_id"`
	CorrelationID string    `bson:"correlation_id" json:"correlation_id"`
	Phase         string    `bson:"phase" json:"phase"`
	PageCount     int       `bson:"page_count" json:"page_count"`
	ResultPath    string    `bson:"result_path,omitempty" json:"result_path,omitempty"`
	ErrorMessage  string    `bson:"error_message,omitempty" json:"error_message,omitempty"`
	StartedAt     time.Time `bson:"started_at" json:"started_at"`
	CompletedAt   time.Time `bson:"completed_at" json:"completed_at"`
	DurationMs    int64     `bson:"duration_ms" json:"duration_ms"`
}

// JobRepository persists terminal job records
type JobRepository struct {
	collection *mongo.Collection
}

// NewJobRepository creates a new job history repository
func NewJobRepository(db *MongoDB) *JobRepository {
	return &JobRepository{
		collection: db.GetCollection(CollectionJobHistory),
	}
}

// EnsureIndexes creates the indexes required for history queries
func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "completed_at", Value: -1}},
			Options: options.Index().SetName("idx_session_completed"),
		},
		{
			Keys:    bson.D{{Key: "completed_at", Value: -1}},
			Options: options.Index().SetName("idx_completed"),
		},
	}

	names, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create job history indexes: %w", err)
	}

	slog.Info("Job history indexes created", "indexes", names)
	return nil
}

// Record inserts a terminal job record. Failures are returned to the caller
// so the runner can log them without failing the job itself.
func (r *JobRepository) Record(ctx context.Context, record JobRecord) error {
	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(insertCtx, record); err != nil {
		return fmt.Errorf("failed to insert job record: %w", err)
	}
	return nil
}

// List returns the most recent terminal jobs, newest first.
func (r *JobRepository) List(ctx context.Context, limit int64) ([]JobRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(findCtx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer cursor.Close(findCtx)

	var records []JobRecord
	if err := cursor.All(findCtx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode job records: %w", err)
	}
	return records, nil
}
