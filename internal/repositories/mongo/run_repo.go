package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/eslsheets/internal/models"
	"github.com/yoockh/eslsheets/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RunsCollection = "extraction_runs"

type RunRepository interface {
	Create(ctx context.Context, r *models.ExtractionRun) error
	GetByRunID(ctx context.Context, runID string) (*models.ExtractionRun, error)
	ListByStudent(ctx context.Context, studentID string, limit int64) ([]models.ExtractionRun, error)
	MarkRunning(ctx context.Context, runID string, at time.Time) error
	Finish(ctx context.Context, runID string, update RunResult) error
}

// RunResult is what a finished run writes back.
type RunResult struct {
	Status          string
	FieldsExtracted []string
	Failure         *models.RunFailure
	ProfileVersion  int64
	FinishedAt      time.Time
	ProcessingMS    int64
}

type runRepo struct {
	col *mongo.Collection
}

func NewRunRepo(db *mongo.Database) RunRepository {
	return &runRepo{col: db.Collection(RunsCollection)}
}

func (r *runRepo) Create(ctx context.Context, run *models.ExtractionRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, run)
	return err
}

func (r *runRepo) GetByRunID(ctx context.Context, runID string) (*models.ExtractionRun, error) {
	var run models.ExtractionRun
	err := r.col.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &run, err
}

func (r *runRepo) ListByStudent(ctx context.Context, studentID string, limit int64) ([]models.ExtractionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"student_id": studentID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ExtractionRun
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) MarkRunning(ctx context.Context, runID string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"run_id": runID},
		bson.M{"$set": bson.M{
			"status":     models.RunRunning,
			"started_at": at.UTC(),
		}},
	)
	return err
}

func (r *runRepo) Finish(ctx context.Context, runID string, u RunResult) error {
	set := bson.M{
		"status":             u.Status,
		"finished_at":        u.FinishedAt.UTC(),
		"processing_time_ms": u.ProcessingMS,
	}
	if len(u.FieldsExtracted) > 0 {
		set["fields_extracted"] = u.FieldsExtracted
	}
	if u.Failure != nil {
		set["failure"] = u.Failure
	}
	if u.ProfileVersion > 0 {
		set["profile_version"] = u.ProfileVersion
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"run_id": runID}, bson.M{"$set": set})
	return err
}
