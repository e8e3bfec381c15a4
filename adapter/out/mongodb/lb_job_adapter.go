package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leaderboard_server/core/domain"
	"leaderboard_server/core/port/out"
)

// =============================================================================
// MongoDB Job Adapter
// =============================================================================

const collectionJobs = "jobs"

// JobAdapter implements out.JobRepository using MongoDB.
type JobAdapter struct {
	collection *mongo.Collection
}

// NewJobAdapter creates a new MongoDB job adapter.
func NewJobAdapter(db *mongo.Database) *JobAdapter {
	return &JobAdapter{collection: db.Collection(collectionJobs)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *JobAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "username", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type jobDocument struct {
	ID        string    `bson:"id"`
	Username  string    `bson:"username"`
	Title     string    `bson:"title"`
	Company   string    `bson:"company,omitempty"`
	URL       string    `bson:"url,omitempty"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

// =============================================================================
// Operations
// =============================================================================

// Create inserts a new job application.
func (a *JobAdapter) Create(ctx context.Context, job *domain.Job) error {
	_, err := a.collection.InsertOne(ctx, a.toDocument(job))
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job; nil, nil when absent.
func (a *JobAdapter) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var doc jobDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return a.toEntity(&doc), nil
}

// ListByUsername returns a user's applications, newest first.
func (a *JobAdapter) ListByUsername(ctx context.Context, username string) ([]*domain.Job, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := a.collection.Find(ctx, bson.M{"username": username}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []*domain.Job
	for cursor.Next(ctx) {
		var doc jobDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode job: %w", err)
		}
		jobs = append(jobs, a.toEntity(&doc))
	}

	return jobs, cursor.Err()
}

// UpdateStatus sets the pipeline stage.
func (a *JobAdapter) UpdateStatus(ctx context.Context, id string, status domain.JobStatus) error {
	update := bson.M{"$set": bson.M{"status": string(status)}}

	_, err := a.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// Delete removes one job application.
func (a *JobAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// DeleteByUsername removes all of a user's applications.
func (a *JobAdapter) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	result, err := a.collection.DeleteMany(ctx, bson.M{"username": username})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user jobs: %w", err)
	}
	return result.DeletedCount, nil
}

// CountByUsername returns the true application count per username.
func (a *JobAdapter) CountByUsername(ctx context.Context) (map[string]int, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$username",
				"count": bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int)
	for cursor.Next(ctx) {
		var result struct {
			Username string `bson:"_id"`
			Count    int    `bson:"count"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode job count: %w", err)
		}
		counts[result.Username] = result.Count
	}

	return counts, cursor.Err()
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *JobAdapter) toDocument(job *domain.Job) *jobDocument {
	return &jobDocument{
		ID:        job.ID,
		Username:  job.Username,
		Title:     job.Title,
		Company:   job.Company,
		URL:       job.URL,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	}
}

func (a *JobAdapter) toEntity(doc *jobDocument) *domain.Job {
	return &domain.Job{
		ID:        doc.ID,
		Username:  doc.Username,
		Title:     doc.Title,
		Company:   doc.Company,
		URL:       doc.URL,
		Status:    domain.JobStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.JobRepository = (*JobAdapter)(nil)
