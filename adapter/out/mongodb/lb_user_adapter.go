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
// MongoDB User Adapter
// =============================================================================

const collectionUsers = "users"

// UserAdapter implements out.UserRepository using MongoDB.
type UserAdapter struct {
	collection *mongo.Collection
}

// NewUserAdapter creates a new MongoDB user adapter.
func NewUserAdapter(db *mongo.Database) *UserAdapter {
	return &UserAdapter{collection: db.Collection(collectionUsers)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *UserAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type userDocument struct {
	Username    string    `bson:"username"`
	Name        string    `bson:"name,omitempty"`
	JobsApplied int       `bson:"jobs_applied"`
	CreatedAt   time.Time `bson:"created_at"`
}

// =============================================================================
// Operations
// =============================================================================

// GetByUsername retrieves a user; nil, nil when absent.
func (a *UserAdapter) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var doc userDocument
	err := a.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return a.toEntity(&doc), nil
}

// List returns all users in join order.
func (a *UserAdapter) List(ctx context.Context) ([]*domain.User, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := a.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, a.toEntity(&doc))
	}

	return users, cursor.Err()
}

// Create inserts a new user.
func (a *UserAdapter) Create(ctx context.Context, user *domain.User) error {
	_, err := a.collection.InsertOne(ctx, a.toDocument(user))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Delete removes a user by username.
func (a *UserAdapter) Delete(ctx context.Context, username string) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// AdjustJobsApplied shifts the denormalized counter by delta, floored at zero.
// The floor runs in a pipeline update so concurrent decrements cannot push the
// counter negative.
func (a *UserAdapter) AdjustJobsApplied(ctx context.Context, username string, delta int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"jobs_applied": bson.M{
				"$max": bson.A{0, bson.M{"$add": bson.A{"$jobs_applied", delta}}},
			},
		}}},
	}

	_, err := a.collection.UpdateOne(ctx, bson.M{"username": username}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to adjust job counter: %w", err)
	}
	return nil
}

// SetJobsApplied overwrites the counter, used by reconciliation.
func (a *UserAdapter) SetJobsApplied(ctx context.Context, username string, count int) error {
	update := bson.M{"$set": bson.M{"jobs_applied": count}}

	_, err := a.collection.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("failed to set job counter: %w", err)
	}
	return nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *UserAdapter) toDocument(user *domain.User) *userDocument {
	return &userDocument{
		Username:    user.Username,
		Name:        user.Name,
		JobsApplied: user.JobsApplied,
		CreatedAt:   user.CreatedAt,
	}
}

func (a *UserAdapter) toEntity(doc *userDocument) *domain.User {
	return &domain.User{
		Username:    doc.Username,
		Name:        doc.Name,
		JobsApplied: doc.JobsApplied,
		CreatedAt:   doc.CreatedAt,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.UserRepository = (*UserAdapter)(nil)
