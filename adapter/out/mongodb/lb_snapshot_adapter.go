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
// MongoDB Snapshot Adapter
// =============================================================================

const collectionSnapshots = "leaderboardSnapshots"

// SnapshotAdapter implements out.SnapshotRepository using MongoDB. The unique
// (period, periodKey) index is load-bearing: it is what turns a concurrent
// first-access race into ErrDuplicateSnapshot instead of two baselines.
type SnapshotAdapter struct {
	collection *mongo.Collection
}

// NewSnapshotAdapter creates a new MongoDB snapshot adapter.
func NewSnapshotAdapter(db *mongo.Database) *SnapshotAdapter {
	return &SnapshotAdapter{collection: db.Collection(collectionSnapshots)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *SnapshotAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "period", Value: 1},
				{Key: "periodKey", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type snapshotUserDocument struct {
	Username    string  `bson:"username"`
	Name        string  `bson:"name,omitempty"`
	JobsApplied int     `bson:"jobs_applied"`
	Easy        int     `bson:"easy"`
	Medium      int     `bson:"medium"`
	Hard        int     `bson:"hard"`
	Total       int     `bson:"total"`
	XP          float64 `bson:"xp"`
}

type snapshotDocument struct {
	Period    string                 `bson:"period"`
	PeriodKey string                 `bson:"periodKey"`
	CreatedAt time.Time              `bson:"createdAt"`
	Users     []snapshotUserDocument `bson:"users"`
}

// =============================================================================
// Operations
// =============================================================================

// Get retrieves a snapshot; nil, nil when the period was never captured.
func (a *SnapshotAdapter) Get(ctx context.Context, period domain.Period, periodKey string) (*domain.Snapshot, error) {
	filter := bson.M{"period": string(period), "periodKey": periodKey}

	var doc snapshotDocument
	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return a.toEntity(&doc), nil
}

// Insert persists a new snapshot; out.ErrDuplicateSnapshot on a key clash.
func (a *SnapshotAdapter) Insert(ctx context.Context, snapshot *domain.Snapshot) error {
	_, err := a.collection.InsertOne(ctx, a.toDocument(snapshot))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return out.ErrDuplicateSnapshot
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// AppendUser pushes a late joiner's baseline entry. The filter excludes
// documents already containing the username, so the push is a no-op both when
// the snapshot is absent and when the entry exists; baselines stay immutable.
func (a *SnapshotAdapter) AppendUser(ctx context.Context, period domain.Period, periodKey string, entry domain.SnapshotUserStats) error {
	filter := bson.M{
		"period":         string(period),
		"periodKey":     periodKey,
		"users.username": bson.M{"$ne": entry.Username},
	}
	update := bson.M{"$push": bson.M{"users": a.toUserDocument(entry)}}

	_, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append snapshot entry: %w", err)
	}
	return nil
}

// PullUser removes a user's entry from the snapshot, if present.
func (a *SnapshotAdapter) PullUser(ctx context.Context, period domain.Period, periodKey string, username string) error {
	filter := bson.M{"period": string(period), "periodKey": periodKey}
	update := bson.M{"$pull": bson.M{"users": bson.M{"username": username}}}

	_, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to pull snapshot entry: %w", err)
	}
	return nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func (a *SnapshotAdapter) toDocument(snapshot *domain.Snapshot) *snapshotDocument {
	users := make([]snapshotUserDocument, 0, len(snapshot.Users))
	for _, u := range snapshot.Users {
		users = append(users, a.toUserDocument(u))
	}
	return &snapshotDocument{
		Period:    string(snapshot.Period),
		PeriodKey: snapshot.PeriodKey,
		CreatedAt: snapshot.CreatedAt,
		Users:     users,
	}
}

func (a *SnapshotAdapter) toUserDocument(u domain.SnapshotUserStats) snapshotUserDocument {
	return snapshotUserDocument{
		Username:    u.Username,
		Name:        u.Name,
		JobsApplied: u.JobsApplied,
		Easy:        u.Easy,
		Medium:      u.Medium,
		Hard:        u.Hard,
		Total:       u.Total,
		XP:          u.XP,
	}
}

func (a *SnapshotAdapter) toEntity(doc *snapshotDocument) *domain.Snapshot {
	users := make([]domain.SnapshotUserStats, 0, len(doc.Users))
	for _, u := range doc.Users {
		users = append(users, domain.SnapshotUserStats{
			Username:    u.Username,
			Name:        u.Name,
			JobsApplied: u.JobsApplied,
			Easy:        u.Easy,
			Medium:      u.Medium,
			Hard:        u.Hard,
			Total:       u.Total,
			XP:          u.XP,
		})
	}
	return &domain.Snapshot{
		Period:    domain.Period(doc.Period),
		PeriodKey: doc.PeriodKey,
		CreatedAt: doc.CreatedAt,
		Users:     users,
	}
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.SnapshotRepository = (*SnapshotAdapter)(nil)
