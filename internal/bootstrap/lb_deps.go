package bootstrap

import (
	"context"

	"leaderboard_server/adapter/out/mongodb"
	"leaderboard_server/adapter/out/rediscache"
	"leaderboard_server/adapter/out/statsapi"
	"leaderboard_server/config"
	"leaderboard_server/core/port/out"
	"leaderboard_server/core/service/leaderboard"
	"leaderboard_server/core/service/roster"
	"leaderboard_server/core/service/snapshot"
	"leaderboard_server/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies wires every adapter and service of the application.
type Dependencies struct {
	Config  *config.Config
	MongoDB *mongo.Client
	Redis   *redis.Client

	// Repositories
	UserRepo     out.UserRepository
	JobRepo      out.JobRepository
	SnapshotRepo out.SnapshotRepository

	// Outbound adapters
	StatsProvider out.StatsProvider
	Cache         out.Cache

	// Services
	SnapshotService    *snapshot.Service
	RosterService      *roster.Service
	LeaderboardService *leaderboard.Service
}

// NewDependencies builds the dependency graph. MongoDB is the primary store
// and is required; Redis is optional and its absence only disables the board
// cache.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// MongoDB
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		mongoClient.Disconnect(context.Background())
	})

	db := mongoClient.Database(cfg.MongoDBName)
	userAdapter := mongodb.NewUserAdapter(db)
	jobAdapter := mongodb.NewJobAdapter(db)
	snapshotAdapter := mongodb.NewSnapshotAdapter(db)
	deps.UserRepo = userAdapter
	deps.JobRepo = jobAdapter
	deps.SnapshotRepo = snapshotAdapter

	if err := mongodb.EnsureAllIndexes(context.Background(), userAdapter, jobAdapter, snapshotAdapter); err != nil {
		logger.Warn("Failed to ensure MongoDB indexes: %v", err)
	}

	// Redis (optional)
	if cfg.RedisURL != "" {
		redisClient, err := rediscache.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, boards will not be cached: %v", err)
		} else {
			deps.Redis = redisClient
			deps.Cache = rediscache.NewCacheAdapter(redisClient)
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// Stats source
	deps.StatsProvider = statsapi.NewAdapter(cfg)

	// Services
	deps.SnapshotService = snapshot.NewService(deps.SnapshotRepo)
	deps.LeaderboardService = leaderboard.NewService(
		deps.UserRepo,
		deps.StatsProvider,
		deps.SnapshotService,
		deps.Cache,
		cfg,
	)
	deps.RosterService = roster.NewService(
		deps.UserRepo,
		deps.JobRepo,
		deps.StatsProvider,
		deps.SnapshotService,
	)
	// Roster mutations drop cached boards; wired late because the
	// leaderboard service is built after the roster's other deps.
	deps.RosterService.SetInvalidator(deps.LeaderboardService)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}
