// Package leaderboard assembles the boards: fan-out stats fetch, baseline
// snapshots, progress deltas, ranking and the response cache.
package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"leaderboard_server/config"
	"leaderboard_server/core/domain"
	"leaderboard_server/core/port/out"
	"leaderboard_server/core/service/period"
	"leaderboard_server/core/service/progress"
	"leaderboard_server/core/service/score"
	"leaderboard_server/pkg/apperr"
	"leaderboard_server/pkg/logger"
)

const (
	cacheKeyPrefix     = "leaderboard:"
	cacheKeyPrevPrefix = "leaderboard:previous:"

	// errStatsUnavailable is the per-row message for transient fetch
	// failures; it must stay stable because the frontend matches on it.
	errStatsUnavailable = "stats temporarily unavailable"
	errUserGone         = "user not found on stats source"
)

// SnapshotStore is the slice of the snapshot service the board builder needs.
type SnapshotStore interface {
	EnsureCurrent(ctx context.Context, p domain.Period, current []domain.UserStats) (*domain.Snapshot, error)
	GetByKey(ctx context.Context, p domain.Period, key string) (*domain.Snapshot, error)
}

// Service builds leaderboard views on demand.
type Service struct {
	users     out.UserRepository
	stats     out.StatsProvider
	snapshots SnapshotStore
	cache     out.Cache // nil when no cache is configured
	cfg       *config.Config
	log       *logger.Logger

	now func() time.Time
}

// NewService creates a new leaderboard service.
func NewService(users out.UserRepository, stats out.StatsProvider, snapshots SnapshotStore, cache out.Cache, cfg *config.Config) *Service {
	return &Service{
		users:     users,
		stats:     stats,
		snapshots: snapshots,
		cache:     cache,
		cfg:       cfg,
		log:       logger.WithField("component", "leaderboard"),
		now:       time.Now,
	}
}

// FetchAll fetches live stats for the whole roster in small concurrent batches
// with a pause between them, keeping the request rate against the stats source
// polite. One user's failure never fails the pass: the row carries an error
// marker instead. Row order follows the roster; ranking happens later.
func (s *Service) FetchAll(ctx context.Context) ([]domain.UserStats, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list users", err)
	}
	if len(users) == 0 {
		return []domain.UserStats{}, nil
	}

	batchSize := s.cfg.FetchBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	results := make([]domain.UserStats, len(users))
	for start := 0; start < len(users); start += batchSize {
		if start > 0 && s.cfg.FetchBatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.FetchBatchPause):
			}
		}

		end := start + batchSize
		if end > len(users) {
			end = len(users)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.fetchOne(ctx, users[i])
			}(i)
		}
		wg.Wait()
	}

	return results, nil
}

func (s *Service) fetchOne(ctx context.Context, user *domain.User) domain.UserStats {
	row := domain.UserStats{
		Username:    user.Username,
		Name:        user.Name,
		JobsApplied: user.JobsApplied,
	}

	solved, err := s.stats.Fetch(ctx, user.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Renamed or deleted upstream after joining the roster.
			row.Error = errUserGone
		} else {
			row.Error = errStatsUnavailable
		}
		// JobsApplied comes from our own store, so the jobs tab stays
		// correct even while the stats source is down.
		s.log.WithError(err).Warn("Stats fetch failed for %s", user.Username)
		return row
	}

	row.Easy = solved.Easy
	row.Medium = solved.Medium
	row.Hard = solved.Hard
	row.Total = solved.Total
	row.XP = score.XP(row.JobsApplied, row.Easy, row.Medium, row.Hard)
	return row
}

// Board returns the requested leaderboard view, from cache when fresh.
//
// Period tabs lazily materialize the period's baseline snapshot on first
// access; if the snapshot store is unreachable the board degrades to lifetime
// totals flagged with BaselineMissing rather than failing the request.
func (s *Service) Board(ctx context.Context, tab domain.Tab) (*domain.Board, error) {
	cacheKey := cacheKeyPrefix + string(tab)
	if board, ok := s.cacheGet(ctx, cacheKey); ok {
		return board, nil
	}

	stats, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	board := &domain.Board{
		Tab:         tab,
		GeneratedAt: s.now(),
	}

	switch tab {
	case domain.TabAllTime:
		board.Entries = progress.Rank(stats)

	case domain.TabJobs:
		board.Entries = progress.RankByJobs(stats)

	default:
		p, ok := tab.Period()
		if !ok {
			return nil, apperr.BadRequest("unknown leaderboard tab: " + string(tab))
		}
		s.buildPeriodBoard(ctx, board, p, stats)
	}

	s.cacheSet(ctx, cacheKey, board)
	return board, nil
}

func (s *Service) buildPeriodBoard(ctx context.Context, board *domain.Board, p domain.Period, stats []domain.UserStats) {
	now := s.now()
	board.PeriodKey = period.Key(p, now)
	board.ResetInMS = period.UntilRollover(p, now).Milliseconds()

	snap, err := s.snapshots.EnsureCurrent(ctx, p, stats)
	if err != nil || snap == nil {
		s.log.WithError(err).Error("Snapshot unavailable for %s, serving lifetime totals", p)
		board.BaselineMissing = true
		board.Entries = progress.Rank(stats)
		return
	}

	rows := make([]domain.UserStats, 0, len(stats))
	for _, st := range stats {
		if st.Error != "" {
			rows = append(rows, st)
			continue
		}
		rows = append(rows, progress.Compute(st, snap.FindUser(st.Username)))
	}
	board.Entries = progress.Rank(rows)
}

// PreviousBoard reconstructs the finished previous period for a period tab
// from its two bracketing snapshots, with no live fetch at all.
func (s *Service) PreviousBoard(ctx context.Context, tab domain.Tab) (*domain.Board, error) {
	p, ok := tab.Period()
	if !ok {
		return nil, apperr.BadRequest("tab '" + string(tab) + "' has no previous period")
	}

	cacheKey := cacheKeyPrevPrefix + string(tab)
	if board, ok := s.cacheGet(ctx, cacheKey); ok {
		return board, nil
	}

	now := s.now()
	prevKey := period.PreviousKey(p, now)

	// The current period's baseline is the previous period's closing state.
	end, err := s.snapshots.GetByKey(ctx, p, period.Key(p, now))
	if err != nil {
		return nil, apperr.DatabaseError("load snapshot", err)
	}
	start, err := s.snapshots.GetByKey(ctx, p, prevKey)
	if err != nil {
		return nil, apperr.DatabaseError("load snapshot", err)
	}

	board := &domain.Board{
		Tab:         tab,
		PeriodKey:   prevKey,
		GeneratedAt: s.now(),
	}
	if end == nil {
		// Current period never materialized: nothing to reconstruct from.
		board.BaselineMissing = true
		board.Entries = []domain.UserStats{}
	} else {
		board.Entries = progress.PreviousBoard(end, start)
	}

	s.cacheSet(ctx, cacheKey, board)
	return board, nil
}

// Countdown reports the current period key and the time to the next rollover.
type Countdown struct {
	Tab       domain.Tab `json:"tab"`
	PeriodKey string     `json:"period_key"`
	ResetInMS int64      `json:"reset_in_ms"`
}

// CountdownFor returns rollover info for a period tab.
func (s *Service) CountdownFor(tab domain.Tab) (*Countdown, error) {
	p, ok := tab.Period()
	if !ok {
		return nil, apperr.BadRequest("tab '" + string(tab) + "' has no rollover")
	}
	now := s.now()
	return &Countdown{
		Tab:       tab,
		PeriodKey: period.Key(p, now),
		ResetInMS: period.UntilRollover(p, now).Milliseconds(),
	}, nil
}

// Refresh runs one background pass: fetch the roster's stats once, make sure
// every period's snapshot is materialized, then drop cached boards so the
// next read serves fresh data.
func (s *Service) Refresh(ctx context.Context) error {
	stats, err := s.FetchAll(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, p := range domain.Periods {
		if _, err := s.snapshots.EnsureCurrent(ctx, p, stats); err != nil {
			s.log.WithError(err).Error("Refresh could not ensure %s snapshot", p)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.Invalidate(ctx)
	return firstErr
}

// Invalidate drops every cached board payload. Called after roster or job-log
// mutations so boards never serve a stale roster for a full TTL.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, 2*len(domain.Tabs))
	for _, tab := range domain.Tabs {
		keys = append(keys, cacheKeyPrefix+string(tab), cacheKeyPrevPrefix+string(tab))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).Warn("Board cache invalidation failed")
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) (*domain.Board, bool) {
	if s.cache == nil {
		return nil, false
	}
	var board domain.Board
	found, err := s.cache.GetJSON(ctx, key, &board)
	if err != nil {
		s.log.WithError(err).Warn("Board cache read failed for %s", key)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &board, true
}

func (s *Service) cacheSet(ctx context.Context, key string, board *domain.Board) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, board, s.cfg.BoardCacheTTL); err != nil {
		s.log.WithError(err).Warn("Board cache write failed for %s", key)
	}
}
