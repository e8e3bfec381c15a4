// Package roster manages the tracked user list and the job-application log.
package roster

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"leaderboard_server/core/domain"
	"leaderboard_server/core/port/out"
	"leaderboard_server/core/service/score"
	"leaderboard_server/pkg/apperr"
	"leaderboard_server/pkg/logger"
)

// usernamePattern matches the identifier charset the stats source accepts.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,40}$`)

// SnapshotStore is the slice of the snapshot service the roster needs: seeding
// a joiner's baseline and purging a leaver from current-period snapshots.
type SnapshotStore interface {
	SeedUserBaseline(ctx context.Context, username, name string, stats domain.UserStats) error
	RemoveUser(ctx context.Context, username string) error
}

// BoardInvalidator drops cached leaderboard payloads after a roster mutation.
type BoardInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service implements roster and job-log operations.
type Service struct {
	users       out.UserRepository
	jobs        out.JobRepository
	stats       out.StatsProvider
	snapshots   SnapshotStore
	invalidator BoardInvalidator
	log         *logger.Logger
}

// NewService creates a new roster service. The invalidator is wired after
// construction because the leaderboard service depends on the roster.
func NewService(users out.UserRepository, jobs out.JobRepository, stats out.StatsProvider, snapshots SnapshotStore) *Service {
	return &Service{
		users:     users,
		jobs:      jobs,
		stats:     stats,
		snapshots: snapshots,
		log:       logger.WithField("component", "roster"),
	}
}

// SetInvalidator wires the board cache invalidation hook.
func (s *Service) SetInvalidator(inv BoardInvalidator) {
	s.invalidator = inv
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// AddUser validates the username against the stats source before any write:
// a username the source does not know would sit on every board as a permanent
// error row, so it is rejected up front. The fetched lifetime stats become the
// user's baseline in every already-materialized current-period snapshot.
func (s *Service) AddUser(ctx context.Context, username, name string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.MissingField("username")
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperr.InvalidInput("username", "must be 1-40 characters of letters, digits, '_' or '-'")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.DatabaseError("get user", err)
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("user '" + username + "'")
	}

	solved, err := s.stats.Fetch(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperr.UpstreamNotFound(username)
		}
		return nil, apperr.UpstreamUnavailable("stats source", err)
	}

	user := &domain.User{
		Username:  username,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.DatabaseError("create user", err)
	}

	baseline := domain.UserStats{
		Username: username,
		Name:     user.Name,
		Easy:     solved.Easy,
		Medium:   solved.Medium,
		Hard:     solved.Hard,
		Total:    solved.Total,
		XP:       score.XP(0, solved.Easy, solved.Medium, solved.Hard),
	}
	// Seeding is best-effort: a failed patch means the user shows zero
	// progress until the next period, which is recoverable, while failing
	// the whole add is not.
	if err := s.snapshots.SeedUserBaseline(ctx, username, user.Name, baseline); err != nil {
		s.log.WithError(err).Error("Failed to seed baselines for new user %s", username)
	}

	s.invalidate(ctx)
	s.log.Info("Added user %s to roster", username)
	return user, nil
}

// RemoveUser deletes the user, their job log, and their entries in the
// current-period snapshots. Historical snapshots are left intact.
func (s *Service) RemoveUser(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return apperr.DatabaseError("get user", err)
	}
	if user == nil {
		return apperr.NotFound("user '" + username + "'")
	}

	removed, err := s.jobs.DeleteByUsername(ctx, username)
	if err != nil {
		return apperr.DatabaseError("delete jobs", err)
	}
	if err := s.users.Delete(ctx, username); err != nil {
		return apperr.DatabaseError("delete user", err)
	}
	if err := s.snapshots.RemoveUser(ctx, username); err != nil {
		s.log.WithError(err).Error("Failed to purge %s from current snapshots", username)
	}

	s.invalidate(ctx)
	s.log.Info("Removed user %s (and %d jobs) from roster", username, removed)
	return nil
}

// ListUsers returns the full roster.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list users", err)
	}
	return users, nil
}

// AddJob records a job application for a roster member and bumps their
// denormalized counter.
func (s *Service) AddJob(ctx context.Context, username, title, company, url string) (*domain.Job, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.MissingField("username")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.MissingField("title")
	}
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, apperr.MissingField("company")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.DatabaseError("get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user '" + username + "'")
	}

	job := &domain.Job{
		ID:        uuid.New().String(),
		Username:  username,
		Title:     title,
		Company:   company,
		URL:       strings.TrimSpace(url),
		Status:    domain.JobStatusApplied,
		CreatedAt: time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperr.DatabaseError("create job", err)
	}
	if err := s.users.AdjustJobsApplied(ctx, username, 1); err != nil {
		return nil, apperr.DatabaseError("increment job counter", err)
	}

	s.invalidate(ctx)
	return job, nil
}

// AdvanceJob moves a job one step along the pipeline (offer wraps back to
// applied). The counter tracks applications, not stages, so it is untouched.
func (s *Service) AdvanceJob(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.DatabaseError("get job", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job")
	}

	job.Status = job.Status.Next()
	if err := s.jobs.UpdateStatus(ctx, id, job.Status); err != nil {
		return nil, apperr.DatabaseError("update job status", err)
	}
	return job, nil
}

// DeleteJob removes one application and decrements the owner's counter.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return apperr.DatabaseError("get job", err)
	}
	if job == nil {
		return apperr.NotFound("job")
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		return apperr.DatabaseError("delete job", err)
	}
	if err := s.users.AdjustJobsApplied(ctx, job.Username, -1); err != nil {
		return apperr.DatabaseError("decrement job counter", err)
	}

	s.invalidate(ctx)
	return nil
}

// ListJobs returns a user's applications.
func (s *Service) ListJobs(ctx context.Context, username string) ([]*domain.Job, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.DatabaseError("get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user '" + username + "'")
	}

	jobs, err := s.jobs.ListByUsername(ctx, username)
	if err != nil {
		return nil, apperr.DatabaseError("list jobs", err)
	}
	return jobs, nil
}

// ReconcileJobCounts rewrites every denormalized counter from the true per-user
// count in the job log and returns how many users were corrected. Run from the
// admin endpoint and the background worker to heal drift from partial writes.
func (s *Service) ReconcileJobCounts(ctx context.Context) (int, error) {
	counts, err := s.jobs.CountByUsername(ctx)
	if err != nil {
		return 0, apperr.DatabaseError("count jobs", err)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, apperr.DatabaseError("list users", err)
	}

	fixed := 0
	for _, u := range users {
		want := counts[u.Username]
		if u.JobsApplied == want {
			continue
		}
		if err := s.users.SetJobsApplied(ctx, u.Username, want); err != nil {
			return fixed, apperr.DatabaseError("set job counter", err)
		}
		s.log.Warn("Reconciled job counter for %s: %d -> %d", u.Username, u.JobsApplied, want)
		fixed++
	}

	if fixed > 0 {
		s.invalidate(ctx)
	}
	return fixed, nil
}
