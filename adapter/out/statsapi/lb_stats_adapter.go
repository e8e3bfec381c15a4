// Package statsapi implements the outbound stats provider against the public
// problem-stats HTTP API.
package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"leaderboard_server/config"
	"leaderboard_server/core/domain"
	"leaderboard_server/core/port/out"
	"leaderboard_server/pkg/httputil"
	"leaderboard_server/pkg/logger"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// Stats API Adapter
// =============================================================================

// Adapter implements out.StatsProvider against the stats HTTP API. Transient
// upstream failures are retried with exponential backoff; sustained failure
// trips a circuit breaker so a dead upstream fails fast instead of holding
// every board request for the full retry budget.
type Adapter struct {
	baseURL    string
	client     *http.Client
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	retryBase  time.Duration
	log        *logger.Logger
}

// NewAdapter creates a new stats API adapter.
func NewAdapter(cfg *config.Config) *Adapter {
	log := logger.WithField("component", "statsapi")

	cbSettings := gobreaker.Settings{
		Name:        "stats-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// An unknown username is a correct answer from a healthy
		// upstream; it must never push the breaker toward open.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrUserNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Adapter{
		baseURL:    strings.TrimRight(cfg.StatsAPIURL, "/"),
		client:     httputil.StatsAPIClient(),
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		maxRetries: cfg.FetchMaxRetries,
		retryBase:  cfg.FetchRetryBase,
		log:        log,
	}
}

var _ out.StatsProvider = (*Adapter)(nil)

// statsResponse is the upstream wire format.
type statsResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TotalSolved  int    `json:"totalSolved"`
	EasySolved   int    `json:"easySolved"`
	MediumSolved int    `json:"mediumSolved"`
	HardSolved   int    `json:"hardSolved"`
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Fetch retrieves one user's solved counts.
//
// domain.ErrUserNotFound is terminal and returned immediately; everything else
// is retried up to the configured budget with exponential backoff. An open
// breaker aborts the loop at once.
func (a *Adapter) Fetch(ctx context.Context, username string) (*domain.SolvedStats, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.retryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			a.log.Debug("Retrying stats fetch for %s (attempt %d)", username, attempt+1)
		}

		result, err := a.cb.Execute(func() (interface{}, error) {
			return a.fetchOnce(ctx, username)
		})
		if err == nil {
			return result.(*domain.SolvedStats), nil
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("stats source circuit open: %w", err)
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, perm.err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("stats fetch for %s failed after %d attempts: %w", username, a.maxRetries+1, lastErr)
}

func (a *Adapter) fetchOnce(ctx context.Context, username string) (*domain.SolvedStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("failed to build stats request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read stats response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("stats source returned %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("stats source rate limited the request")
	case resp.StatusCode != http.StatusOK:
		return nil, &permanentError{fmt.Errorf("stats source returned unexpected status %d", resp.StatusCode)}
	}

	var payload statsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	// The upstream answers 200 with status "error" for unknown usernames.
	if payload.Status != "success" {
		return nil, domain.ErrUserNotFound
	}

	return &domain.SolvedStats{
		Easy:   payload.EasySolved,
		Medium: payload.MediumSolved,
		Hard:   payload.HardSolved,
		Total:  payload.TotalSolved,
	}, nil
}
