package statsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leaderboard_server/config"
	"leaderboard_server/core/domain"
)

func newTestAdapter(t *testing.T, handler http.Handler) (*Adapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		StatsAPIURL:     srv.URL,
		FetchMaxRetries: 2,
		FetchRetryBase:  time.Millisecond,
	}
	return NewAdapter(cfg), srv
}

func successBody(easy, medium, hard int) string {
	return fmt.Sprintf(`{"status":"success","message":"retrieved","totalSolved":%d,"easySolved":%d,"mediumSolved":%d,"hardSolved":%d}`,
		easy+medium+hard, easy, medium, hard)
}

func TestFetch_Success(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alice" {
			t.Errorf("path = %s, want /alice", r.URL.Path)
		}
		fmt.Fprint(w, successBody(10, 4, 1))
	}))

	stats, err := adapter.Fetch(context.Background(), "alice")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stats.Easy != 10 || stats.Medium != 4 || stats.Hard != 1 || stats.Total != 15 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, successBody(1, 0, 0))
	}))

	stats, err := adapter.Fetch(context.Background(), "alice")
	if err != nil {
		t.Fatalf("fetch must succeed after retries: %v", err)
	}
	if stats.Easy != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetch_ExhaustsRetryBudget(t *testing.T) {
	var attempts atomic.Int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := adapter.Fetch(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	// MaxRetries=2 means one initial try plus two retries.
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetch_UnknownUserIsTerminal(t *testing.T) {
	var attempts atomic.Int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		fmt.Fprint(w, `{"status":"error","message":"user does not exist"}`)
	}))

	_, err := adapter.Fetch(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("terminal answers must not be retried, attempts = %d", got)
	}
}

func TestFetch_HTTPNotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := adapter.Fetch(context.Background(), "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestFetch_UnexpectedClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := adapter.Fetch(context.Background(), "alice")
	if err == nil || errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("4xx must not be retried, attempts = %d", got)
	}
}

func TestFetch_NotFoundDoesNotTripBreaker(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/alice" {
			fmt.Fprint(w, successBody(2, 0, 0))
			return
		}
		fmt.Fprint(w, `{"status":"error","message":"user does not exist"}`)
	}))

	// Far more misses than the trip threshold.
	for i := 0; i < 20; i++ {
		if _, err := adapter.Fetch(context.Background(), "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("miss %d: %v", i, err)
		}
	}

	if _, err := adapter.Fetch(context.Background(), "alice"); err != nil {
		t.Fatalf("breaker must stay closed after misses: %v", err)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.Fetch(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
