package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

const upcomingPayload = `{
  "data": [
    {
      "id": "ID_123",
      "start_time": "2025-11-26T14:00:00Z",
      "raw_time": "November 26, 2025 - 14:00 UTC",
      "team1": {"name": "Alpha", "url": "/dota2/Alpha"},
      "team2": {"name": "Beta", "url": "/dota2/Beta"},
      "score": "",
      "best_of": 3,
      "tournament": "Cup",
      "tournament_url": "/dota2/Cup",
      "status": "Upcoming",
      "detail_url": "/dota2/Match:ID_123"
    },
    {
      "id": "ID_124",
      "timestamp": 1764172800,
      "team1": {"name": "Gamma"},
      "team2": {"name": "Delta"},
      "best_of": 99
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL + "/",
		Token:          "secret",
		MaxRetries:     2,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	client.retry.Backoff = 0
	return client
}

func TestClient_FetchUpcoming(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/dota2/matches" || r.URL.Query().Get("view") != "upcoming" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(upcomingPayload))
	}, resilience.CircuitBreakerConfig{})

	got, err := client.FetchUpcoming(context.Background(), "dota2")
	if err != nil {
		t.Fatalf("fetch upcoming: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected invalid item to be skipped, got %d snapshots", len(got))
	}

	s := got[0]
	want := time.Date(2025, 11, 26, 14, 0, 0, 0, time.UTC)
	if !s.ScheduledAt.Equal(want) || s.Game != "dota2" || s.Format != 3 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.Team1 != "Alpha" || s.Team2URL != "/dota2/Beta" || s.ExternalID != "ID_123" {
		t.Fatalf("unexpected teams or id: %+v", s)
	}
	if s.StatusHint != match.StatusUpcoming || s.TournamentURL != "/dota2/Cup" {
		t.Fatalf("unexpected status or tournament: %+v", s)
	}
}

func TestMatchDTO_ScheduledAtFallsBackToTimestamp(t *testing.T) {
	t.Parallel()

	d := matchDTO{StartTime: "not a time", Timestamp: 1764165600}
	if got := d.scheduledAt(); !got.Equal(time.Date(2025, 11, 26, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %s", got)
	}
	if got := (matchDTO{}).scheduledAt(); !got.IsZero() {
		t.Fatalf("expected zero time, got %s", got)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, resilience.CircuitBreakerConfig{})

	got, err := client.FetchCompleted(context.Background(), "dota2")
	if err != nil {
		t.Fatalf("fetch completed: %v", err)
	}
	if len(got) != 0 || calls.Load() != 3 {
		t.Fatalf("expected three calls and no snapshots, got calls=%d len=%d", calls.Load(), len(got))
	}
}

func TestClient_PermanentStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})

	_, err := client.FetchUpcoming(context.Background(), "dota2")
	if err == nil || errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one call, got %d", calls.Load())
	}
	if client.breaker.State() != resilience.CircuitStateClosed {
		t.Fatalf("permanent answers must not open the breaker")
	}
}

func TestClient_BreakerOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Hour})

	ctx := context.Background()
	if _, err := client.FetchUpcoming(ctx, "dota2"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected retries before giving up, got %d calls", calls.Load())
	}

	if _, err := client.FetchUpcoming(ctx, "dota2"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open breaker to reject, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("open breaker must not call the feed, got %d calls", calls.Load())
	}
}

func TestClient_FetchTournaments(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/dota2/tournaments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"name":"  The   International ", "url":"https://liquipedia.net/dota2/The_International/2025/", "tier":"1"},
			{"name":""}
		]}`))
	}, resilience.CircuitBreakerConfig{})

	got, err := client.FetchTournaments(context.Background(), "dota2")
	if err != nil {
		t.Fatalf("fetch tournaments: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected nameless tournament to be skipped, got %+v", got)
	}
	if got[0].Name != "The International" || got[0].Path != "/dota2/The_International/2025" || got[0].Game != "dota2" {
		t.Fatalf("unexpected tournament: %+v", got[0])
	}
}

func TestClient_RequiresGame(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Logger: logging.NewNop()})
	if _, err := client.FetchUpcoming(context.Background(), " "); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
