package usecase

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

func newBackfillForTest(repo match.Repository, details DetailFetcher, events EventPublisher) *BackfillService {
	svc := NewBackfillService(repo, details, events, DefaultBackfillConfig(), logging.NewNop())
	svc.now = fixedClock(cycleNow)
	return svc
}

func pastRow(key string) match.Match {
	return match.Match{
		Game:        "dota2",
		IdentityKey: key,
		ScheduledAt: cycleNow.Add(-2 * time.Hour),
		Team1:       "Alpha",
		Team2:       "Beta",
		Tournament:  "Cup",
		Format:      3,
		Status:      match.StatusLive,
	}
}

func TestBackfillService_RejectsPerMapScores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository()
	seeded := repo.Seed(pastRow("fallback-1"))

	completed := []match.Snapshot{{
		ScheduledAt: cycleNow.Add(-2 * time.Hour),
		Team1:       "Alpha",
		Team2:       "Beta",
		Tournament:  "Cup",
		Format:      3,
		Score:       "13:7",
	}}
	result, err := newBackfillForTest(repo, nil, nil).Backfill(ctx, "dota2", completed)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if result.Matched != 0 || result.Misses != 1 {
		t.Fatalf("expected a miss, got %+v", result)
	}
	got, _, _ := repo.GetByID(ctx, seeded[0].ID)
	if got.Status == match.StatusFinished || got.Score != "" {
		t.Fatalf("per-map score leaked into series row: %+v", got)
	}
	if !got.LastScoreCheckAt.Equal(cycleNow) {
		t.Fatalf("expected check time to be recorded, got %s", got.LastScoreCheckAt)
	}
}

func TestBackfillService_CompletedIndexStrategies(t *testing.T) {
	t.Parallel()

	byID := pastRow("lp:ID_1")
	byID.ExternalID = "ID_1"

	byLinks := pastRow("fallback-links")
	byLinks.Team1, byLinks.Team2 = "Alpha Esports", "Beta Gaming"
	byLinks.Team1URL, byLinks.Team2URL = "/dota2/Alpha", "/dota2/Beta"

	byName := pastRow("fallback-name")
	byName.Tournament = "Cup - Playoffs"

	tests := []struct {
		name      string
		row       match.Match
		snapshot  match.Snapshot
		strategy  match.Strategy
		wantScore string
	}{
		{
			name:      "external id",
			row:       byID,
			snapshot:  match.Snapshot{ExternalID: "ID_1", Team1: "Alpha", Team2: "Beta", Score: "2:0", Format: 3},
			strategy:  match.StrategyExternalID,
			wantScore: "2:0",
		},
		{
			name: "team links",
			row:  byLinks,
			snapshot: match.Snapshot{
				ScheduledAt: byLinks.ScheduledAt,
				Team1:       "Beta",
				Team2:       "Alpha",
				Team1URL:    "https://liquipedia.net/dota2/Beta",
				Team2URL:    "/dota2/Alpha",
				Score:       "1:2",
				Format:      3,
			},
			strategy:  match.StrategyTeamURLs,
			wantScore: "1:2",
		},
		{
			name: "fuzzy names",
			row:  byName,
			snapshot: match.Snapshot{
				ScheduledAt: byName.ScheduledAt.Add(3 * time.Hour),
				Team1:       "beta",
				Team2:       "ALPHA",
				Tournament:  "Cup",
				Score:       "2:1",
			},
			strategy:  match.StrategyFuzzyName,
			wantScore: "2:1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo := memory.NewMatchRepository()
			seeded := repo.Seed(tc.row)
			events := &recordingPublisher{}

			result, err := newBackfillForTest(repo, nil, events).Backfill(ctx, "dota2", []match.Snapshot{tc.snapshot})
			if err != nil {
				t.Fatalf("backfill: %v", err)
			}
			if result.Matched != 1 || result.ByStrategy[tc.strategy] != 1 {
				t.Fatalf("expected %s hit, got %+v", tc.strategy, result)
			}

			got, _, _ := repo.GetByID(ctx, seeded[0].ID)
			if got.Score != tc.wantScore || got.Status != match.StatusFinished {
				t.Fatalf("unexpected row after backfill: status=%s score=%s", got.Status, got.Score)
			}
			want := []match.EventType{match.EventScoreChanged, match.EventStatusChanged}
			if !slices.Equal(events.types(), want) {
				t.Fatalf("unexpected events: got=%v want=%v", events.types(), want)
			}
		})
	}
}

func TestBackfillService_DetailPageScoreIsPartialUntilStatusPass(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository()
	row := pastRow("fallback-detail")
	row.Status = match.StatusUpcoming
	row.DetailURL = "/dota2/Match:ID_55"
	seeded := repo.Seed(row)

	var calls atomic.Int32
	details := detailFetcherFunc(func(_ context.Context, detailURL string) (MatchDetail, bool, error) {
		calls.Add(1)
		if detailURL != row.DetailURL {
			t.Errorf("unexpected detail url %q", detailURL)
		}
		return MatchDetail{Score: "2:1", Format: 3}, true, nil
	})

	result, err := newBackfillForTest(repo, details, nil).Backfill(ctx, "dota2", nil)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if calls.Load() != 1 || result.ByStrategy[match.StrategyDetailPage] != 1 {
		t.Fatalf("expected one detail page hit, got calls=%d result=%+v", calls.Load(), result)
	}
	got, _, _ := repo.GetByID(ctx, seeded[0].ID)
	if got.Status != match.StatusLive || got.Score != "2:1" || got.ExternalID != "" {
		t.Fatalf("unexpected row after detail backfill: %+v", got)
	}

	if _, err := newStatusForTest(repo, nil, cycleNow).Advance(ctx, "dota2"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	got, _, _ = repo.GetByID(ctx, seeded[0].ID)
	if got.Status != match.StatusFinished {
		t.Fatalf("expected status pass to finish the series, got %s", got.Status)
	}
}

func TestBackfillService_DetailPageFailuresAreCountedNotFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository()

	failing := pastRow("fallback-a")
	failing.DetailURL = "/dota2/Match:ID_1"
	oversized := pastRow("fallback-b")
	oversized.Team1 = "Gamma"
	oversized.DetailURL = "/dota2/Match:ID_2"
	seeded := repo.Seed(failing, oversized)

	details := detailFetcherFunc(func(_ context.Context, detailURL string) (MatchDetail, bool, error) {
		if detailURL == failing.DetailURL {
			return MatchDetail{}, false, errors.New("429 too many requests")
		}
		return MatchDetail{Score: "16:14"}, true, nil
	})

	result, err := newBackfillForTest(repo, details, nil).Backfill(ctx, "dota2", nil)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if result.Failed != 1 || result.Misses != 1 || result.Matched != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, row := range seeded {
		got, _, _ := repo.GetByID(ctx, row.ID)
		if got.Score != "" || !got.LastScoreCheckAt.Equal(cycleNow) {
			t.Fatalf("expected only the check time to move, got %+v", got)
		}
	}
}

func TestBackfillService_SkipsRowsWithFinalScore(t *testing.T) {
	t.Parallel()

	repo := memory.NewMatchRepository()
	row := pastRow("fallback-final")
	row.Score = "2:0"
	row.DetailURL = "/dota2/Match:ID_3"
	seeded := repo.Seed(row)

	details := detailFetcherFunc(func(context.Context, string) (MatchDetail, bool, error) {
		t.Errorf("detail page must not be fetched for a final score")
		return MatchDetail{}, false, nil
	})
	result, err := newBackfillForTest(repo, details, nil).Backfill(context.Background(), "dota2", nil)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if result.Skipped != 1 || result.Candidates != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	got, _, _ := repo.GetByID(context.Background(), seeded[0].ID)
	if !got.LastScoreCheckAt.Equal(cycleNow) || got.Score != "2:0" || got.Status != match.StatusLive {
		t.Fatalf("expected only the check time to change, got %+v", got)
	}
}
