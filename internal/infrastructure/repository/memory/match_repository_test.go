package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
)

var base = time.Date(2025, 11, 26, 14, 0, 0, 0, time.UTC)

func TestRunInTxRollsBackOnError(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		if _, err := tx.Insert(ctx, match.Match{Game: "dota2", IdentityKey: "lp:ID_1"}); err != nil {
			return err
		}
		if _, err := tx.UpsertByPath(ctx, team.Reference{Game: "dota2", Path: "/dota2/Team_Liquid", Name: "Team Liquid"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected tx error, got %v", err)
	}
	rows, _ := repo.List(ctx, "dota2")
	if len(rows) != 0 || len(repo.Teams("dota2")) != 0 {
		t.Fatalf("expected rollback, got %d matches %d teams", len(rows), len(repo.Teams("dota2")))
	}
}

func TestIdentityKeyIsUniquePerGame(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	err := repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		if _, err := tx.Insert(ctx, match.Match{Game: "dota2", IdentityKey: "lp:ID_1"}); err != nil {
			return err
		}
		if _, err := tx.Insert(ctx, match.Match{Game: "counterstrike", IdentityKey: "lp:ID_1"}); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, match.Match{Game: "dota2", IdentityKey: "lp:ID_1"})
		return err
	})
	if !errors.Is(err, match.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	seeded := repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "a"},
		match.Match{Game: "dota2", IdentityKey: "b"},
	)
	err = repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		return tx.RewriteIdentityKey(ctx, seeded[0].ID, "b", base)
	})
	if !errors.Is(err, match.ErrConflict) {
		t.Fatalf("expected rewrite conflict, got %v", err)
	}
}

func TestRewriteIdentityKeyKeepsSurrogateID(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	seeded := repo.Seed(match.Match{Game: "dota2", IdentityKey: "fallback"})

	err := repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		return tx.RewriteIdentityKey(ctx, seeded[0].ID, "lp:ID_9", base)
	})
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	_ = repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		if _, found, _ := tx.GetByIdentityKey(ctx, "dota2", "fallback"); found {
			t.Fatalf("expected old key to be released")
		}
		got, found, _ := tx.GetByIdentityKey(ctx, "dota2", "lp:ID_9")
		if !found || got.ID != seeded[0].ID {
			t.Fatalf("expected same surrogate id under new key, got %+v", got)
		}
		return nil
	})
}

func TestFindMigrationCandidate(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "far", Team1: "Alpha", Team2: "Beta", Tournament: "Cup - Playoffs", ScheduledAt: base.Add(20 * time.Minute)},
		match.Match{Game: "dota2", IdentityKey: "near", Team1: "alpha", Team2: "BETA", Tournament: "Cup - Playoffs", ScheduledAt: base.Add(10 * time.Minute)},
		match.Match{Game: "dota2", IdentityKey: "lp:ID_2", Team1: "Alpha", Team2: "Beta", Tournament: "Cup", ScheduledAt: base},
		match.Match{Game: "dota2", IdentityKey: "other", Team1: "Alpha", Team2: "Beta", Tournament: "League", ScheduledAt: base},
	)

	_ = repo.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
		query := match.MigrationQuery{
			Game: "dota2", Team1: "Alpha", Team2: "Beta", TournamentPrefix: "cup",
			ScheduledAt: base, Window: 15 * time.Minute, FallbackOnly: true,
		}
		got, found, err := tx.FindMigrationCandidate(ctx, query)
		if err != nil || !found || got.IdentityKey != "near" {
			t.Fatalf("expected nearest fallback row, got %+v found=%v err=%v", got, found, err)
		}

		query.FallbackOnly = false
		got, found, _ = tx.FindMigrationCandidate(ctx, query)
		if !found || got.IdentityKey != "lp:ID_2" {
			t.Fatalf("expected primary row when fallback-only is off, got %+v", got)
		}

		query.Team1, query.Team2 = "Beta", "Alpha"
		if _, found, _ := tx.FindMigrationCandidate(ctx, query); found {
			t.Fatalf("expected team order to matter")
		}
		return nil
	})
}

func TestListBackfillCandidates(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "checked", Status: match.StatusLive, ScheduledAt: base.Add(-3 * time.Hour), LastScoreCheckAt: base},
		match.Match{Game: "dota2", IdentityKey: "older", Status: match.StatusUpcoming, ScheduledAt: base.Add(-2 * time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "newer", Status: match.StatusUnknown, ScheduledAt: base.Add(-time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "finished", Status: match.StatusFinished, ScheduledAt: base.Add(-time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "future", Status: match.StatusUpcoming, ScheduledAt: base.Add(time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "timeless", Status: match.StatusUnknown},
	)

	rows, err := repo.ListBackfillCandidates(ctx, "dota2", base, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"newer", "older", "checked"}
	if len(rows) != len(want) {
		t.Fatalf("unexpected candidates: %+v", rows)
	}
	for i, key := range want {
		if rows[i].IdentityKey != key {
			t.Fatalf("position %d: want %s got %s", i, key, rows[i].IdentityKey)
		}
	}

	rows, _ = repo.ListBackfillCandidates(ctx, "dota2", base, 1)
	if len(rows) != 1 {
		t.Fatalf("expected limit to apply")
	}
}

func TestApplyBackfillNeverTouchesFinishedScore(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	seeded := repo.Seed(match.Match{Game: "dota2", IdentityKey: "k", Status: match.StatusFinished, Score: "2:0", Format: 3})

	err := repo.ApplyBackfill(ctx, match.BackfillUpdate{MatchID: seeded[0].ID, Score: "1:2", Format: 3, Status: match.StatusFinished, CheckedAt: base})
	if err != nil {
		t.Fatalf("apply backfill: %v", err)
	}
	got, _, _ := repo.GetByID(ctx, seeded[0].ID)
	if got.Score != "2:0" || !got.LastScoreCheckAt.Equal(base) {
		t.Fatalf("expected only the check time to move, got %+v", got)
	}
}

func TestApplyStatusChangesIsOptimistic(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	seeded := repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "a", Status: match.StatusUpcoming},
		match.Match{Game: "dota2", IdentityKey: "b", Status: match.StatusLive},
	)

	err := repo.ApplyStatusChanges(ctx, []match.StatusChange{
		{MatchID: seeded[0].ID, From: match.StatusUpcoming, To: match.StatusLive},
		{MatchID: seeded[1].ID, From: match.StatusUpcoming, To: match.StatusFinished},
	}, base)
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	a, _, _ := repo.GetByID(ctx, seeded[0].ID)
	b, _, _ := repo.GetByID(ctx, seeded[1].ID)
	if a.Status != match.StatusLive || b.Status != match.StatusLive {
		t.Fatalf("unexpected statuses: a=%s b=%s", a.Status, b.Status)
	}
}

func TestRepair(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	seeded := repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "", Team1: "A", Team2: "B"},
		match.Match{Game: "dota2", IdentityKey: "ghost", Team1: "TBD", Team2: "TBD"},
		match.Match{Game: "dota2", IdentityKey: "tbd-slot", Team1: "TBD", Team2: "Beta", Tournament: "Cup", ScheduledAt: base},
		match.Match{Game: "dota2", IdentityKey: "real-slot", Team1: "Alpha", Team2: "Beta", Tournament: "cup", ScheduledAt: base},
		match.Match{Game: "dota2", IdentityKey: "tbd-alone", Team1: "TBD", Team2: "TBD", Tournament: "Cup", ScheduledAt: base.Add(time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "zero", Team1: "Alpha", Team2: "Beta", Status: match.StatusFinished, Score: "0:0", ScheduledAt: base.Add(2 * time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "lp:ID_77", Team1: "Alpha", Team2: "Gamma", ScheduledAt: base.Add(3 * time.Hour)},
		match.Match{Game: "dota2", IdentityKey: "url", DetailURL: "/dota2/Match:ID_88", Team1: "Alpha", Team2: "Delta", ScheduledAt: base.Add(4 * time.Hour)},
		match.Match{Game: "counterstrike", IdentityKey: "", Team1: "X", Team2: "Y"},
	)

	report, err := repo.Repair(ctx, "dota2", base)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	want := match.RepairReport{DeletedUnidentified: 2, DeletedPlaceholders: 1, DemotedCorrupt: 1, BackfilledFromKey: 1, BackfilledFromURL: 1}
	if report != want {
		t.Fatalf("unexpected report:\nwant %+v\ngot  %+v", want, report)
	}

	zero, _, _ := repo.GetByID(ctx, seeded[5].ID)
	if zero.Status != match.StatusUnknown || zero.Score != "" {
		t.Fatalf("expected 0:0 finished row to be demoted, got %+v", zero)
	}
	if _, found, _ := repo.GetByID(ctx, seeded[4].ID); !found {
		t.Fatalf("expected unshadowed placeholder row to survive")
	}
	if _, found, _ := repo.GetByID(ctx, seeded[8].ID); !found {
		t.Fatalf("expected other games to be untouched")
	}

	again, err := repo.Repair(ctx, "dota2", base)
	if err != nil || again.Total() != 0 {
		t.Fatalf("expected repair to be idempotent, got %+v err=%v", again, err)
	}
}

func TestRepairShadowsPlaceholderWithoutTournament(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	seeded := repo.Seed(
		match.Match{Game: "dota2", IdentityKey: "tbd-slot", Team1: "TBD", Team2: "Beta", ScheduledAt: base},
		match.Match{Game: "dota2", IdentityKey: "real-slot", Team1: "Alpha", Team2: "Beta", ScheduledAt: base},
		match.Match{Game: "dota2", IdentityKey: "tbd-cup", Team1: "TBD", Team2: "TBD", Tournament: "Cup", ScheduledAt: base},
	)

	report, err := repo.Repair(ctx, "dota2", base)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if report.DeletedPlaceholders != 1 {
		t.Fatalf("expected one shadowed placeholder, got %+v", report)
	}
	if _, found, _ := repo.GetByID(ctx, seeded[0].ID); found {
		t.Fatalf("expected placeholder sharing the empty tournament to be deleted")
	}
	if _, found, _ := repo.GetByID(ctx, seeded[2].ID); !found {
		t.Fatalf("expected placeholder in another tournament to survive")
	}
}
