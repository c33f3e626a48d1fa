package postgres

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
)

func TestRepairQueriesAreScopedByGame(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC)
	builders := map[string]func() (string, []any, error){
		"unidentified": func() (string, []any, error) { return deleteUnidentifiedQuery("dota2") },
		"placeholders": func() (string, []any, error) { return deleteShadowedPlaceholdersQuery("dota2") },
		"corrupt":      func() (string, []any, error) { return demoteCorruptQuery("dota2", at) },
		"from key":     func() (string, []any, error) { return externalIDFromKeyQuery("dota2", at) },
		"from url":     func() (string, []any, error) { return externalIDFromURLQuery("dota2", at) },
	}

	for name, build := range builders {
		query, args, err := build()
		if err != nil {
			t.Fatalf("%s: build query: %v", name, err)
		}
		if !strings.Contains(query, "game = $") || !slices.Contains(args, any("dota2")) {
			t.Fatalf("%s: expected game filter, got %s %v", name, query, args)
		}
	}
}

func TestDemoteCorruptQuery(t *testing.T) {
	t.Parallel()

	query, args, err := demoteCorruptQuery("dota2", time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	for _, want := range []string{
		"UPDATE matches SET status = $1, score = NULL, updated_at = $2",
		"status = $4",
		"'tbd'",
		"lower(btrim(team1)) IN ",
	} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected %q in %s", want, query)
		}
	}
	if len(args) != 4 || args[0] != "unknown" || args[3] != "finished" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestShadowedPlaceholdersTreatEmptyTournamentAsSlot(t *testing.T) {
	t.Parallel()

	query, _, err := deleteShadowedPlaceholdersQuery("dota2")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "lower(COALESCE(o.tournament, '')) = lower(COALESCE(m.tournament, ''))") {
		t.Fatalf("expected null-safe tournament comparison in %s", query)
	}

	row := matchToRow(match.Match{Game: "dota2", IdentityKey: "slot", Team1: "TBD", Team2: "Beta"})
	if row.Tournament != "" {
		t.Fatalf("expected empty tournament to be stored as an empty string, got %q", row.Tournament)
	}
}
