package match

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	at := time.Date(2025, 11, 26, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		snapshot Snapshot
		wantKey  string
		wantKind IdentityKind
		wantErr  error
	}{
		{
			name:     "explicit external id",
			snapshot: Snapshot{ExternalID: "ID_123", Team1: "Alpha", Team2: "Beta"},
			wantKey:  "lp:ID_123",
			wantKind: IdentityPrimary,
		},
		{
			name:     "external id from detail path",
			snapshot: Snapshot{DetailURL: "/dota2/Match:ID_abc_0002"},
			wantKey:  "lp:ID_abc_0002",
			wantKind: IdentityPrimary,
		},
		{
			name:     "external id from index.php query",
			snapshot: Snapshot{DetailURL: "https://liquipedia.net/dota2/index.php?title=Match:ID_xyz&action=edit"},
			wantKey:  "lp:ID_xyz",
			wantKind: IdentityPrimary,
		},
		{
			name: "fallback composite",
			snapshot: Snapshot{
				ScheduledAt: at,
				Team1:       " Alpha ",
				Team2:       "Beta",
				Tournament:  "Cup",
				Format:      3,
			},
			wantKey:  "2025-11-26T14:00:00Z|alpha|beta|cup|bo3",
			wantKind: IdentityFallback,
		},
		{
			name:     "fallback without time",
			snapshot: Snapshot{Team1: "Alpha", Team2: "TBD", RawTime: "TBA, Nov 26"},
			wantKey:  "|alpha|tbd||bo0",
			wantKind: IdentityFallback,
		},
		{
			name:     "fallback with time and placeholders",
			snapshot: Snapshot{ScheduledAt: at, Team1: "TBD", Team2: "TBD"},
			wantKey:  "2025-11-26T14:00:00Z|tbd|tbd||bo0",
			wantKind: IdentityFallback,
		},
		{
			name:     "no time and no teams",
			snapshot: Snapshot{Team1: "TBD", Tournament: "Cup"},
			wantErr:  ErrUnresolvable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Resolve(tc.snapshot)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if id.Key() != tc.wantKey {
				t.Fatalf("unexpected key: want %q got %q", tc.wantKey, id.Key())
			}
			if id.Kind() != tc.wantKind {
				t.Fatalf("unexpected kind: want %s got %s", tc.wantKind, id.Kind())
			}
		})
	}
}

func TestIdentityIsStructurallyComparable(t *testing.T) {
	at := time.Date(2025, 11, 26, 14, 0, 30, 0, time.FixedZone("MSK", 3*60*60))
	a := FallbackIdentity(at, "Alpha", "Beta", "Cup", 3)
	b := FallbackIdentity(at.UTC().Add(-30*time.Second), "alpha ", " BETA", "cup", 3)
	if a != b {
		t.Fatalf("expected equal identities, got %s and %s", a, b)
	}

	seen := map[Identity]int{a: 1}
	if seen[b] != 1 {
		t.Fatalf("expected identity to be usable as map key")
	}
	if PrimaryIdentity("ID_1") == PrimaryIdentity("ID_2") {
		t.Fatalf("expected different primary identities to differ")
	}
}

func TestExternalIDHelpers(t *testing.T) {
	if got := ExternalIDFromKey("lp:ID_42"); got != "ID_42" {
		t.Fatalf("unexpected id from key: %q", got)
	}
	if got := ExternalIDFromKey("2025-11-26T14:00:00Z|a|b|c|bo3"); got != "" {
		t.Fatalf("expected no id from fallback key, got %q", got)
	}
	if got := ExternalIDFromURL("/dota2/Match:ID_9#top"); got != "ID_9" {
		t.Fatalf("unexpected id from url: %q", got)
	}
	if !IsPrimaryKey("lp:ID_42") || IsPrimaryKey("|a|b||bo0") {
		t.Fatalf("unexpected IsPrimaryKey result")
	}

	m := Match{IdentityKey: "|a|b||bo0", DetailURL: "/dota2/Match:ID_7"}
	if got := ExternalIDOf(m); got != "ID_7" {
		t.Fatalf("unexpected ExternalIDOf: %q", got)
	}
}
