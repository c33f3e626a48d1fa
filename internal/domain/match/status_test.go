package match

import (
	"testing"
	"time"
)

func TestStatusPolicyNext(t *testing.T) {
	now := time.Date(2025, 11, 26, 12, 0, 0, 0, time.UTC)
	policy := DefaultStatusPolicy()

	tests := []struct {
		name string
		row  Match
		want Status
	}{
		{
			name: "finished is sticky",
			row:  Match{Status: StatusFinished, ScheduledAt: now.Add(time.Hour)},
			want: StatusFinished,
		},
		{
			name: "series final score finishes",
			row:  Match{Status: StatusLive, Score: "2:1", Format: 3, ScheduledAt: now.Add(-time.Hour)},
			want: StatusFinished,
		},
		{
			name: "map score does not finish",
			row:  Match{Status: StatusLive, Score: "13:7", Format: 3, ScheduledAt: now.Add(-time.Hour)},
			want: StatusLive,
		},
		{
			name: "future beyond lead is upcoming",
			row:  Match{Status: StatusUnknown, ScheduledAt: now.Add(2 * time.Hour)},
			want: StatusUpcoming,
		},
		{
			name: "rescheduled live becomes upcoming",
			row:  Match{Status: StatusLive, ScheduledAt: now.Add(time.Hour)},
			want: StatusUpcoming,
		},
		{
			name: "inside lead window unchanged",
			row:  Match{Status: StatusUnknown, ScheduledAt: now.Add(3 * time.Minute)},
			want: StatusUnknown,
		},
		{
			name: "started upcoming becomes live",
			row:  Match{Status: StatusUpcoming, ScheduledAt: now.Add(-10 * time.Minute)},
			want: StatusLive,
		},
		{
			name: "exactly lag ago becomes live",
			row:  Match{Status: StatusUnknown, ScheduledAt: now.Add(-5 * time.Minute)},
			want: StatusLive,
		},
		{
			name: "older than live window stays",
			row:  Match{Status: StatusUpcoming, ScheduledAt: now.Add(-5 * time.Hour)},
			want: StatusUpcoming,
		},
		{
			name: "no time keeps status",
			row:  Match{Status: StatusUpcoming},
			want: StatusUpcoming,
		},
		{
			name: "empty status reads as unknown",
			row:  Match{},
			want: StatusUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Next(tc.row, now); got != tc.want {
				t.Fatalf("unexpected status: want %s got %s", tc.want, got)
			}
		})
	}
}

func TestStatusPolicyTransitions(t *testing.T) {
	now := time.Date(2025, 11, 26, 12, 0, 0, 0, time.UTC)
	rows := []Match{
		{ID: 1, Status: StatusUpcoming, ScheduledAt: now.Add(time.Hour)},
		{ID: 2, Status: StatusUpcoming, ScheduledAt: now.Add(-time.Hour)},
		{ID: 3, Status: StatusLive, Score: "3:1", Format: 5, ScheduledAt: now.Add(-2 * time.Hour)},
	}

	changes := DefaultStatusPolicy().Transitions(rows, now)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", changes)
	}
	if changes[0] != (StatusChange{MatchID: 2, From: StatusUpcoming, To: StatusLive}) {
		t.Fatalf("unexpected first change: %+v", changes[0])
	}
	if changes[1] != (StatusChange{MatchID: 3, From: StatusLive, To: StatusFinished}) {
		t.Fatalf("unexpected second change: %+v", changes[1])
	}
}

func TestIsCorruptFinished(t *testing.T) {
	tests := []struct {
		name string
		row  Match
		want bool
	}{
		{name: "zero zero", row: Match{Status: StatusFinished, Team1: "A", Team2: "B", Score: "0:0"}, want: true},
		{name: "no teams", row: Match{Status: StatusFinished, Score: "2:0"}, want: true},
		{name: "placeholder side", row: Match{Status: StatusFinished, Team1: "A", Team2: "TBD", Score: "2:0"}, want: true},
		{name: "healthy", row: Match{Status: StatusFinished, Team1: "A", Team2: "B", Score: "2:0"}, want: false},
		{name: "not finished", row: Match{Status: StatusLive, Score: "0:0"}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorruptFinished(tc.row); got != tc.want {
				t.Fatalf("IsCorruptFinished=%v, want %v", got, tc.want)
			}
		})
	}

	demoted := Demote(Match{Status: StatusFinished, Score: "0:0"})
	if demoted.Status != StatusUnknown || demoted.Score != "" {
		t.Fatalf("unexpected demoted row: %+v", demoted)
	}
}
