package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
)

var (
	cycleNow  = time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC)
	matchTime = time.Date(2025, 11, 26, 14, 0, 0, 0, time.UTC)
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type detailFetcherFunc func(ctx context.Context, detailURL string) (MatchDetail, bool, error)

func (f detailFetcherFunc) FetchDetail(ctx context.Context, detailURL string) (MatchDetail, bool, error) {
	return f(ctx, detailURL)
}

type recordingPublisher struct {
	events []match.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events []match.Event) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []match.EventType {
	out := make([]match.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func alphaBeta() match.Snapshot {
	return match.Snapshot{
		Game:        "dota2",
		ScheduledAt: matchTime,
		Team1:       "Alpha",
		Team2:       "Beta",
		Format:      3,
		Tournament:  "Cup",
	}
}
