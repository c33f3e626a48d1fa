package usecase

import (
	"context"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
)

// SnapshotSource is the extraction collaborator feeding one cycle.
type SnapshotSource interface {
	FetchUpcoming(ctx context.Context, game string) ([]match.Snapshot, error)
	FetchCompleted(ctx context.Context, game string) ([]match.Snapshot, error)
	FetchTournaments(ctx context.Context, game string) ([]tournament.Tournament, error)
}

// MatchDetail is what a single match detail page yields.
type MatchDetail struct {
	Score  string
	Format int
}

// DetailFetcher loads one match detail page. found is false when the page
// exists but carries no usable score, or does not exist at all.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, detailURL string) (detail MatchDetail, found bool, err error)
}

// EventPublisher fans reconciled changes out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events []match.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, []match.Event) error { return nil }
