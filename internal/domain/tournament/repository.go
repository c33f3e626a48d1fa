package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	UpsertMany(ctx context.Context, items []Tournament) error
	ListByGame(ctx context.Context, game string) ([]Tournament, error)
}
