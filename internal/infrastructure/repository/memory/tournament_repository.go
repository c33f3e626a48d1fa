package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/tournament"
)

type TournamentRepository struct {
	mu     sync.RWMutex
	byPath map[string]tournament.Tournament
	nextID int64
}

func NewTournamentRepository(items ...tournament.Tournament) *TournamentRepository {
	r := &TournamentRepository{byPath: make(map[string]tournament.Tournament)}
	_ = r.UpsertMany(context.Background(), items)
	return r
}

// UpsertMany keys tournaments by game and path; items without a path fall
// back to their name.
func (r *TournamentRepository) UpsertMany(_ context.Context, items []tournament.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, raw := range items {
		item := raw.Normalize()
		if item.Game == "" || item.Name == "" {
			continue
		}
		key := item.Game + "\x00" + item.Path
		if item.Path == "" {
			key = item.Game + "\x00name:" + strings.ToLower(item.Name)
		}
		if existing, ok := r.byPath[key]; ok {
			item.ID = existing.ID
		} else {
			r.nextID++
			item.ID = r.nextID
		}
		item.UpdatedAt = now
		r.byPath[key] = item
	}
	return nil
}

func (r *TournamentRepository) ListByGame(_ context.Context, game string) ([]tournament.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Tournament, 0, len(r.byPath))
	for _, item := range r.byPath {
		if item.Game == game {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b tournament.Tournament) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
