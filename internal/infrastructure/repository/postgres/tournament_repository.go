package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	qb "github.com/riskibarqy/matchsync/internal/platform/querybuilder"
)

const tournamentsTable = "tournaments"

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) UpsertMany(ctx context.Context, items []tournament.Tournament) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert tournaments: %w", classifyError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, raw := range items {
		item := raw.Normalize()
		if item.Game == "" || item.Name == "" {
			continue
		}

		query, args, err := qb.InsertInto(tournamentsTable).
			Columns("game", "lookup_key", "path", "name", "url", "tier", "status").
			Values(
				item.Game,
				tournamentLookupKey(item),
				nullString(item.Path),
				item.Name,
				nullString(item.URL),
				nullString(item.Tier),
				nullString(item.Status),
			).
			Suffix(`ON CONFLICT (game, lookup_key) DO UPDATE SET
    name = EXCLUDED.name,
    url = COALESCE(EXCLUDED.url, tournaments.url),
    tier = COALESCE(EXCLUDED.tier, tournaments.tier),
    status = COALESCE(EXCLUDED.status, tournaments.status),
    updated_at = NOW()`).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert tournament query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert tournament %s: %w", item.Name, classifyError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx upsert tournaments: %w", classifyError(err))
	}
	return nil
}

func (r *TournamentRepository) ListByGame(ctx context.Context, game string) ([]tournament.Tournament, error) {
	query, args, err := qb.Select(tournamentColumns...).From(tournamentsTable).
		Where(qb.Eq("game", game)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tournaments by game: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournamentFromRow(row))
	}
	return out, nil
}
