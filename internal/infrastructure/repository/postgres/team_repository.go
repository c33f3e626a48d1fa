package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/matchsync/internal/domain/team"
	qb "github.com/riskibarqy/matchsync/internal/platform/querybuilder"
)

const teamReferencesTable = "team_references"

// upsertTeamReference keeps one row per (game, path). A later upsert renames
// the team; an empty URL keeps the stored one.
func upsertTeamReference(ctx context.Context, q sqlx.QueryerContext, ref team.Reference) (team.Reference, error) {
	ref.Game = strings.TrimSpace(ref.Game)
	ref.Path = team.CanonicalPath(ref.Path)
	ref.Name = strings.TrimSpace(ref.Name)
	if err := ref.Validate(); err != nil {
		return team.Reference{}, fmt.Errorf("validate team reference: %w", err)
	}

	query, args, err := qb.InsertInto(teamReferencesTable).
		Columns("game", "path", "name", "url").
		Values(ref.Game, ref.Path, ref.Name, nullString(ref.URL)).
		Suffix(`ON CONFLICT (game, path) DO UPDATE SET
    name = EXCLUDED.name,
    url = COALESCE(EXCLUDED.url, ` + teamReferencesTable + `.url),
    updated_at = NOW()
RETURNING ` + strings.Join(teamReferenceColumns, ", ")).
		ToSQL()
	if err != nil {
		return team.Reference{}, fmt.Errorf("build upsert team reference query: %w", err)
	}

	var row teamReferenceTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		return team.Reference{}, fmt.Errorf("upsert team reference %s: %w", ref.Path, classifyError(err))
	}
	return teamReferenceFromRow(row), nil
}
