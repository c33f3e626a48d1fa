package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	qb "github.com/riskibarqy/matchsync/internal/platform/querybuilder"
)

type tournamentTableModel struct {
	ID        int64          `db:"id"`
	Game      string         `db:"game"`
	LookupKey string         `db:"lookup_key"`
	Path      sql.NullString `db:"path"`
	Name      string         `db:"name"`
	URL       sql.NullString `db:"url"`
	Tier      sql.NullString `db:"tier"`
	Status    sql.NullString `db:"status"`
	UpdatedAt time.Time      `db:"updated_at"`
}

var tournamentColumns = qb.Columns(tournamentTableModel{})

// tournamentLookupKey is the path when known, otherwise the lowercased name.
func tournamentLookupKey(t tournament.Tournament) string {
	if t.Path != "" {
		return t.Path
	}
	return "name:" + strings.ToLower(t.Name)
}

func tournamentFromRow(row tournamentTableModel) tournament.Tournament {
	return tournament.Tournament{
		ID:        row.ID,
		Game:      row.Game,
		Path:      row.Path.String,
		Name:      row.Name,
		URL:       row.URL.String,
		Tier:      row.Tier.String,
		Status:    row.Status.String,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
