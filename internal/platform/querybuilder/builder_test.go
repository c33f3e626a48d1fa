package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := Select("id", "identity_key").
		From("matches").
		Where(
			Eq("game", "dota2"),
			Or(IsNull("status"), InStrings("status", "live", "upcoming")),
			Lt("scheduled_at", cutoff),
		).
		OrderBy("scheduled_at DESC").
		Limit(200).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, identity_key FROM matches WHERE game = $1 AND (status IS NULL OR status IN ($2, $3)) AND scheduled_at < $4 ORDER BY scheduled_at DESC LIMIT 200"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[0] != "dota2" || args[1] != "live" || args[3] != cutoff {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderExprAndSuffix(t *testing.T) {
	query, args, err := Select("id").
		From("matches").
		Where(Eq("game", "cs2"), Expr("lower(tournament) LIKE ?", "blast%"), IsNotNull("scheduled_at")).
		Limit(1).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM matches WHERE game = $1 AND lower(tournament) LIKE $2 AND scheduled_at IS NOT NULL LIMIT 1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[1] != "blast%" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("team_references").
		Columns("game", "path", "name").
		Values("dota2", "/dota2/Team_Liquid", "Team Liquid").
		Suffix("ON CONFLICT (game, path) DO UPDATE SET name = EXCLUDED.name RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO team_references (game, path, name) VALUES ($1, $2, $3) ON CONFLICT (game, path) DO UPDATE SET name = EXCLUDED.name RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != "Team Liquid" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("matches").
		Set("score", "2:1").
		SetExpr("updated_at", "NOW()").
		SetExpr("format", "GREATEST(format, ?)", 3).
		Where(Eq("id", int64(9))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET score = $1, updated_at = NOW(), format = GREATEST(format, $2) WHERE id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "2:1" || args[1] != 3 || args[2] != int64(9) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("matches").
		Where(Eq("game", "dota2"), IsNull("scheduled_at"), Expr("team1 IN ('', 'TBD')")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM matches WHERE game = $1 AND scheduled_at IS NULL AND team1 IN ('', 'TBD')"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("matches").ToSQL(); err == nil {
		t.Fatalf("expected unfiltered delete to be rejected")
	}
}

type row struct {
	ID    int64  `db:"id"`
	Game  string `db:"game"`
	Name  string `db:"name"`
	Extra string
}

func TestModelHelpers(t *testing.T) {
	query, args, err := InsertModel("tournaments", row{ID: 1, Game: "dota2", Name: "TI"}, "RETURNING id", "id")
	if err != nil {
		t.Fatalf("insert model: %v", err)
	}
	if query != "INSERT INTO tournaments (game, name) VALUES ($1, $2) RETURNING id" || len(args) != 2 {
		t.Fatalf("unexpected insert: %s %+v", query, args)
	}

	b := Update("tournaments")
	if err := b.SetModel(&row{Game: "dota2", Name: "TI"}, "id", "game"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	query, _, err = b.Where(Eq("id", 1)).ToSQL()
	if err != nil || query != "UPDATE tournaments SET name = $1 WHERE id = $2" {
		t.Fatalf("unexpected update: %s %v", query, err)
	}

	cols := Columns(row{})
	if len(cols) != 3 || cols[0] != "id" || cols[2] != "name" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}
