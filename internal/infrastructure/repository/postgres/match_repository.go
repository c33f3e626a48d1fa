package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
	qb "github.com/riskibarqy/matchsync/internal/platform/querybuilder"
)

const (
	matchesTable = "matches"

	primaryKeyPattern     = `^lp:ID_[^|]+$`
	primaryKeyCapture     = `^lp:(ID_[^|]+)$`
	detailURLPattern      = `Match:ID_[^&#/?[:space:]]+`
	detailURLCapture      = `Match:(ID_[^&#/?[:space:]]+)`
	zeroScorePattern      = `^[[:space:]]*0+[[:space:]]*[-:][[:space:]]*0+[[:space:]]*$`
	normalizedTeam1       = "lower(btrim(team1))"
	normalizedTeam2       = "lower(btrim(team2))"
	finishedStatusLiteral = "'finished'"
)

var placeholderTeamList = sqlList(match.PlaceholderTeamNames())

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// RunInTx runs fn inside one database transaction. Serialization failures,
// deadlocks and unique violations surface as match.ErrConflict.
func (r *MatchRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx match.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx reconcile batch: %w", classifyError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, &matchTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx reconcile batch: %w", classifyError(err))
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}
	return getMatch(ctx, r.db, "get match by id", query, args)
}

func (r *MatchRepository) ListBackfillCandidates(ctx context.Context, game string, startedBefore time.Time, limit int) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(
			qb.Eq("game", game),
			qb.NotEq("status", string(match.StatusFinished)),
			qb.IsNotNull("scheduled_at"),
			qb.Lt("scheduled_at", startedBefore.UTC()),
		).
		OrderBy("last_score_check_at ASC NULLS FIRST", "scheduled_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list backfill candidates query: %w", err)
	}
	return selectMatches(ctx, r.db, "list backfill candidates", query, args)
}

// ApplyBackfill writes a found score. Finished rows only record the check
// time; every other column keeps its stored value.
func (r *MatchRepository) ApplyBackfill(ctx context.Context, update match.BackfillUpdate) error {
	at := update.CheckedAt.UTC()
	query, args, err := qb.Update(matchesTable).
		Set("last_score_check_at", at).
		SetExpr("score_last_updated_at",
			"CASE WHEN status <> "+finishedStatusLiteral+" AND score IS DISTINCT FROM ? THEN ? ELSE score_last_updated_at END",
			update.Score, at).
		SetExpr("score", "CASE WHEN status = "+finishedStatusLiteral+" THEN score ELSE ? END", update.Score).
		SetExpr("format", "CASE WHEN status = "+finishedStatusLiteral+" OR ?::int <= 0 THEN format ELSE ?::int END", update.Format, update.Format).
		SetExpr("detail_url", "CASE WHEN status = "+finishedStatusLiteral+" THEN detail_url ELSE COALESCE(NULLIF(detail_url, ''), NULLIF(?::text, '')) END", update.DetailURL).
		SetExpr("external_id", "CASE WHEN status = "+finishedStatusLiteral+" THEN external_id ELSE COALESCE(NULLIF(external_id, ''), NULLIF(?::text, '')) END", update.ExternalID).
		SetExpr("status", "CASE WHEN status = "+finishedStatusLiteral+" OR ?::text = '' THEN status ELSE ?::text END", string(update.Status), string(update.Status)).
		SetExpr("updated_at", "CASE WHEN status = "+finishedStatusLiteral+" THEN updated_at ELSE ? END", at).
		Where(qb.Eq("id", update.MatchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build apply backfill query: %w", err)
	}
	return execOne(ctx, r.db, "apply backfill", update.MatchID, query, args)
}

func (r *MatchRepository) MarkScoreChecked(ctx context.Context, matchID int64, at time.Time) error {
	query, args, err := qb.Update(matchesTable).
		Set("last_score_check_at", at.UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark score checked query: %w", err)
	}
	return execOne(ctx, r.db, "mark score checked", matchID, query, args)
}

func (r *MatchRepository) ListUnfinished(ctx context.Context, game string) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(
			qb.Eq("game", game),
			qb.InStrings("status", match.StatusUpcoming, match.StatusLive, match.StatusUnknown),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unfinished matches query: %w", err)
	}
	return selectMatches(ctx, r.db, "list unfinished matches", query, args)
}

// ApplyStatusChanges applies each change only while the row still holds the
// status it was computed from.
func (r *MatchRepository) ApplyStatusChanges(ctx context.Context, changes []match.StatusChange, at time.Time) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply status changes: %w", classifyError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, change := range changes {
		query, args, err := qb.Update(matchesTable).
			Set("status", string(change.To)).
			Set("updated_at", at.UTC()).
			Where(
				qb.Eq("id", change.MatchID),
				qb.Eq("status", string(change.From)),
				qb.NotEq("status", string(match.StatusFinished)),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build apply status change query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("apply status change for match %d: %w", change.MatchID, classifyError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx apply status changes: %w", classifyError(err))
	}
	return nil
}

// Repair runs the auto-repair statements in order inside one transaction.
func (r *MatchRepository) Repair(ctx context.Context, game string, at time.Time) (match.RepairReport, error) {
	at = at.UTC()
	statements := []struct {
		name  string
		build func() (string, []any, error)
	}{
		{name: "delete unidentified matches", build: func() (string, []any, error) { return deleteUnidentifiedQuery(game) }},
		{name: "delete shadowed placeholder matches", build: func() (string, []any, error) { return deleteShadowedPlaceholdersQuery(game) }},
		{name: "demote corrupt finished matches", build: func() (string, []any, error) { return demoteCorruptQuery(game, at) }},
		{name: "backfill external id from key", build: func() (string, []any, error) { return externalIDFromKeyQuery(game, at) }},
		{name: "backfill external id from url", build: func() (string, []any, error) { return externalIDFromURLQuery(game, at) }},
	}

	var report match.RepairReport
	counts := []*int64{
		&report.DeletedUnidentified,
		&report.DeletedPlaceholders,
		&report.DemotedCorrupt,
		&report.BackfilledFromKey,
		&report.BackfilledFromURL,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.RepairReport{}, fmt.Errorf("begin tx repair matches: %w", classifyError(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range statements {
		query, args, err := stmt.build()
		if err != nil {
			return match.RepairReport{}, fmt.Errorf("build %s query: %w", stmt.name, err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return match.RepairReport{}, fmt.Errorf("%s: %w", stmt.name, classifyError(err))
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return match.RepairReport{}, fmt.Errorf("rows affected %s: %w", stmt.name, err)
		}
		*counts[i] = affected
	}

	if err := tx.Commit(); err != nil {
		return match.RepairReport{}, fmt.Errorf("commit tx repair matches: %w", classifyError(err))
	}
	return report, nil
}

func deleteUnidentifiedQuery(game string) (string, []any, error) {
	return qb.DeleteFrom(matchesTable).
		Where(
			qb.Eq("game", game),
			qb.Or(
				qb.Expr("btrim(identity_key) = ''"),
				qb.And(
					qb.IsNull("scheduled_at"),
					qb.Expr(normalizedTeam1+" IN "+placeholderTeamList),
					qb.Expr(normalizedTeam2+" IN "+placeholderTeamList),
					qb.Expr("COALESCE(external_id, '') = ''"),
					qb.Expr("identity_key !~ '"+primaryKeyPattern+"'"),
					qb.Expr("COALESCE(detail_url, '') !~ '"+detailURLPattern+"'"),
				),
			),
		).
		ToSQL()
}

func deleteShadowedPlaceholdersQuery(game string) (string, []any, error) {
	return qb.DeleteFrom(matchesTable+" m").
		Where(
			qb.Eq("m.game", game),
			qb.IsNotNull("m.scheduled_at"),
			qb.Expr("(lower(btrim(m.team1)) IN "+placeholderTeamList+" OR lower(btrim(m.team2)) IN "+placeholderTeamList+")"),
			qb.Expr(`EXISTS (
    SELECT 1 FROM matches o
    WHERE o.game = m.game
      AND o.id <> m.id
      AND o.scheduled_at = m.scheduled_at
      AND lower(COALESCE(o.tournament, '')) = lower(COALESCE(m.tournament, ''))
      AND lower(btrim(o.team1)) NOT IN `+placeholderTeamList+`
      AND lower(btrim(o.team2)) NOT IN `+placeholderTeamList+`
)`),
		).
		ToSQL()
}

func demoteCorruptQuery(game string, at time.Time) (string, []any, error) {
	return qb.Update(matchesTable).
		Set("status", string(match.StatusUnknown)).
		SetExpr("score", "NULL").
		Set("updated_at", at).
		Where(
			qb.Eq("game", game),
			qb.Eq("status", string(match.StatusFinished)),
			qb.Or(
				qb.Expr(normalizedTeam1+" IN "+placeholderTeamList),
				qb.Expr(normalizedTeam2+" IN "+placeholderTeamList),
				qb.Expr("COALESCE(score, '') ~ '"+zeroScorePattern+"'"),
			),
		).
		ToSQL()
}

func externalIDFromKeyQuery(game string, at time.Time) (string, []any, error) {
	return qb.Update(matchesTable).
		SetExpr("external_id", "substring(identity_key from '"+primaryKeyCapture+"')").
		Set("updated_at", at).
		Where(
			qb.Eq("game", game),
			qb.Expr("COALESCE(external_id, '') = ''"),
			qb.Expr("identity_key ~ '"+primaryKeyPattern+"'"),
		).
		ToSQL()
}

func externalIDFromURLQuery(game string, at time.Time) (string, []any, error) {
	return qb.Update(matchesTable).
		SetExpr("external_id", "substring(detail_url from '"+detailURLCapture+"')").
		Set("updated_at", at).
		Where(
			qb.Eq("game", game),
			qb.Expr("COALESCE(external_id, '') = ''"),
			qb.Expr("detail_url ~ '"+detailURLPattern+"'"),
		).
		ToSQL()
}

type matchTx struct {
	tx *sqlx.Tx
}

func (t *matchTx) GetByIdentityKey(ctx context.Context, game, key string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(
			qb.Eq("game", game),
			qb.Eq("identity_key", key),
		).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by identity key query: %w", err)
	}
	return getMatch(ctx, t.tx, "get match by identity key", query, args)
}

func (t *matchTx) GetByDetailURL(ctx context.Context, game, detailURL string) (match.Match, bool, error) {
	if strings.TrimSpace(detailURL) == "" {
		return match.Match{}, false, nil
	}
	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(
			qb.Eq("game", game),
			qb.Eq("detail_url", detailURL),
		).
		OrderBy("id").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by detail url query: %w", err)
	}
	return getMatch(ctx, t.tx, "get match by detail url", query, args)
}

// FindMigrationCandidate returns the row nearest in time to the query that
// shares both teams (in order) and the tournament prefix.
func (t *matchTx) FindMigrationCandidate(ctx context.Context, q match.MigrationQuery) (match.Match, bool, error) {
	at := q.ScheduledAt.UTC()
	conditions := []qb.Condition{
		qb.Eq("game", q.Game),
		qb.Expr("lower(team1) = lower(?)", q.Team1),
		qb.Expr("lower(team2) = lower(?)", q.Team2),
		qb.Gte("scheduled_at", at.Add(-q.Window)),
		qb.Expr("scheduled_at <= ?", at.Add(q.Window)),
	}
	if q.TournamentPrefix != "" {
		conditions = append(conditions, qb.Expr(`lower(tournament) LIKE ? ESCAPE '\'`, escapeLike(q.TournamentPrefix)+"%"))
	}
	if q.FallbackOnly {
		conditions = append(conditions, qb.Expr("identity_key NOT LIKE 'lp:%'"))
	}

	query, args, err := qb.Select(matchColumns...).From(matchesTable).
		Where(conditions...).
		OrderBy(
			"abs(extract(epoch from scheduled_at) - "+strconv.FormatInt(at.Unix(), 10)+")",
			"id",
		).
		Limit(1).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build find migration candidate query: %w", err)
	}
	return getMatch(ctx, t.tx, "find migration candidate", query, args)
}

func (t *matchTx) RewriteIdentityKey(ctx context.Context, matchID int64, key string, at time.Time) error {
	query, args, err := qb.Update(matchesTable).
		Set("identity_key", key).
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build rewrite identity key query: %w", err)
	}
	return execOne(ctx, t.tx, "rewrite identity key", matchID, query, args)
}

func (t *matchTx) Insert(ctx context.Context, m match.Match) (match.Match, error) {
	query, args, err := qb.InsertModel(matchesTable, matchToRow(m), "RETURNING id", "id")
	if err != nil {
		return match.Match{}, fmt.Errorf("build insert match query: %w", err)
	}

	var id int64
	if err := t.tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return match.Match{}, fmt.Errorf("insert match %s: %w", m.IdentityKey, classifyError(err))
	}
	m.ID = id
	return m, nil
}

// Update rewrites every reconciled column. The identity key is part of the
// filter so a concurrent rewrite fails instead of being overwritten.
func (t *matchTx) Update(ctx context.Context, m match.Match) error {
	builder := qb.Update(matchesTable)
	if err := builder.SetModel(matchToRow(m), "id", "game", "identity_key", "created_at"); err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}
	query, args, err := builder.
		Where(
			qb.Eq("id", m.ID),
			qb.Eq("identity_key", m.IdentityKey),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}
	return execOne(ctx, t.tx, "update match", m.ID, query, args)
}

func (t *matchTx) UpsertByPath(ctx context.Context, ref team.Reference) (team.Reference, error) {
	return upsertTeamReference(ctx, t.tx, ref)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, op, query string, args []any) (match.Match, bool, error) {
	var row matchTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("%s: %w", op, classifyError(err))
	}
	return matchFromRow(row), true, nil
}

func selectMatches(ctx context.Context, q sqlx.QueryerContext, op, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classifyError(err))
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func execOne(ctx context.Context, e sqlx.ExecerContext, op string, matchID int64, query string, args []any) error {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s for match %d: %w", op, matchID, classifyError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected %s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: match %d", op, match.ErrNotFound, matchID)
	}
	return nil
}
