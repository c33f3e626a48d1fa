package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
	qb "github.com/riskibarqy/matchsync/internal/platform/querybuilder"
)

type matchTableModel struct {
	ID                 int64          `db:"id"`
	Game               string         `db:"game"`
	IdentityKey        string         `db:"identity_key"`
	ScheduledAt        sql.NullTime   `db:"scheduled_at"`
	RawTime            string         `db:"raw_time"`
	Team1              string         `db:"team1"`
	Team2              string         `db:"team2"`
	Team1URL           sql.NullString `db:"team1_url"`
	Team2URL           sql.NullString `db:"team2_url"`
	Team1ID            sql.NullInt64  `db:"team1_id"`
	Team2ID            sql.NullInt64  `db:"team2_id"`
	Score              sql.NullString `db:"score"`
	Format             sql.NullInt64  `db:"format"`
	Tournament         string         `db:"tournament"`
	Status             string         `db:"status"`
	ExternalID         sql.NullString `db:"external_id"`
	DetailURL          sql.NullString `db:"detail_url"`
	LastScoreCheckAt   sql.NullTime   `db:"last_score_check_at"`
	ScoreLastUpdatedAt sql.NullTime   `db:"score_last_updated_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

var matchColumns = qb.Columns(matchTableModel{})

func matchToRow(m match.Match) matchTableModel {
	status := string(m.Status)
	if status == "" {
		status = string(match.StatusUnknown)
	}
	return matchTableModel{
		ID:                 m.ID,
		Game:               m.Game,
		IdentityKey:        m.IdentityKey,
		ScheduledAt:        nullTime(m.ScheduledAt),
		RawTime:            m.RawTime,
		Team1:              m.Team1,
		Team2:              m.Team2,
		Team1URL:           nullString(m.Team1URL),
		Team2URL:           nullString(m.Team2URL),
		Team1ID:            nullInt64(m.Team1ID),
		Team2ID:            nullInt64(m.Team2ID),
		Score:              nullString(m.Score),
		Format:             nullInt64(int64(m.Format)),
		Tournament:         m.Tournament,
		Status:             status,
		ExternalID:         nullString(m.ExternalID),
		DetailURL:          nullString(m.DetailURL),
		LastScoreCheckAt:   nullTime(m.LastScoreCheckAt),
		ScoreLastUpdatedAt: nullTime(m.ScoreLastUpdatedAt),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:                 row.ID,
		Game:               row.Game,
		IdentityKey:        row.IdentityKey,
		ScheduledAt:        timeOrZero(row.ScheduledAt),
		RawTime:            row.RawTime,
		Team1:              row.Team1,
		Team2:              row.Team2,
		Team1URL:           row.Team1URL.String,
		Team2URL:           row.Team2URL.String,
		Team1ID:            row.Team1ID.Int64,
		Team2ID:            row.Team2ID.Int64,
		Score:              row.Score.String,
		Format:             int(row.Format.Int64),
		Tournament:         row.Tournament,
		Status:             match.NormalizeStatus(row.Status),
		ExternalID:         row.ExternalID.String,
		DetailURL:          row.DetailURL.String,
		LastScoreCheckAt:   timeOrZero(row.LastScoreCheckAt),
		ScoreLastUpdatedAt: timeOrZero(row.ScoreLastUpdatedAt),
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
}

type teamReferenceTableModel struct {
	ID        int64          `db:"id"`
	Game      string         `db:"game"`
	Path      string         `db:"path"`
	Name      string         `db:"name"`
	URL       sql.NullString `db:"url"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

var teamReferenceColumns = qb.Columns(teamReferenceTableModel{})

func teamReferenceFromRow(row teamReferenceTableModel) team.Reference {
	return team.Reference{
		ID:        row.ID,
		Game:      row.Game,
		Path:      row.Path,
		Name:      row.Name,
		URL:       row.URL.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
