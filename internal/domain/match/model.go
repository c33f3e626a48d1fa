package match

import (
	"strings"
	"time"
)

type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// NormalizeStatus maps source status text onto the lifecycle states.
// Anything unrecognised is treated as unknown.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "upcoming", "scheduled", "not_started", "notstarted":
		return StatusUpcoming
	case "live", "ongoing", "in_progress", "inprogress":
		return StatusLive
	case "finished", "completed", "done", "final":
		return StatusFinished
	default:
		return StatusUnknown
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusFinished
}

// Snapshot is one observation of a match produced by the extraction feed.
// Empty strings and zero values mean "absent".
type Snapshot struct {
	Game          string
	ScheduledAt   time.Time
	RawTime       string
	Team1         string
	Team2         string
	Team1URL      string
	Team2URL      string
	Score         string
	Format        int
	Tournament    string
	TournamentURL string
	StatusHint    Status
	ExternalID    string
	DetailURL     string
}

func (s Snapshot) HasTime() bool {
	return !s.ScheduledAt.IsZero()
}

// Match is the canonical persisted record of one real-world match.
type Match struct {
	ID                 int64
	Game               string
	IdentityKey        string
	ScheduledAt        time.Time
	RawTime            string
	Team1              string
	Team2              string
	Team1URL           string
	Team2URL           string
	Team1ID            int64
	Team2ID            int64
	Score              string
	Format             int
	Tournament         string
	Status             Status
	ExternalID         string
	DetailURL          string
	LastScoreCheckAt   time.Time
	ScoreLastUpdatedAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (m Match) HasTime() bool {
	return !m.ScheduledAt.IsZero()
}

// HasTeams reports whether both sides carry a concrete team name.
func (m Match) HasTeams() bool {
	return !IsPlaceholderTeam(m.Team1) && !IsPlaceholderTeam(m.Team2)
}

// StatusChange is a pending lifecycle transition computed by the state machine.
type StatusChange struct {
	MatchID int64
	From    Status
	To      Status
}

// BackfillUpdate is the write produced by one score backfill attempt.
type BackfillUpdate struct {
	MatchID    int64
	Score      string
	Format     int
	Status     Status
	DetailURL  string
	ExternalID string
	CheckedAt  time.Time
}

// RepairReport counts rows touched by each auto-repair statement.
type RepairReport struct {
	DeletedUnidentified int64
	DeletedPlaceholders int64
	DemotedCorrupt      int64
	BackfilledFromKey   int64
	BackfilledFromURL   int64
}

func (r RepairReport) Total() int64 {
	return r.DeletedUnidentified + r.DeletedPlaceholders + r.DemotedCorrupt + r.BackfilledFromKey + r.BackfilledFromURL
}

// MigrationQuery describes the plausible-same-match search used when a
// stronger identity appears for a previously fallback-keyed row.
type MigrationQuery struct {
	Game             string
	Team1            string
	Team2            string
	TournamentPrefix string
	ScheduledAt      time.Time
	Window           time.Duration
	FallbackOnly     bool
}

// EventType names a match event published for downstream consumers.
type EventType string

const (
	EventMatchCreated  EventType = "match_created"
	EventStatusChanged EventType = "status_changed"
	EventScoreChanged  EventType = "score_changed"
)

type Event struct {
	Type        EventType `json:"type"`
	Game        string    `json:"game"`
	MatchID     int64     `json:"match_id"`
	IdentityKey string    `json:"identity_key"`
	Team1       string    `json:"team1,omitempty"`
	Team2       string    `json:"team2,omitempty"`
	Tournament  string    `json:"tournament,omitempty"`
	Score       string    `json:"score,omitempty"`
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
