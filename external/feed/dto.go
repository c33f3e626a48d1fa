package feed

import (
	"strings"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
)

type matchesEnvelope struct {
	Data []matchDTO `json:"data"`
}

type matchDTO struct {
	ID            string  `json:"id"`
	StartTime     string  `json:"start_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Timestamp     int64   `json:"timestamp" validate:"gte=0"`
	RawTime       string  `json:"raw_time"`
	Team1         teamDTO `json:"team1"`
	Team2         teamDTO `json:"team2"`
	Score         string  `json:"score" validate:"max=32"`
	BestOf        int     `json:"best_of" validate:"gte=0,lte=15"`
	Tournament    string  `json:"tournament" validate:"max=256"`
	TournamentURL string  `json:"tournament_url"`
	Status        string  `json:"status" validate:"omitempty,oneof=upcoming live finished unknown"`
	DetailURL     string  `json:"detail_url"`
}

type teamDTO struct {
	Name string `json:"name" validate:"max=128"`
	URL  string `json:"url"`
}

func (d matchDTO) toDomain(game string) match.Snapshot {
	return match.Snapshot{
		Game:          game,
		ScheduledAt:   d.scheduledAt(),
		RawTime:       strings.TrimSpace(d.RawTime),
		Team1:         d.Team1.Name,
		Team2:         d.Team2.Name,
		Team1URL:      d.Team1.URL,
		Team2URL:      d.Team2.URL,
		Score:         d.Score,
		Format:        d.BestOf,
		Tournament:    d.Tournament,
		TournamentURL: d.TournamentURL,
		StatusHint:    match.Status(strings.ToLower(strings.TrimSpace(d.Status))),
		ExternalID:    strings.TrimSpace(d.ID),
		DetailURL:     strings.TrimSpace(d.DetailURL),
	}
}

// scheduledAt prefers the RFC 3339 start time over the unix timestamp.
func (d matchDTO) scheduledAt() time.Time {
	if raw := strings.TrimSpace(d.StartTime); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC()
		}
	}
	if d.Timestamp > 0 {
		return time.Unix(d.Timestamp, 0).UTC()
	}
	return time.Time{}
}

type tournamentsEnvelope struct {
	Data []tournamentDTO `json:"data"`
}

type tournamentDTO struct {
	Name   string `json:"name" validate:"required,max=256"`
	URL    string `json:"url"`
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

func (d tournamentDTO) toDomain(game string) tournament.Tournament {
	return tournament.Tournament{
		Game:   game,
		Name:   d.Name,
		URL:    d.URL,
		Tier:   d.Tier,
		Status: d.Status,
	}.Normalize()
}
