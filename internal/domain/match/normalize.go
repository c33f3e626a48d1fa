package match

import (
	"regexp"
	"slices"
	"strings"

	"github.com/riskibarqy/matchsync/internal/domain/team"
)

var (
	tournamentStageSuffix = regexp.MustCompile(
		`(?i)\s*-\s*(?:Playoffs?|Group\s+[A-Z]\b|Groups?|Play-In|Qualifiers?|` +
			`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d+-[A-Z]\b)`,
	)

	placeholderTeams = map[string]struct{}{
		"":                 {},
		"tbd":              {},
		"tba":              {},
		"tbc":              {},
		"to be determined": {},
		"to be decided":    {},
		"to be announced":  {},
	}
)

// IsPlaceholderTeam reports empty names and "to be decided" markers.
func IsPlaceholderTeam(name string) bool {
	_, ok := placeholderTeams[NormalizeName(name)]
	return ok
}

// PlaceholderTeamNames lists the normalized names treated as "no team yet",
// sorted, for storage layers that filter on them.
func PlaceholderTeamNames() []string {
	out := make([]string, 0, len(placeholderTeams))
	for name := range placeholderTeams {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// NormalizeName lowercases and collapses whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CleanTournamentName drops a trailing stage suffix such as " - Playoffs",
// " - Group B" or " - November 29-A".
func CleanTournamentName(name string) string {
	trimmed := strings.TrimSpace(name)
	if loc := tournamentStageSuffix.FindStringIndex(trimmed); loc != nil {
		if cleaned := strings.TrimSpace(trimmed[:loc[0]]); cleaned != "" {
			return cleaned
		}
	}
	return trimmed
}

// TournamentsOverlap reports whether either cleaned, normalized name contains the other.
func TournamentsOverlap(a, b string) bool {
	left := NormalizeName(CleanTournamentName(a))
	right := NormalizeName(CleanTournamentName(b))
	if left == "" || right == "" {
		return false
	}
	return strings.Contains(left, right) || strings.Contains(right, left)
}

// NormalizeSnapshot applies input validation to a raw snapshot and returns a
// cleaned copy. The argument is left untouched.
func NormalizeSnapshot(s Snapshot) Snapshot {
	out := s
	out.Game = strings.TrimSpace(s.Game)
	out.RawTime = strings.TrimSpace(s.RawTime)
	out.Team1 = team.StripMissingPage(s.Team1)
	out.Team2 = team.StripMissingPage(s.Team2)
	out.Team1URL = cleanLink(s.Team1URL)
	out.Team2URL = cleanLink(s.Team2URL)
	out.Tournament = strings.Join(strings.Fields(s.Tournament), " ")
	out.TournamentURL = strings.TrimSpace(s.TournamentURL)
	out.ExternalID = strings.TrimSpace(s.ExternalID)
	out.DetailURL = strings.TrimSpace(s.DetailURL)
	out.StatusHint = NormalizeStatus(string(s.StatusHint))
	if out.Format < 0 {
		out.Format = 0
	}
	if !out.ScheduledAt.IsZero() {
		out.ScheduledAt = out.ScheduledAt.UTC()
	}

	// A live or finished result needs two real teams behind it.
	if (out.StatusHint == StatusLive || out.StatusHint == StatusFinished) &&
		(IsPlaceholderTeam(out.Team1) || IsPlaceholderTeam(out.Team2)) {
		out.StatusHint = StatusUnknown
		out.Score = ""
		return out
	}

	score, err := ParseScore(s.Score)
	if err != nil {
		out.Score = ""
		if out.StatusHint == StatusFinished {
			out.StatusHint = StatusUnknown
		}
		return out
	}
	out.Score = score.String()

	if out.StatusHint == StatusFinished {
		if score.IsZero() {
			out.StatusHint = StatusUnknown
			out.Score = ""
			return out
		}
		if out.Format > 0 && score.Max() < out.Format/2+1 {
			out.StatusHint = StatusUnknown
			out.Score = ""
		}
	}

	return out
}

func cleanLink(link string) string {
	value := strings.TrimSpace(link)
	if team.IsMissingPage(value) {
		return ""
	}
	return value
}
