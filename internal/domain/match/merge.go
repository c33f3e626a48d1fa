package match

import "strings"

// FromSnapshot builds the incoming side of a merge. Team reference ids are
// filled in by the caller after the team upsert.
func FromSnapshot(id Identity, s Snapshot) Match {
	m := Match{
		Game:        s.Game,
		IdentityKey: id.Key(),
		ScheduledAt: s.ScheduledAt,
		RawTime:     s.RawTime,
		Team1:       s.Team1,
		Team2:       s.Team2,
		Team1URL:    s.Team1URL,
		Team2URL:    s.Team2URL,
		Score:       s.Score,
		Format:      s.Format,
		Tournament:  s.Tournament,
		Status:      s.StatusHint,
		ExternalID:  s.ExternalID,
		DetailURL:   s.DetailURL,
	}
	if m.Status == "" {
		m.Status = StatusUnknown
	}
	if id.IsPrimary() {
		m.ExternalID = id.ExternalID()
	}
	return m
}

// Merge folds incoming into existing without erasing stored data: present
// incoming values win, absent ones keep the stored value, and a finished
// row keeps its status and score. Identity, surrogate id and timestamps are
// carried over from existing.
func Merge(existing, incoming Match) Match {
	merged := existing
	if merged.IdentityKey == "" {
		merged.IdentityKey = incoming.IdentityKey
	}
	if merged.Game == "" {
		merged.Game = incoming.Game
	}

	if !incoming.ScheduledAt.IsZero() {
		merged.ScheduledAt = incoming.ScheduledAt
	}
	merged.RawTime = coalesce(incoming.RawTime, existing.RawTime)
	merged.Team1 = mergeTeamName(existing.Team1, incoming.Team1)
	merged.Team2 = mergeTeamName(existing.Team2, incoming.Team2)
	merged.Team1URL = coalesce(incoming.Team1URL, existing.Team1URL)
	merged.Team2URL = coalesce(incoming.Team2URL, existing.Team2URL)
	if incoming.Team1ID > 0 {
		merged.Team1ID = incoming.Team1ID
	}
	if incoming.Team2ID > 0 {
		merged.Team2ID = incoming.Team2ID
	}
	if incoming.Format > 0 {
		merged.Format = incoming.Format
	}
	merged.Tournament = coalesce(incoming.Tournament, existing.Tournament)
	merged.ExternalID = coalesce(incoming.ExternalID, existing.ExternalID)
	merged.DetailURL = coalesce(incoming.DetailURL, existing.DetailURL)

	if existing.Status != StatusFinished {
		merged.Score = coalesce(incoming.Score, existing.Score)
	}
	merged.Status = MergeStatus(existing.Status, incoming.Status)

	return merged
}

// MergeStatus keeps finished, ignores unknown incoming values and otherwise
// adopts the incoming status.
func MergeStatus(existing, incoming Status) Status {
	if existing.IsTerminal() {
		return StatusFinished
	}
	if incoming == "" || incoming == StatusUnknown {
		if existing == "" {
			return StatusUnknown
		}
		return existing
	}
	return incoming
}

// SameContent compares the reconciled fields of two rows, ignoring
// bookkeeping timestamps.
func SameContent(a, b Match) bool {
	return a.IdentityKey == b.IdentityKey &&
		a.Game == b.Game &&
		a.ScheduledAt.Equal(b.ScheduledAt) &&
		a.RawTime == b.RawTime &&
		a.Team1 == b.Team1 &&
		a.Team2 == b.Team2 &&
		a.Team1URL == b.Team1URL &&
		a.Team2URL == b.Team2URL &&
		a.Team1ID == b.Team1ID &&
		a.Team2ID == b.Team2ID &&
		a.Score == b.Score &&
		a.Format == b.Format &&
		a.Tournament == b.Tournament &&
		a.Status == b.Status &&
		a.ExternalID == b.ExternalID &&
		a.DetailURL == b.DetailURL
}

// A placeholder never replaces a concrete team name.
func mergeTeamName(existing, incoming string) string {
	if strings.TrimSpace(incoming) == "" {
		return existing
	}
	if IsPlaceholderTeam(incoming) && !IsPlaceholderTeam(existing) {
		return existing
	}
	return incoming
}

func coalesce(incoming, existing string) string {
	if strings.TrimSpace(incoming) != "" {
		return incoming
	}
	return existing
}
