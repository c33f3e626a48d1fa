package match

import "time"

const (
	DefaultStatusLead = 5 * time.Minute
	DefaultStatusLag  = 5 * time.Minute
	DefaultLiveWindow = 4 * time.Hour
)

// StatusPolicy holds the time thresholds of the lifecycle state machine.
type StatusPolicy struct {
	// Lead is how far in the future a start must be to count as upcoming.
	Lead time.Duration
	// Lag is how long after the start a match is presumed live.
	Lag time.Duration
	// LiveWindow caps how long after the start a match may still be promoted
	// to live. Zero disables the cap.
	LiveWindow time.Duration
}

func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{
		Lead:       DefaultStatusLead,
		Lag:        DefaultStatusLag,
		LiveWindow: DefaultLiveWindow,
	}
}

// Next evaluates one state-machine step for a persisted row.
func (p StatusPolicy) Next(m Match, now time.Time) Status {
	current := m.Status
	if current == "" {
		current = StatusUnknown
	}
	if current.IsTerminal() {
		return current
	}

	if score, err := ParseScore(m.Score); err == nil && score.IsSeriesFinal(m.Format) {
		return StatusFinished
	}

	if !m.HasTime() {
		return current
	}
	if m.ScheduledAt.After(now.Add(p.Lead)) {
		return StatusUpcoming
	}

	started := !m.ScheduledAt.After(now.Add(-p.Lag))
	withinWindow := p.LiveWindow <= 0 || !m.ScheduledAt.Before(now.Add(-p.LiveWindow))
	if started && withinWindow && (current == StatusUnknown || current == StatusUpcoming) {
		return StatusLive
	}

	return current
}

// Transitions returns the rows whose status changes at now.
func (p StatusPolicy) Transitions(rows []Match, now time.Time) []StatusChange {
	var out []StatusChange
	for _, m := range rows {
		next := p.Next(m, now)
		if next == m.Status {
			continue
		}
		out = append(out, StatusChange{MatchID: m.ID, From: m.Status, To: next})
	}
	return out
}

// IsCorruptFinished reports finished rows that cannot be trusted: a side
// without a concrete team, or the literal 0:0 score.
func IsCorruptFinished(m Match) bool {
	if m.Status != StatusFinished {
		return false
	}
	if !m.HasTeams() {
		return true
	}
	score, err := ParseScore(m.Score)
	return err == nil && score.IsZero()
}

// Demote resets a corrupt finished row. Only the repair pass calls this.
func Demote(m Match) Match {
	m.Status = StatusUnknown
	m.Score = ""
	return m
}
