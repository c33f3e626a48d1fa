package match

import (
	"math"
	"sort"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/team"
)

// Strategy names the backfill search step that produced a result.
type Strategy string

const (
	StrategyExternalID Strategy = "external_id"
	StrategyTeamURLs   Strategy = "team_urls"
	StrategyFuzzyName  Strategy = "fuzzy_name"
	StrategyDetailPage Strategy = "detail_page"
)

// DefaultFuzzyWindow bounds how far apart in time a fuzzy name match may be.
const DefaultFuzzyWindow = 8 * time.Hour

// Hit is a completed observation matched to a persisted row.
type Hit struct {
	Strategy Strategy
	Snapshot Snapshot
	Score    Score
	Format   int
}

type pairKey struct {
	a string
	b string
}

func newPairKey(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// CompletedIndex is an immutable per-cycle lookup over completed-match
// snapshots, built with the same normalization, resolution and dedup rules
// as ingestion.
type CompletedIndex struct {
	byExternalID map[string]Snapshot
	byTeamURLs   map[pairKey][]Snapshot
	byTeamNames  map[pairKey][]Snapshot
	size         int
}

func NewCompletedIndex(snapshots []Snapshot) *CompletedIndex {
	resolved := make([]Resolved, 0, len(snapshots))
	for _, raw := range snapshots {
		s := NormalizeSnapshot(raw)
		id, err := Resolve(s)
		if err != nil {
			continue
		}
		resolved = append(resolved, Resolved{Identity: id, Snapshot: s})
	}

	idx := &CompletedIndex{
		byExternalID: make(map[string]Snapshot),
		byTeamURLs:   make(map[pairKey][]Snapshot),
		byTeamNames:  make(map[pairKey][]Snapshot),
	}
	for _, item := range Deduplicate(resolved) {
		s := item.Snapshot
		idx.size++
		if item.Identity.IsPrimary() {
			idx.byExternalID[item.Identity.ExternalID()] = s
		}
		url1, url2 := team.CanonicalPath(s.Team1URL), team.CanonicalPath(s.Team2URL)
		if url1 != "" && url2 != "" {
			key := newPairKey(url1, url2)
			idx.byTeamURLs[key] = append(idx.byTeamURLs[key], s)
		}
		if !IsPlaceholderTeam(s.Team1) && !IsPlaceholderTeam(s.Team2) {
			key := newPairKey(NormalizeName(s.Team1), NormalizeName(s.Team2))
			idx.byTeamNames[key] = append(idx.byTeamNames[key], s)
		}
	}

	return idx
}

func (idx *CompletedIndex) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Lookup tries the external id, the team-link pair and finally the fuzzy
// team-name pair, in that order. Only results whose score passes the series
// check for the effective format are accepted.
func (idx *CompletedIndex) Lookup(m Match, fuzzyWindow time.Duration) (Hit, bool) {
	if idx == nil || idx.size == 0 {
		return Hit{}, false
	}
	if hit, ok := idx.byID(m); ok {
		return hit, true
	}
	if hit, ok := idx.byLinks(m); ok {
		return hit, true
	}
	return idx.byNames(m, fuzzyWindow)
}

func (idx *CompletedIndex) byID(m Match) (Hit, bool) {
	externalID := ExternalIDOf(m)
	if externalID == "" {
		return Hit{}, false
	}
	s, ok := idx.byExternalID[externalID]
	if !ok {
		return Hit{}, false
	}
	return acceptHit(StrategyExternalID, s, m.Format)
}

func (idx *CompletedIndex) byLinks(m Match) (Hit, bool) {
	url1, url2 := team.CanonicalPath(m.Team1URL), team.CanonicalPath(m.Team2URL)
	if url1 == "" || url2 == "" {
		return Hit{}, false
	}
	candidates := acceptable(StrategyTeamURLs, idx.byTeamURLs[newPairKey(url1, url2)], m.Format)
	return nearest(candidates, m.ScheduledAt, 0)
}

func (idx *CompletedIndex) byNames(m Match, window time.Duration) (Hit, bool) {
	if IsPlaceholderTeam(m.Team1) || IsPlaceholderTeam(m.Team2) {
		return Hit{}, false
	}
	byTeams := idx.byTeamNames[newPairKey(NormalizeName(m.Team1), NormalizeName(m.Team2))]
	if len(byTeams) == 0 {
		return Hit{}, false
	}

	narrowed := byTeams
	if CleanTournamentName(m.Tournament) != "" {
		narrowed = make([]Snapshot, 0, len(byTeams))
		for _, s := range byTeams {
			if TournamentsOverlap(m.Tournament, s.Tournament) {
				narrowed = append(narrowed, s)
			}
		}
	}
	if window <= 0 {
		window = DefaultFuzzyWindow
	}
	return nearest(acceptable(StrategyFuzzyName, narrowed, m.Format), m.ScheduledAt, window)
}

func acceptable(strategy Strategy, snapshots []Snapshot, rowFormat int) []Hit {
	out := make([]Hit, 0, len(snapshots))
	for _, s := range snapshots {
		if hit, ok := acceptHit(strategy, s, rowFormat); ok {
			out = append(out, hit)
		}
	}
	return out
}

func acceptHit(strategy Strategy, s Snapshot, rowFormat int) (Hit, bool) {
	score, err := ParseScore(s.Score)
	if err != nil {
		return Hit{}, false
	}
	format := s.Format
	if format <= 0 {
		format = rowFormat
	}
	if !score.IsSeriesFinal(format) {
		return Hit{}, false
	}
	return Hit{Strategy: strategy, Snapshot: s, Score: score, Format: format}, true
}

// nearest picks the hit closest to at. With a zero at the first hit wins.
// A positive window rejects hits further away than the window, including
// hits without a time.
func nearest(hits []Hit, at time.Time, window time.Duration) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	if at.IsZero() {
		return hits[0], true
	}

	type ranked struct {
		hit      Hit
		distance time.Duration
		order    int
	}
	candidates := make([]ranked, 0, len(hits))
	for i, hit := range hits {
		if !hit.Snapshot.HasTime() {
			if window > 0 {
				continue
			}
			candidates = append(candidates, ranked{hit: hit, distance: time.Duration(math.MaxInt64), order: i})
			continue
		}
		distance := hit.Snapshot.ScheduledAt.Sub(at)
		if distance < 0 {
			distance = -distance
		}
		if window > 0 && distance > window {
			continue
		}
		candidates = append(candidates, ranked{hit: hit, distance: distance, order: i})
	}
	if len(candidates) == 0 {
		return Hit{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].order < candidates[j].order
	})
	return candidates[0].hit, true
}
