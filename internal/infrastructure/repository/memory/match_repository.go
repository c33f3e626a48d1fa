package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
)

type state struct {
	matches    map[int64]match.Match
	byKey      map[string]int64
	teams      map[int64]team.Reference
	teamByPath map[string]int64
	nextMatch  int64
	nextTeam   int64
}

func newState() *state {
	return &state{
		matches:    make(map[int64]match.Match),
		byKey:      make(map[string]int64),
		teams:      make(map[int64]team.Reference),
		teamByPath: make(map[string]int64),
	}
}

func (s *state) clone() *state {
	return &state{
		matches:    maps.Clone(s.matches),
		byKey:      maps.Clone(s.byKey),
		teams:      maps.Clone(s.teams),
		teamByPath: maps.Clone(s.teamByPath),
		nextMatch:  s.nextMatch,
		nextTeam:   s.nextTeam,
	}
}

func scopedKey(game, key string) string {
	return game + "\x00" + key
}

// MatchRepository keeps matches and team references in process. Transactions
// run against a copy that replaces the live state only on success, and the
// identity key is unique per game just like the database constraint.
type MatchRepository struct {
	mu    sync.RWMutex
	state *state
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{state: newState()}
}

func (r *MatchRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx match.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.state.clone()
	if err := fn(ctx, &matchTx{state: work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.state.matches[matchID]
	return m, ok, nil
}

// List returns every stored match of a game ordered by id.
func (r *MatchRepository) List(_ context.Context, game string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(m match.Match) bool { return m.Game == game }), nil
}

func (r *MatchRepository) ListBackfillCandidates(_ context.Context, game string, startedBefore time.Time, limit int) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.filter(func(m match.Match) bool {
		return m.Game == game &&
			m.Status != match.StatusFinished &&
			m.HasTime() &&
			m.ScheduledAt.Before(startedBefore)
	})
	slices.SortStableFunc(out, func(a, b match.Match) int {
		switch {
		case a.LastScoreCheckAt.IsZero() && !b.LastScoreCheckAt.IsZero():
			return -1
		case !a.LastScoreCheckAt.IsZero() && b.LastScoreCheckAt.IsZero():
			return 1
		}
		if c := a.LastScoreCheckAt.Compare(b.LastScoreCheckAt); c != 0 {
			return c
		}
		return b.ScheduledAt.Compare(a.ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MatchRepository) ApplyBackfill(_ context.Context, update match.BackfillUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.state.matches[update.MatchID]
	if !ok {
		return fmt.Errorf("%w: match %d", match.ErrNotFound, update.MatchID)
	}
	m.LastScoreCheckAt = update.CheckedAt
	if m.Status != match.StatusFinished {
		if update.Score != m.Score {
			m.ScoreLastUpdatedAt = update.CheckedAt
		}
		m.Score = update.Score
		if update.Format > 0 {
			m.Format = update.Format
		}
		if update.Status != "" {
			m.Status = update.Status
		}
		if m.DetailURL == "" {
			m.DetailURL = update.DetailURL
		}
		if m.ExternalID == "" {
			m.ExternalID = update.ExternalID
		}
		m.UpdatedAt = update.CheckedAt
	}
	r.state.matches[m.ID] = m
	return nil
}

func (r *MatchRepository) MarkScoreChecked(_ context.Context, matchID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.state.matches[matchID]
	if !ok {
		return fmt.Errorf("%w: match %d", match.ErrNotFound, matchID)
	}
	m.LastScoreCheckAt = at
	r.state.matches[matchID] = m
	return nil
}

func (r *MatchRepository) ListUnfinished(_ context.Context, game string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(m match.Match) bool {
		return m.Game == game && m.Status != match.StatusFinished
	}), nil
}

func (r *MatchRepository) ApplyStatusChanges(_ context.Context, changes []match.StatusChange, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, change := range changes {
		m, ok := r.state.matches[change.MatchID]
		if !ok || m.Status != change.From || m.Status.IsTerminal() {
			continue
		}
		m.Status = change.To
		m.UpdatedAt = at
		r.state.matches[m.ID] = m
	}
	return nil
}

func (r *MatchRepository) Repair(_ context.Context, game string, at time.Time) (match.RepairReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var report match.RepairReport
	s := r.state

	for _, m := range r.filter(func(m match.Match) bool { return m.Game == game }) {
		if strings.TrimSpace(m.IdentityKey) == "" || isUnidentifiable(m) {
			s.delete(m)
			report.DeletedUnidentified++
		}
	}

	rows := r.filter(func(m match.Match) bool { return m.Game == game })
	for _, m := range rows {
		if m.HasTeams() || !m.HasTime() {
			continue
		}
		shadowed := slices.ContainsFunc(rows, func(other match.Match) bool {
			return other.ID != m.ID &&
				other.HasTeams() &&
				other.ScheduledAt.Equal(m.ScheduledAt) &&
				strings.EqualFold(other.Tournament, m.Tournament)
		})
		if shadowed {
			s.delete(m)
			report.DeletedPlaceholders++
		}
	}

	for _, m := range r.filter(func(m match.Match) bool { return m.Game == game }) {
		changed := false
		if match.IsCorruptFinished(m) {
			m = match.Demote(m)
			report.DemotedCorrupt++
			changed = true
		}
		if m.ExternalID == "" {
			if id := match.ExternalIDFromKey(m.IdentityKey); id != "" {
				m.ExternalID = id
				report.BackfilledFromKey++
				changed = true
			} else if id := match.ExternalIDFromURL(m.DetailURL); id != "" {
				m.ExternalID = id
				report.BackfilledFromURL++
				changed = true
			}
		}
		if changed {
			m.UpdatedAt = at
			s.matches[m.ID] = m
		}
	}

	return report, nil
}

// isUnidentifiable matches rows from which no identity can be derived again.
func isUnidentifiable(m match.Match) bool {
	return !m.HasTime() &&
		match.IsPlaceholderTeam(m.Team1) &&
		match.IsPlaceholderTeam(m.Team2) &&
		match.ExternalIDOf(m) == ""
}

func (s *state) delete(m match.Match) {
	delete(s.matches, m.ID)
	if id, ok := s.byKey[scopedKey(m.Game, m.IdentityKey)]; ok && id == m.ID {
		delete(s.byKey, scopedKey(m.Game, m.IdentityKey))
	}
}

func (r *MatchRepository) filter(keep func(match.Match) bool) []match.Match {
	out := make([]match.Match, 0)
	for _, m := range r.state.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b match.Match) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Seed stores rows as-is, assigning ids to rows without one. It bypasses
// merge rules and is meant for fixtures and local runs.
func (r *MatchRepository) Seed(rows ...match.Match) []match.Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]match.Match, 0, len(rows))
	for _, m := range rows {
		if m.ID == 0 {
			r.state.nextMatch++
			m.ID = r.state.nextMatch
		} else if m.ID > r.state.nextMatch {
			r.state.nextMatch = m.ID
		}
		r.state.matches[m.ID] = m
		if m.IdentityKey != "" {
			r.state.byKey[scopedKey(m.Game, m.IdentityKey)] = m.ID
		}
		out = append(out, m)
	}
	return out
}

// Teams returns the stored team references of a game ordered by id.
func (r *MatchRepository) Teams(game string) []team.Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Reference, 0, len(r.state.teams))
	for _, ref := range r.state.teams {
		if ref.Game == game {
			out = append(out, ref)
		}
	}
	slices.SortFunc(out, func(a, b team.Reference) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

type matchTx struct {
	state *state
}

func (t *matchTx) GetByIdentityKey(_ context.Context, game, key string) (match.Match, bool, error) {
	id, ok := t.state.byKey[scopedKey(game, key)]
	if !ok {
		return match.Match{}, false, nil
	}
	return t.state.matches[id], true, nil
}

func (t *matchTx) GetByDetailURL(_ context.Context, game, detailURL string) (match.Match, bool, error) {
	if strings.TrimSpace(detailURL) == "" {
		return match.Match{}, false, nil
	}
	var (
		best  match.Match
		found bool
	)
	for _, m := range t.state.matches {
		if m.Game != game || m.DetailURL != detailURL {
			continue
		}
		if !found || m.ID < best.ID {
			best, found = m, true
		}
	}
	return best, found, nil
}

func (t *matchTx) FindMigrationCandidate(_ context.Context, q match.MigrationQuery) (match.Match, bool, error) {
	var (
		best     match.Match
		bestDist time.Duration
		found    bool
	)
	for _, m := range t.state.matches {
		if m.Game != q.Game || !m.HasTime() {
			continue
		}
		if q.FallbackOnly && match.IsPrimaryKey(m.IdentityKey) {
			continue
		}
		if !strings.EqualFold(m.Team1, q.Team1) || !strings.EqualFold(m.Team2, q.Team2) {
			continue
		}
		if q.TournamentPrefix != "" && !strings.HasPrefix(strings.ToLower(m.Tournament), q.TournamentPrefix) {
			continue
		}
		dist := m.ScheduledAt.Sub(q.ScheduledAt).Abs()
		if dist > q.Window {
			continue
		}
		if !found || dist < bestDist || (dist == bestDist && m.ID < best.ID) {
			best, bestDist, found = m, dist, true
		}
	}
	return best, found, nil
}

func (t *matchTx) RewriteIdentityKey(_ context.Context, matchID int64, key string, at time.Time) error {
	m, ok := t.state.matches[matchID]
	if !ok {
		return fmt.Errorf("%w: match %d", match.ErrNotFound, matchID)
	}
	next := scopedKey(m.Game, key)
	if owner, taken := t.state.byKey[next]; taken && owner != matchID {
		return fmt.Errorf("%w: identity key %s already used by match %d", match.ErrConflict, key, owner)
	}
	delete(t.state.byKey, scopedKey(m.Game, m.IdentityKey))
	m.IdentityKey = key
	m.UpdatedAt = at
	t.state.matches[matchID] = m
	t.state.byKey[next] = matchID
	return nil
}

func (t *matchTx) Insert(_ context.Context, m match.Match) (match.Match, error) {
	key := scopedKey(m.Game, m.IdentityKey)
	if owner, taken := t.state.byKey[key]; taken {
		return match.Match{}, fmt.Errorf("%w: identity key %s already used by match %d", match.ErrConflict, m.IdentityKey, owner)
	}
	t.state.nextMatch++
	m.ID = t.state.nextMatch
	t.state.matches[m.ID] = m
	t.state.byKey[key] = m.ID
	return m, nil
}

func (t *matchTx) Update(_ context.Context, m match.Match) error {
	current, ok := t.state.matches[m.ID]
	if !ok {
		return fmt.Errorf("%w: match %d", match.ErrNotFound, m.ID)
	}
	if current.IdentityKey != m.IdentityKey {
		return fmt.Errorf("update match %d: identity key changes must use RewriteIdentityKey", m.ID)
	}
	m.CreatedAt = current.CreatedAt
	t.state.matches[m.ID] = m
	return nil
}

func (t *matchTx) UpsertByPath(_ context.Context, ref team.Reference) (team.Reference, error) {
	return upsertTeam(t.state, ref, time.Now().UTC())
}

func upsertTeam(s *state, ref team.Reference, now time.Time) (team.Reference, error) {
	if err := ref.Validate(); err != nil {
		return team.Reference{}, err
	}
	key := scopedKey(ref.Game, ref.Path)
	if id, ok := s.teamByPath[key]; ok {
		stored := s.teams[id]
		stored.Name = ref.Name
		if ref.URL != "" {
			stored.URL = ref.URL
		}
		stored.UpdatedAt = now
		s.teams[id] = stored
		return stored, nil
	}
	s.nextTeam++
	ref.ID = s.nextTeam
	ref.CreatedAt = now
	ref.UpdatedAt = now
	s.teams[ref.ID] = ref
	s.teamByPath[key] = ref.ID
	return ref, nil
}
