package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/team"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
)

type ReconcileConfig struct {
	// MigrationWindow bounds the scheduled-time distance when adopting an
	// existing row for a snapshot whose key is not stored yet.
	MigrationWindow time.Duration
	Retry           resilience.RetryPolicy
}

func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		MigrationWindow: 15 * time.Minute,
		Retry:           resilience.DefaultRetryPolicy(),
	}
}

// BatchResult counts what one reconciliation batch did. Write counters
// describe the committed attempt only.
type BatchResult struct {
	Received      int `json:"received"`
	Unresolvable  int `json:"unresolvable"`
	Duplicates    int `json:"duplicates"`
	Inserted      int `json:"inserted"`
	Updated       int `json:"updated"`
	Unchanged     int `json:"unchanged"`
	Migrated      int `json:"migrated"`
	Adopted       int `json:"adopted"`
	TeamsUpserted int `json:"teams_upserted"`
	Attempts      int `json:"attempts"`
}

// ReconcileService resolves, deduplicates and merges one batch of snapshots
// into the match store inside a single retried transaction.
type ReconcileService struct {
	matches match.Repository
	events  EventPublisher
	cfg     ReconcileConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewReconcileService(matches match.Repository, events EventPublisher, cfg ReconcileConfig, logger *logging.Logger) *ReconcileService {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MigrationWindow <= 0 {
		cfg.MigrationWindow = DefaultReconcileConfig().MigrationWindow
	}
	return &ReconcileService{
		matches: matches,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Prepare normalizes, canonicalizes and resolves a batch, then collapses
// snapshots sharing an identity. It performs no I/O.
func (s *ReconcileService) Prepare(ctx context.Context, game string, snapshots []match.Snapshot, catalog tournament.Catalog) ([]match.Resolved, BatchResult) {
	result := BatchResult{Received: len(snapshots)}

	resolved := make([]match.Resolved, 0, len(snapshots))
	for _, raw := range snapshots {
		if strings.TrimSpace(raw.Game) == "" {
			raw.Game = game
		}
		snapshot := catalog.Canonicalize(match.NormalizeSnapshot(raw))

		identity, err := match.Resolve(snapshot)
		if err != nil {
			result.Unresolvable++
			s.logger.DebugContext(ctx, "drop unresolvable snapshot",
				"game", game,
				"raw_time", snapshot.RawTime,
				"tournament", snapshot.Tournament,
				"error", err,
			)
			continue
		}
		resolved = append(resolved, match.Resolved{Identity: identity, Snapshot: snapshot})
	}

	deduped := match.Deduplicate(resolved)
	result.Duplicates = len(resolved) - len(deduped)
	return deduped, result
}

// Reconcile writes one batch. A transient storage conflict retries the whole
// batch with linear backoff; events are published only after commit.
func (s *ReconcileService) Reconcile(ctx context.Context, game string, snapshots []match.Snapshot, catalog tournament.Catalog) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile", attribute.String("game", game))
	defer span.End()

	game = strings.TrimSpace(game)
	if game == "" {
		return BatchResult{}, fmt.Errorf("%w: game is required", ErrInvalidInput)
	}

	batch, result := s.Prepare(ctx, game, snapshots, catalog)
	if len(batch) == 0 {
		return result, nil
	}

	var (
		committed BatchResult
		events    []match.Event
	)
	err := resilience.Retry(ctx, s.cfg.Retry, isTransientConflict, func(ctx context.Context, attempt int) error {
		result.Attempts = attempt
		attemptResult := result
		var attemptEvents []match.Event

		txErr := s.matches.RunInTx(ctx, func(ctx context.Context, tx match.Tx) error {
			now := s.now().UTC()
			for _, item := range batch {
				applied, err := s.apply(ctx, tx, now, item)
				if err != nil {
					return fmt.Errorf("apply %s: %w", item.Identity, err)
				}
				applied.addTo(&attemptResult)
				attemptEvents = append(attemptEvents, applied.events...)
			}
			return nil
		})
		if txErr != nil {
			if isTransientConflict(txErr) {
				s.logger.WarnContext(ctx, "reconcile batch conflicted, retrying",
					"game", game,
					"attempt", attempt,
					"error", txErr,
				)
			}
			return txErr
		}

		committed = attemptResult
		events = attemptEvents
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("reconcile %s batch after %d attempt(s): %w", game, result.Attempts, err)
	}

	s.publish(ctx, game, events)
	return committed, nil
}

type applyOutcome struct {
	inserted bool
	updated  bool
	migrated bool
	adopted  bool
	teams    int
	events   []match.Event
}

func (o applyOutcome) addTo(r *BatchResult) {
	switch {
	case o.inserted:
		r.Inserted++
	case o.updated:
		r.Updated++
	default:
		r.Unchanged++
	}
	if o.migrated {
		r.Migrated++
	}
	if o.adopted {
		r.Adopted++
	}
	r.TeamsUpserted += o.teams
}

func (s *ReconcileService) apply(ctx context.Context, tx match.Tx, now time.Time, item match.Resolved) (applyOutcome, error) {
	var out applyOutcome
	snapshot := item.Snapshot

	incoming := match.FromSnapshot(item.Identity, snapshot)
	team1ID, ok, err := upsertTeam(ctx, tx, snapshot.Game, snapshot.Team1, snapshot.Team1URL)
	if err != nil {
		return out, err
	}
	if ok {
		out.teams++
		incoming.Team1ID = team1ID
	}
	team2ID, ok, err := upsertTeam(ctx, tx, snapshot.Game, snapshot.Team2, snapshot.Team2URL)
	if err != nil {
		return out, err
	}
	if ok {
		out.teams++
		incoming.Team2ID = team2ID
	}

	existing, found, err := tx.GetByIdentityKey(ctx, snapshot.Game, incoming.IdentityKey)
	if err != nil {
		return out, fmt.Errorf("get by identity key: %w", err)
	}

	if !found && item.Identity.IsPrimary() {
		existing, found, err = s.findMigrationSource(ctx, tx, snapshot)
		if err != nil {
			return out, err
		}
		if found {
			if err := tx.RewriteIdentityKey(ctx, existing.ID, incoming.IdentityKey, now); err != nil {
				return out, fmt.Errorf("rewrite identity key of match %d: %w", existing.ID, err)
			}
			s.logger.InfoContext(ctx, "migrated match identity",
				"game", snapshot.Game,
				"match_id", existing.ID,
				"from", existing.IdentityKey,
				"to", incoming.IdentityKey,
			)
			existing.IdentityKey = incoming.IdentityKey
			existing.UpdatedAt = now
			out.migrated = true
		}
	}

	if !found && !item.Identity.IsPrimary() {
		existing, found, err = s.findAdoptionTarget(ctx, tx, snapshot)
		if err != nil {
			return out, err
		}
		out.adopted = found
	}

	if !found {
		incoming.CreatedAt = now
		incoming.UpdatedAt = now
		if incoming.Score != "" {
			incoming.ScoreLastUpdatedAt = now
		}
		created, err := tx.Insert(ctx, incoming)
		if err != nil {
			return out, fmt.Errorf("insert match: %w", err)
		}
		out.inserted = true
		out.events = append(out.events, newEvent(match.EventMatchCreated, created, now))
		return out, nil
	}

	merged := match.Merge(existing, incoming)
	if match.SameContent(merged, existing) {
		out.updated = out.migrated
		return out, nil
	}

	merged.UpdatedAt = now
	if merged.Score != existing.Score {
		merged.ScoreLastUpdatedAt = now
	}
	if err := tx.Update(ctx, merged); err != nil {
		return out, fmt.Errorf("update match %d: %w", merged.ID, err)
	}
	out.updated = true

	if merged.Score != existing.Score {
		out.events = append(out.events, newEvent(match.EventScoreChanged, merged, now))
	}
	if merged.Status != existing.Status {
		ev := newEvent(match.EventStatusChanged, merged, now)
		ev.From, ev.To = existing.Status, merged.Status
		out.events = append(out.events, ev)
	}
	return out, nil
}

// findMigrationSource looks for a fallback-keyed row that a primary-keyed
// snapshot supersedes: first by stored detail URL, then by teams, tournament
// prefix and a bounded time window.
func (s *ReconcileService) findMigrationSource(ctx context.Context, tx match.Tx, snapshot match.Snapshot) (match.Match, bool, error) {
	if snapshot.DetailURL != "" {
		row, found, err := tx.GetByDetailURL(ctx, snapshot.Game, snapshot.DetailURL)
		if err != nil {
			return match.Match{}, false, fmt.Errorf("get by detail url: %w", err)
		}
		if found && !match.IsPrimaryKey(row.IdentityKey) {
			return row, true, nil
		}
	}

	query, ok := s.candidateQuery(snapshot, true)
	if !ok {
		return match.Match{}, false, nil
	}
	row, found, err := tx.FindMigrationCandidate(ctx, query)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("find migration candidate: %w", err)
	}
	return row, found, nil
}

// findAdoptionTarget lets a snapshot that lost its source id merge into the
// row already tracking that match instead of creating a shadow row.
func (s *ReconcileService) findAdoptionTarget(ctx context.Context, tx match.Tx, snapshot match.Snapshot) (match.Match, bool, error) {
	query, ok := s.candidateQuery(snapshot, false)
	if !ok {
		return match.Match{}, false, nil
	}
	row, found, err := tx.FindMigrationCandidate(ctx, query)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("find adoption target: %w", err)
	}
	return row, found, nil
}

func (s *ReconcileService) candidateQuery(snapshot match.Snapshot, fallbackOnly bool) (match.MigrationQuery, bool) {
	if !snapshot.HasTime() || match.IsPlaceholderTeam(snapshot.Team1) || match.IsPlaceholderTeam(snapshot.Team2) {
		return match.MigrationQuery{}, false
	}
	return match.MigrationQuery{
		Game:             snapshot.Game,
		Team1:            snapshot.Team1,
		Team2:            snapshot.Team2,
		TournamentPrefix: strings.ToLower(match.CleanTournamentName(snapshot.Tournament)),
		ScheduledAt:      snapshot.ScheduledAt,
		Window:           s.cfg.MigrationWindow,
		FallbackOnly:     fallbackOnly,
	}, true
}

func (s *ReconcileService) publish(ctx context.Context, game string, events []match.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events); err != nil {
		s.logger.WarnContext(ctx, "publish match events failed",
			"game", game,
			"events", len(events),
			"error", err,
		)
	}
}

func upsertTeam(ctx context.Context, w team.Writer, game, name, link string) (int64, bool, error) {
	ref, ok := team.NewReference(game, name, link)
	if !ok || match.IsPlaceholderTeam(ref.Name) {
		return 0, false, nil
	}
	stored, err := w.UpsertByPath(ctx, ref)
	if err != nil {
		return 0, false, fmt.Errorf("upsert team %s: %w", ref.Path, err)
	}
	return stored.ID, true, nil
}

func newEvent(kind match.EventType, m match.Match, at time.Time) match.Event {
	return match.Event{
		Type:        kind,
		Game:        m.Game,
		MatchID:     m.ID,
		IdentityKey: m.IdentityKey,
		Team1:       m.Team1,
		Team2:       m.Team2,
		Tournament:  m.Tournament,
		Score:       m.Score,
		To:          m.Status,
		ScheduledAt: m.ScheduledAt,
		OccurredAt:  at,
	}
}

func isTransientConflict(err error) bool {
	return errors.Is(err, match.ErrConflict)
}
