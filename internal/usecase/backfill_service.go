package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

type BackfillConfig struct {
	// Grace keeps rows that only just started out of the search.
	Grace       time.Duration
	PageSize    int
	FuzzyWindow time.Duration
	Workers     int
}

func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		Grace:       10 * time.Minute,
		PageSize:    200,
		FuzzyWindow: match.DefaultFuzzyWindow,
		Workers:     4,
	}
}

type BackfillResult struct {
	Candidates int                    `json:"candidates"`
	Skipped    int                    `json:"skipped"`
	Matched    int                    `json:"matched"`
	Misses     int                    `json:"misses"`
	Failed     int                    `json:"failed"`
	ByStrategy map[match.Strategy]int `json:"by_strategy"`
}

// BackfillService attaches final scores to past-due rows that are not yet
// finished, trying the completed-listing index before individual detail pages.
type BackfillService struct {
	matches match.Repository
	details DetailFetcher
	events  EventPublisher
	cfg     BackfillConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewBackfillService(matches match.Repository, details DetailFetcher, events EventPublisher, cfg BackfillConfig, logger *logging.Logger) *BackfillService {
	defaults := DefaultBackfillConfig()
	if cfg.Grace <= 0 {
		cfg.Grace = defaults.Grace
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.FuzzyWindow <= 0 {
		cfg.FuzzyWindow = defaults.FuzzyWindow
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BackfillService{
		matches: matches,
		details: details,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

type backfillOutcome struct {
	row      match.Match
	strategy match.Strategy
	score    match.Score
	format   int
	detail   string
	external string
	found    bool
	err      error
}

// Backfill runs one pass for game against the completed snapshots fetched
// this cycle. Lookup failures for a row never fail the pass.
func (s *BackfillService) Backfill(ctx context.Context, game string, completed []match.Snapshot) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Backfill", attribute.String("game", game))
	defer span.End()

	result := BackfillResult{ByStrategy: make(map[match.Strategy]int)}
	game = strings.TrimSpace(game)
	if game == "" {
		return result, fmt.Errorf("%w: game is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	rows, err := s.matches.ListBackfillCandidates(ctx, game, now.Add(-s.cfg.Grace), s.cfg.PageSize)
	if err != nil {
		return result, fmt.Errorf("list backfill candidates: %w", err)
	}

	pending := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		if score, err := match.ParseScore(row.Score); err == nil && score.IsSeriesFinal(row.Format) {
			// The state machine finishes these without another lookup.
			if err := s.matches.MarkScoreChecked(ctx, row.ID, now); err != nil {
				return result, fmt.Errorf("mark score checked for match %d: %w", row.ID, err)
			}
			result.Skipped++
			continue
		}
		pending = append(pending, row)
	}
	result.Candidates = len(pending)
	if len(pending) == 0 {
		return result, nil
	}

	for i := range completed {
		if completed[i].Game == "" {
			completed[i].Game = game
		}
	}
	index := match.NewCompletedIndex(completed)

	outcomes := make([]backfillOutcome, len(pending))
	var needDetail []int
	for i, row := range pending {
		outcomes[i].row = row
		if hit, ok := index.Lookup(row, s.cfg.FuzzyWindow); ok {
			outcomes[i].found = true
			outcomes[i].strategy = hit.Strategy
			outcomes[i].score = hit.Score
			outcomes[i].format = hit.Format
			outcomes[i].detail = hit.Snapshot.DetailURL
			outcomes[i].external = hit.Snapshot.ExternalID
			if outcomes[i].external == "" {
				outcomes[i].external = match.ExternalIDFromURL(hit.Snapshot.DetailURL)
			}
			continue
		}
		if s.details != nil && strings.TrimSpace(row.DetailURL) != "" {
			needDetail = append(needDetail, i)
		}
	}

	if err := s.fetchDetails(ctx, outcomes, needDetail); err != nil {
		return result, err
	}

	var events []match.Event
	for _, outcome := range outcomes {
		update, changed, ok := s.toUpdate(outcome, now)
		if !ok {
			if outcome.err != nil {
				result.Failed++
				s.logger.WarnContext(ctx, "detail page lookup failed",
					"game", game,
					"match_id", outcome.row.ID,
					"detail_url", outcome.row.DetailURL,
					"error", outcome.err,
				)
			} else {
				result.Misses++
			}
			if err := s.matches.MarkScoreChecked(ctx, outcome.row.ID, now); err != nil {
				return result, fmt.Errorf("mark score checked for match %d: %w", outcome.row.ID, err)
			}
			continue
		}

		if err := s.matches.ApplyBackfill(ctx, update); err != nil {
			return result, fmt.Errorf("apply backfill for match %d: %w", outcome.row.ID, err)
		}
		result.Matched++
		result.ByStrategy[outcome.strategy]++

		s.logger.DebugContext(ctx, "backfilled match score",
			"game", game,
			"match_id", outcome.row.ID,
			"strategy", outcome.strategy,
			"score", update.Score,
		)
		events = append(events, changed...)
	}

	if len(events) > 0 {
		if err := s.events.Publish(ctx, events); err != nil {
			s.logger.WarnContext(ctx, "publish backfill events failed", "game", game, "error", err)
		}
	}
	return result, nil
}

// fetchDetails runs the detail-page strategy for the given rows on a bounded pool.
func (s *BackfillService) fetchDetails(ctx context.Context, outcomes []backfillOutcome, indexes []int) error {
	if len(indexes) == 0 {
		return nil
	}

	pool, err := ants.NewPool(min(s.cfg.Workers, len(indexes)))
	if err != nil {
		return fmt.Errorf("create detail worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, idx := range indexes {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			out := &outcomes[idx]
			detail, found, err := s.details.FetchDetail(ctx, out.row.DetailURL)
			if err != nil {
				out.err = err
				return
			}
			if !found {
				return
			}
			score, err := match.ParseScore(detail.Score)
			if err != nil || !score.WithinSeriesBounds() {
				return
			}
			out.found = true
			out.strategy = match.StrategyDetailPage
			out.score = score
			out.format = detail.Format
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit detail fetch to worker pool: %w", err)
		}
	}
	workers.Wait()
	return nil
}

func (s *BackfillService) toUpdate(outcome backfillOutcome, now time.Time) (match.BackfillUpdate, []match.Event, bool) {
	if !outcome.found {
		return match.BackfillUpdate{}, nil, false
	}
	row := outcome.row

	update := match.BackfillUpdate{
		MatchID:   row.ID,
		Score:     outcome.score.String(),
		Format:    row.Format,
		CheckedAt: now,
	}
	if outcome.format > 0 {
		update.Format = outcome.format
	}
	if strings.TrimSpace(row.DetailURL) == "" {
		update.DetailURL = outcome.detail
	}
	if strings.TrimSpace(row.ExternalID) == "" {
		update.ExternalID = outcome.external
	}

	switch {
	case outcome.strategy != match.StrategyDetailPage:
		update.Status = match.StatusFinished
	case row.Status == match.StatusFinished:
		update.Status = match.StatusFinished
	default:
		// A raw detail page score may still be partial.
		update.Status = match.StatusLive
	}

	after := row
	after.Score = update.Score
	after.Format = update.Format
	after.Status = update.Status
	if update.DetailURL != "" {
		after.DetailURL = update.DetailURL
	}
	if update.ExternalID != "" {
		after.ExternalID = update.ExternalID
	}

	var events []match.Event
	if after.Score != row.Score {
		events = append(events, newEvent(match.EventScoreChanged, after, now))
	}
	if after.Status != row.Status {
		ev := newEvent(match.EventStatusChanged, after, now)
		ev.From, ev.To = row.Status, after.Status
		events = append(events, ev)
	}
	return update, events, true
}
