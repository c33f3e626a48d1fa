package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

type StatusResult struct {
	Evaluated int                  `json:"evaluated"`
	Changed   int                  `json:"changed"`
	ByStatus  map[match.Status]int `json:"by_status"`
}

// StatusService advances persisted rows through the lifecycle state machine.
type StatusService struct {
	matches match.Repository
	events  EventPublisher
	policy  match.StatusPolicy
	logger  *logging.Logger
	now     func() time.Time
}

func NewStatusService(matches match.Repository, events EventPublisher, policy match.StatusPolicy, logger *logging.Logger) *StatusService {
	defaults := match.DefaultStatusPolicy()
	if policy.Lead <= 0 {
		policy.Lead = defaults.Lead
	}
	if policy.Lag <= 0 {
		policy.Lag = defaults.Lag
	}
	if policy.LiveWindow <= 0 {
		policy.LiveWindow = defaults.LiveWindow
	}
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusService{
		matches: matches,
		events:  events,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *StatusService) Advance(ctx context.Context, game string) (StatusResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.Advance", attribute.String("game", game))
	defer span.End()

	result := StatusResult{ByStatus: make(map[match.Status]int)}
	game = strings.TrimSpace(game)
	if game == "" {
		return result, fmt.Errorf("%w: game is required", ErrInvalidInput)
	}

	rows, err := s.matches.ListUnfinished(ctx, game)
	if err != nil {
		return result, fmt.Errorf("list unfinished matches: %w", err)
	}
	result.Evaluated = len(rows)

	now := s.now().UTC()
	changes := s.policy.Transitions(rows, now)
	if len(changes) == 0 {
		return result, nil
	}
	if err := s.matches.ApplyStatusChanges(ctx, changes, now); err != nil {
		return result, fmt.Errorf("apply %d status change(s): %w", len(changes), err)
	}

	byID := make(map[int64]match.Match, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	events := make([]match.Event, 0, len(changes))
	for _, change := range changes {
		result.ByStatus[change.To]++
		row := byID[change.MatchID]
		row.Status = change.To
		ev := newEvent(match.EventStatusChanged, row, now)
		ev.From, ev.To = change.From, change.To
		events = append(events, ev)
	}
	result.Changed = len(changes)

	s.logger.InfoContext(ctx, "advanced match statuses",
		"game", game,
		"evaluated", result.Evaluated,
		"changed", result.Changed,
	)
	if err := s.events.Publish(ctx, events); err != nil {
		s.logger.WarnContext(ctx, "publish status events failed", "game", game, "error", err)
	}
	return result, nil
}
