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

// RepairService runs the idempotent set-based corrections after a cycle.
type RepairService struct {
	matches match.Repository
	logger  *logging.Logger
	now     func() time.Time
}

func NewRepairService(matches match.Repository, logger *logging.Logger) *RepairService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RepairService{matches: matches, logger: logger, now: time.Now}
}

func (s *RepairService) Repair(ctx context.Context, game string) (match.RepairReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RepairService.Repair", attribute.String("game", game))
	defer span.End()

	game = strings.TrimSpace(game)
	if game == "" {
		return match.RepairReport{}, fmt.Errorf("%w: game is required", ErrInvalidInput)
	}

	report, err := s.matches.Repair(ctx, game, s.now().UTC())
	if err != nil {
		return match.RepairReport{}, fmt.Errorf("repair %s matches: %w", game, err)
	}

	if report.Total() > 0 {
		s.logger.InfoContext(ctx, "repaired matches",
			"game", game,
			"deleted_unidentified", report.DeletedUnidentified,
			"deleted_placeholders", report.DeletedPlaceholders,
			"demoted_corrupt", report.DemotedCorrupt,
			"external_id_from_key", report.BackfilledFromKey,
			"external_id_from_url", report.BackfilledFromURL,
		)
	}
	return report, nil
}
