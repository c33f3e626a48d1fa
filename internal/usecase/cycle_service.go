package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	"github.com/riskibarqy/matchsync/internal/platform/id"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

// CycleReport summarises one reconciliation cycle for a game title.
type CycleReport struct {
	RunID       string             `json:"run_id"`
	Game        string             `json:"game"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Tournaments int                `json:"tournaments"`
	Upcoming    int                `json:"upcoming"`
	Completed   int                `json:"completed"`
	Batch       BatchResult        `json:"batch"`
	Backfill    BackfillResult     `json:"backfill"`
	Status      StatusResult       `json:"status"`
	Repair      match.RepairReport `json:"repair"`
}

func (r CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CycleService runs fetch, reconcile, backfill, status and repair in order
// for one title. Every fetch happens before the first write so a failed
// fetch leaves the store untouched.
type CycleService struct {
	source      SnapshotSource
	tournaments tournament.Repository
	reconcile   *ReconcileService
	backfill    *BackfillService
	status      *StatusService
	repair      *RepairService
	ids         id.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewCycleService(
	source SnapshotSource,
	tournaments tournament.Repository,
	reconcile *ReconcileService,
	backfill *BackfillService,
	status *StatusService,
	repair *RepairService,
	ids id.Generator,
	logger *logging.Logger,
) *CycleService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CycleService{
		source:      source,
		tournaments: tournaments,
		reconcile:   reconcile,
		backfill:    backfill,
		status:      status,
		repair:      repair,
		ids:         ids,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *CycleService) Run(ctx context.Context, game string) (CycleReport, error) {
	game = strings.ToLower(strings.TrimSpace(game))
	if game == "" {
		return CycleReport{}, fmt.Errorf("%w: game is required", ErrInvalidInput)
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return CycleReport{}, fmt.Errorf("generate run id: %w", err)
	}

	ctx, span := startCycleSpan(ctx, game, runID)
	defer span.End()

	report := CycleReport{RunID: runID, Game: game, StartedAt: s.now().UTC()}
	logger := s.logger.With("game", game, "run_id", runID)

	report, err = s.run(ctx, logger, report)
	report.FinishedAt = s.now().UTC()
	if err != nil {
		span.RecordError(err)
		logger.ErrorContext(ctx, "cycle failed", "duration", report.Duration(), "error", err)
		return report, err
	}

	logger.InfoContext(ctx, "cycle finished",
		"duration", report.Duration(),
		"upcoming", report.Upcoming,
		"completed", report.Completed,
		"unresolvable", report.Batch.Unresolvable,
		"inserted", report.Batch.Inserted,
		"updated", report.Batch.Updated,
		"migrated", report.Batch.Migrated,
		"backfilled", report.Backfill.Matched,
		"status_changes", report.Status.Changed,
		"repaired", report.Repair.Total(),
	)
	return report, nil
}

type cycleInputs struct {
	tournaments []tournament.Tournament
	upcoming    []match.Snapshot
	completed   []match.Snapshot
}

func (s *CycleService) run(ctx context.Context, logger *logging.Logger, report CycleReport) (CycleReport, error) {
	game := report.Game

	in, err := s.fetch(ctx, logger, game)
	if err != nil {
		return report, err
	}
	report.Upcoming = len(in.upcoming)
	report.Completed = len(in.completed)

	catalog := s.syncTournaments(ctx, logger, game, in.tournaments)
	report.Tournaments = catalog.Len()

	if report.Batch, err = s.reconcile.Reconcile(ctx, game, in.upcoming, catalog); err != nil {
		return report, err
	}
	if report.Backfill, err = s.backfill.Backfill(ctx, game, in.completed); err != nil {
		return report, err
	}
	if report.Status, err = s.status.Advance(ctx, game); err != nil {
		return report, err
	}
	if report.Repair, err = s.repair.Repair(ctx, game); err != nil {
		return report, err
	}
	return report, nil
}

// fetch loads the three source views concurrently. Tournament listing
// failures degrade to the stored catalog; match listing failures abort.
func (s *CycleService) fetch(ctx context.Context, logger *logging.Logger, game string) (cycleInputs, error) {
	var in cycleInputs

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		items, err := s.source.FetchTournaments(ctx, game)
		if err != nil {
			logger.WarnContext(ctx, "fetch tournaments failed, using stored catalog", "error", err)
			return nil
		}
		in.tournaments = items
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.source.FetchUpcoming(ctx, game)
		if err != nil {
			return fmt.Errorf("%w: fetch upcoming %s matches: %w", ErrDependencyUnavailable, game, err)
		}
		in.upcoming = items
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.source.FetchCompleted(ctx, game)
		if err != nil {
			return fmt.Errorf("%w: fetch completed %s matches: %w", ErrDependencyUnavailable, game, err)
		}
		in.completed = items
		return nil
	})
	if err := p.Wait(); err != nil {
		return cycleInputs{}, err
	}
	return in, nil
}

// syncTournaments stores the fetched list and returns this cycle's catalog.
// Storage failures only cost name canonicalization, never the cycle.
func (s *CycleService) syncTournaments(ctx context.Context, logger *logging.Logger, game string, fetched []tournament.Tournament) tournament.Catalog {
	for i := range fetched {
		if fetched[i].Game == "" {
			fetched[i].Game = game
		}
	}
	if s.tournaments == nil {
		return tournament.NewCatalog(fetched)
	}

	if len(fetched) > 0 {
		if err := s.tournaments.UpsertMany(ctx, fetched); err != nil {
			logger.WarnContext(ctx, "store tournaments failed", "count", len(fetched), "error", err)
			return tournament.NewCatalog(fetched)
		}
	}

	stored, err := s.tournaments.ListByGame(ctx, game)
	if err != nil {
		logger.WarnContext(ctx, "list tournaments failed", "error", err)
		return tournament.NewCatalog(fetched)
	}
	return tournament.NewCatalog(stored)
}
