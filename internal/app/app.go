package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/matchsync/external/eventstream"
	"github.com/riskibarqy/matchsync/external/feed"
	"github.com/riskibarqy/matchsync/external/liquipedia"
	"github.com/riskibarqy/matchsync/internal/config"
	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	"github.com/riskibarqy/matchsync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchsync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchsync/internal/platform/id"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

type Options struct {
	// DryRun keeps every write in memory and publishes no events.
	DryRun bool
}

// App holds the wired services of one process.
type App struct {
	Cycles *usecase.CycleService
	Repair *usecase.RepairService
	Runner *Runner

	db    *sqlx.DB
	redis *redis.Client
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{}

	var (
		matches     match.Repository
		tournaments tournament.Repository
		events      usecase.EventPublisher = eventstream.NopPublisher{}
	)

	if opts.DryRun {
		logger.Info("dry run: writes stay in memory")
		matches = memory.NewMatchRepository()
		tournaments = memory.NewTournamentRepository()
	} else {
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		matches = postgres.NewMatchRepository(db)
		tournaments = postgres.NewTournamentRepository(db)

		if cfg.RedisEnabled {
			client, err := eventstream.Dial(ctx, cfg.RedisURL)
			if err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("connect event stream: %w", err)
			}
			a.redis = client
			events = eventstream.NewRedisPublisher(client, eventstream.Config{
				Stream: cfg.RedisStream,
				MaxLen: cfg.RedisStreamMaxLen,
				Logger: logger.Named("eventstream"),
			})
		}
	}

	source := feed.NewClient(feed.ClientConfig{
		BaseURL:        cfg.FeedBaseURL,
		Token:          cfg.FeedToken,
		Timeout:        cfg.FeedTimeout,
		MaxRetries:     cfg.FeedMaxRetries,
		Logger:         logger.Named("feed"),
		CircuitBreaker: cfg.FeedCircuit,
	})
	details, err := liquipedia.NewClient(liquipedia.ClientConfig{
		BaseURL:        cfg.SourceBaseURL,
		UserAgent:      cfg.SourceUserAgent,
		Timeout:        cfg.SourceTimeout,
		MaxRetries:     cfg.SourceMaxRetries,
		CacheTTL:       cfg.DetailCacheTTL,
		Logger:         logger.Named("liquipedia"),
		CircuitBreaker: cfg.SourceCircuit,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build detail client: %w", err)
	}

	reconcile := usecase.NewReconcileService(matches, events, usecase.ReconcileConfig{
		MigrationWindow: cfg.MigrationWindow,
		Retry: resilience.RetryPolicy{
			MaxAttempts: cfg.WriteRetryAttempts,
			Backoff:     cfg.WriteRetryBackoff,
		},
	}, logger)
	backfill := usecase.NewBackfillService(matches, details, events, usecase.BackfillConfig{
		Grace:       cfg.BackfillGrace,
		PageSize:    cfg.BackfillPageSize,
		FuzzyWindow: cfg.FuzzyWindow,
		Workers:     cfg.BackfillWorkers,
	}, logger)
	status := usecase.NewStatusService(matches, events, match.StatusPolicy{
		Lead:       cfg.StatusLead,
		Lag:        cfg.StatusLag,
		LiveWindow: cfg.LiveWindow,
	}, logger)

	a.Repair = usecase.NewRepairService(matches, logger)
	a.Cycles = usecase.NewCycleService(source, tournaments, reconcile, backfill, status, a.Repair, id.NewUUIDGenerator(), logger)
	a.Runner = NewRunner(a.Cycles, RunnerConfig{
		LockDir:      cfg.LockDir,
		CycleTimeout: cfg.CycleTimeout,
	}, logger)

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
