package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

type cycleRunner interface {
	Run(ctx context.Context, game string) (usecase.CycleReport, error)
}

type RunnerConfig struct {
	LockDir      string
	CycleTimeout time.Duration
}

// TitleResult is the outcome of one title's cycle in a fan-out.
type TitleResult struct {
	Game   string
	Report usecase.CycleReport
	Err    error
}

// Runner fans cycles out across titles. Each title holds a file lock for the
// duration of its cycle so two processes never reconcile the same title.
type Runner struct {
	cycles  cycleRunner
	lockDir string
	timeout time.Duration
	logger  *logging.Logger
}

func NewRunner(cycles cycleRunner, cfg RunnerConfig, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	lockDir := strings.TrimSpace(cfg.LockDir)
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	return &Runner{
		cycles:  cycles,
		lockDir: lockDir,
		timeout: cfg.CycleTimeout,
		logger:  logger,
	}
}

// RunOnce runs one cycle per title concurrently; titles never share a cycle.
// Results are ordered by game.
func (r *Runner) RunOnce(ctx context.Context, titles []string) []TitleResult {
	p := pool.NewWithResults[TitleResult]()
	for _, game := range titles {
		p.Go(func() TitleResult {
			report, err := r.RunTitle(ctx, game)
			return TitleResult{Game: game, Report: report, Err: err}
		})
	}

	results := p.Wait()
	slices.SortFunc(results, func(a, b TitleResult) int { return cmp.Compare(a.Game, b.Game) })
	return results
}

// RunTitle runs a single cycle under the title lock. A lock held elsewhere
// skips the cycle with ErrCycleInProgress.
func (r *Runner) RunTitle(ctx context.Context, game string) (usecase.CycleReport, error) {
	game = strings.ToLower(strings.TrimSpace(game))
	if game == "" {
		return usecase.CycleReport{}, fmt.Errorf("%w: game is required", usecase.ErrInvalidInput)
	}

	if err := os.MkdirAll(r.lockDir, 0o755); err != nil {
		return usecase.CycleReport{}, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(r.lockDir, "matchsync-"+game+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return usecase.CycleReport{}, fmt.Errorf("acquire %s lock: %w", game, err)
	}
	if !ok {
		return usecase.CycleReport{}, fmt.Errorf("%w: %s", usecase.ErrCycleInProgress, game)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("release cycle lock failed", "game", game, "error", err)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.cycles.Run(ctx, game)
}

// Schedule runs all titles on the cron schedule until ctx is done. A tick that fires
// while the previous one is still running is skipped.
func (r *Runner) Schedule(ctx context.Context, spec string, titles []string) error {
	cronLogger := cronLogAdapter{logger: r.logger.Named("cron")}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	tick := func() {
		for _, result := range r.RunOnce(ctx, titles) {
			switch {
			case result.Err == nil:
			case errors.Is(result.Err, usecase.ErrCycleInProgress):
				r.logger.WarnContext(ctx, "cycle skipped, title is locked", "game", result.Game)
			default:
				r.logger.ErrorContext(ctx, "scheduled cycle failed", "game", result.Game, "error", result.Err)
			}
		}
	}
	if _, err := c.AddFunc(spec, tick); err != nil {
		return fmt.Errorf("parse cycle schedule %q: %w", spec, err)
	}

	c.Start()
	r.logger.Info("cycle scheduler started", "schedule", spec, "titles", titles)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	r.logger.Info("cycle scheduler stopped")
	return nil
}

type cronLogAdapter struct {
	logger *logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
