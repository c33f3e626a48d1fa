package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchsync/internal/app"
	"github.com/riskibarqy/matchsync/internal/config"
	"github.com/riskibarqy/matchsync/internal/observability"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logging.Default().Error("matchsync failed", "error", err)
		os.Exit(1)
	}
}

// process is the per-invocation runtime shared by the subcommands.
type process struct {
	cfg    config.Config
	logger *logging.Logger
	app    *app.App

	shutdown []func(context.Context) error
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "matchsync",
		Short:         "Reconcile scraped match schedules into the match store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newOnceCommand(), newRepairCommand())
	return root
}

func startProcess(ctx context.Context, opts app.Options) (*process, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	if cfg.LogFormat == config.LogFormatConsole {
		logger = logging.NewConsole(cfg.LogLevel)
	}
	logger = logger.With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)

	p := &process{cfg: cfg, logger: logger}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	p.shutdown = append(p.shutdown, shutdownTracing)

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		p.close(ctx)
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	p.shutdown = append(p.shutdown, func(context.Context) error { return stopProfiling() })

	p.app, err = app.New(ctx, cfg, logger, opts)
	if err != nil {
		p.close(ctx)
		return nil, fmt.Errorf("build app: %w", err)
	}
	return p, nil
}

func (p *process) close(ctx context.Context) {
	if p.app != nil {
		if err := p.app.Close(); err != nil {
			p.logger.Warn("close app", "error", err)
		}
	}
	// Shutdown must outlive a cancelled command context to flush spans.
	ctx = context.WithoutCancel(ctx)
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		if err := p.shutdown[i](ctx); err != nil {
			p.logger.Warn("shutdown observability", "error", err)
		}
	}
	_ = p.logger.Sync()
}
