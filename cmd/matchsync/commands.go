package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchsync/internal/app"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run cycles for every configured title on the cycle schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := startProcess(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer p.close(ctx)

			return p.app.Runner.Schedule(ctx, p.cfg.CycleSchedule, p.cfg.GameTitles)
		},
	}
}

func newOnceCommand() *cobra.Command {
	var (
		game   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := startProcess(ctx, app.Options{DryRun: dryRun})
			if err != nil {
				return err
			}
			defer p.close(ctx)

			var failed int
			out := sonic.ConfigDefault.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			for _, result := range p.app.Runner.RunOnce(ctx, titlesFor(game, p.cfg.GameTitles)) {
				if result.Err != nil {
					failed++
					level := p.logger.ErrorContext
					if errors.Is(result.Err, usecase.ErrCycleInProgress) {
						level = p.logger.WarnContext
					}
					level(ctx, "cycle failed", "game", result.Game, "error", result.Err)
					continue
				}
				if err := out.Encode(result.Report); err != nil {
					return fmt.Errorf("write %s report: %w", result.Game, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d cycle(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&game, "game", "", "run only this title instead of GAME_TITLES")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile into memory without touching the database")
	return cmd
}

func newRepairCommand() *cobra.Command {
	var game string
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Run only the auto-repair pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := startProcess(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer p.close(ctx)

			var errs []error
			for _, title := range titlesFor(game, p.cfg.GameTitles) {
				report, err := p.app.Repair.Repair(ctx, title)
				if err != nil {
					p.logger.ErrorContext(ctx, "repair failed", "game", title, "error", err)
					errs = append(errs, fmt.Errorf("repair %s: %w", title, err))
					continue
				}
				p.logger.InfoContext(ctx, "repair finished",
					"game", title,
					"deleted_unidentified", report.DeletedUnidentified,
					"deleted_placeholders", report.DeletedPlaceholders,
					"demoted_corrupt", report.DemotedCorrupt,
					"backfilled_from_key", report.BackfilledFromKey,
					"backfilled_from_url", report.BackfilledFromURL,
				)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&game, "game", "", "repair only this title instead of GAME_TITLES")
	return cmd
}

func titlesFor(game string, configured []string) []string {
	if game = strings.ToLower(strings.TrimSpace(game)); game != "" {
		return []string{game}
	}
	return configured
}
