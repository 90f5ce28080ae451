package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/app"
	"github.com/ayzen-labs/leadminer/internal/registry"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

type runFlags struct {
	target   int
	source   string
	keywords []string
	aiPrompt string
	threads  int
	user     string
	notify   bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one mining run and exit",
		Long: `Runs the full pipeline once from the terminal: keyword resolution,
domain collection, platform verification, and contact extraction.
Artifacts land in the configured results directory. Ctrl-C cancels the
run and keeps partial results.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunCommand(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.target, "target", 0, "domains to collect (0 uses the configured default)")
	cmd.Flags().StringVar(&flags.source, "keyword-source", "default", "keyword source: default, list, or ai")
	cmd.Flags().StringSliceVar(&flags.keywords, "keywords", nil, "keywords for --keyword-source=list")
	cmd.Flags().StringVar(&flags.aiPrompt, "ai-prompt", "", "custom prompt for --keyword-source=ai")
	cmd.Flags().IntVar(&flags.threads, "threads", 0, "worker pool size (0 uses the configured default)")
	cmd.Flags().StringVar(&flags.user, "user", "cli", "name recorded with the run")
	cmd.Flags().BoolVar(&flags.notify, "notify", false, "send Telegram notifications when configured")

	return cmd
}

func runRunCommand(cmd *cobra.Command, flags runFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}

	target := flags.target
	if target <= 0 {
		target = cfg.Scraper.DefaultTarget
	}
	threads := flags.threads
	if threads <= 0 {
		threads = cfg.Scraper.Concurrency
	}

	runCfg := scraper.NewRunConfig(scraper.RunConfig{
		UserName:      flags.user,
		TargetDomains: target,
		KeywordMode:   scraper.KeywordMode(flags.source),
		KeywordList:   flags.keywords,
		AIPrompt:      flags.aiPrompt,
		Concurrency:   threads,
		Notify:        flags.notify,
		OutputDir:     cfg.Scraper.ResultsDir,
	})

	id := a.Registry.Start(runCfg)
	a.Logger.Info("run started", zap.String("run_id", id))

	summary, err := waitForRun(ctx, a.Registry, id)
	if err != nil {
		return err
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	a.Close(closeCtx)

	fmt.Println(summary.Message)
	if summary.Outcome == scraper.OutcomeError {
		return fmt.Errorf("run finished with errors")
	}
	return nil
}

// waitForRun polls the registry until the run reaches a terminal state. On
// ctx cancellation it requests a cooperative cancel and keeps waiting so
// partial artifacts get flushed.
func waitForRun(ctx context.Context, reg *registry.Registry, id string) (scraper.RunSummary, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	done := ctx.Done()
	for {
		select {
		case <-done:
			done = nil
			if _, err := reg.Cancel(id); err != nil && !errors.Is(err, registry.ErrFinished) {
				return scraper.RunSummary{}, fmt.Errorf("cancel run: %w", err)
			}
		case <-ticker.C:
		}

		snap, err := reg.Get(id)
		if err != nil {
			return scraper.RunSummary{}, fmt.Errorf("poll run: %w", err)
		}
		if snap.Status.Terminal() && snap.Summary != nil {
			return *snap.Summary, nil
		}
	}
}
