package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/config"
	"github.com/ryanm101/vent/internal/history"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metrics"
	"github.com/ryanm101/vent/internal/tracing"
)

// annotationBanner marks commands run from the kiosk menu, whose failures
// get the full-screen banner instead of a one-line error.
const annotationBanner = "vent/banner"

var (
	cfg              *config.Config
	shutdownTracing  func(context.Context) error
	sleep            = time.Sleep
	loadConfig       = config.Load
	openHistoryStore = history.Open
)

var rootCmd = &cobra.Command{
	Use:   "vent",
	Short: "Kiosk launcher for Steam games on the arcade cabinet",
	Long: `vent launches Steam games from the RetroPie menu and hands control back
to the menu when the game exits.

It caches Valve metadata and artwork per game, installs games with steamcmd,
switches per-game keyd keymaps, and keeps a history of launches.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.Version = "2.0.0"
	rootCmd.PersistentFlags().BoolVar(&outputCfg.JSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&outputCfg.Quiet, "quiet", "q", false, "suppress progress messages")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(cfg.Logging)

	shutdownTracing, err = tracing.Setup(cmd.Context(), cfg.Tracing)
	if err != nil {
		logging.Error("failed to setup tracing", "error", err)
	}
	return nil
}

// finish flushes telemetry. It runs after every command, failed or not.
func finish(ctx context.Context) {
	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logging.Error("failed to shutdown tracing", "error", err)
		}
		shutdownTracing = nil
	}
	if cfg != nil && cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logging.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	finish(ctx)
	if err == nil {
		return 0
	}

	logging.Error("command failed", "command", cmd.CommandPath(), "error", err)
	if _, ok := cmd.Annotations[annotationBanner]; ok && !outputCfg.JSON {
		writeBanner(stdout, err)
		hold(stdout, failureHold(), sleep)
		return 1
	}
	PrintError("Error: %v\n", err)
	return 1
}

func failureHold() time.Duration {
	if cfg == nil {
		return config.DefaultConfig().FailureHold
	}
	return cfg.FailureHold
}

// openHistory opens the launch history. History is bookkeeping, so a
// database that cannot be opened is logged and skipped.
func openHistory(ctx context.Context) *history.Store {
	if cfg.HistoryDB == "" {
		return nil
	}
	store, err := openHistoryStore(ctx, cfg.HistoryDB)
	if err != nil {
		logging.Warn("history unavailable", "path", cfg.HistoryDB, "error", err)
		return nil
	}
	return store
}

func closeHistory(store *history.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logging.Warn("failed to close history", "error", err)
	}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}
