package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/keymap"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/monitor"
	"github.com/ryanm101/vent/internal/session"
	"github.com/ryanm101/vent/internal/valve"
)

var launchCmd = &cobra.Command{
	Use:   "launch <appID>",
	Short: "Launch a game and wait for it to exit",
	Long: `Launch a Steam game through the running Steam client, wait for its process
to appear, and block until it exits. SIGTERM or SIGINT is forwarded to the
game. The default keymap is restored afterwards.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationBanner: ""},
	RunE:        runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	appID, err := valve.ParseAppID(args[0])
	if err != nil {
		return err
	}

	if err := keymap.EnsureDefault(cfg.DefaultKeymap); err != nil {
		logging.Warn("could not create default keymap", "path", cfg.DefaultKeymap, "error", err)
	}

	logging.Debug("> vent launch",
		"app_id", appID,
		"steam_root", cfg.SteamDir,
		"active_keymap", cfg.ActiveKeymap,
		"default_keymap", cfg.DefaultKeymap,
		"keymap", cfg.KeymapFor(appID),
	)

	store := openHistory(ctx)
	defer closeHistory(store)

	s := session.New(cfg, newRunner(), store)
	s.Out = messageWriter()

	mon := monitor.New()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)
	stop := relaySignals(sigs, mon.Terminate)
	defer stop()

	res, err := s.Launch(ctx, appID, mon)
	if err != nil {
		return err
	}
	if outputCfg.JSON {
		PrintResult(map[string]any{
			"app_id":     appID,
			"pid":        res.PID,
			"duration":   res.Duration.String(),
			"terminated": res.Terminated(),
		})
	}
	return nil
}

// relaySignals calls terminate for every signal received until stop is called.
func relaySignals(sigs <-chan os.Signal, terminate func()) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case sig := <-sigs:
				logging.Info("termination requested", "signal", sig)
				terminate()
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
