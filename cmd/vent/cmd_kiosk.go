package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/keymap"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/system"
)

var kioskTerminal bool

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Run Steam and EmulationStation as the cabinet session",
	Long: `Start the Steam client in the background and EmulationStation in kiosk mode
in the foreground, with the default keymap active. Steam is stopped when
EmulationStation exits.

With --terminal, open a fullscreen xfce4-terminal that runs "vent kiosk".`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationBanner: ""},
	RunE:        runKiosk,
}

func init() {
	kioskCmd.Flags().BoolVar(&kioskTerminal, "terminal", false, "run the kiosk inside a fullscreen terminal")
	rootCmd.AddCommand(kioskCmd)
}

var (
	newRunner       = func() system.Runner { return system.NewExecRunner() }
	startBackground = system.StartBackground
)

func runKiosk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runner := newRunner()

	if kioskTerminal {
		self, err := os.Executable()
		if err != nil {
			self = "vent"
		}
		return runner.Run(ctx, "xfce4-terminal",
			"--fullscreen",
			"--maximize",
			"--hide-menubar",
			"--hide-borders",
			"--hide-toolbar",
			"--hide-scrollbar",
			"-x", self, "kiosk",
		)
	}

	if err := keymap.EnsureDefault(cfg.DefaultKeymap); err != nil {
		return err
	}
	switcher := &keymap.Switcher{Runner: runner, Active: cfg.ActiveKeymap, Default: cfg.DefaultKeymap}
	if err := switcher.Restore(ctx); err != nil {
		return err
	}
	defer func() {
		if err := switcher.Restore(ctx); err != nil {
			logging.Warn("could not restore default keymap", "error", err)
		}
	}()

	stopSteam, err := startBackground("steam", "-nochat", "-nopopup", "-silent")
	if err != nil {
		return err
	}
	defer func() {
		if err := stopSteam(); err != nil {
			logging.Warn("could not stop steam", "error", err)
		}
	}()

	return runner.Run(ctx, "emulationstation", "--force-kiosk", "--no-exit")
}
