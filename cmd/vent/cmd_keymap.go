package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/keymap"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/valve"
)

var keymapCmd = &cobra.Command{
	Use:   "keymap",
	Short: "Manage keyd keymaps",
}

var keymapCommonOutput string

var keymapCommonCmd = &cobra.Command{
	Use:   "common",
	Short: "Write the shared keyd aliases for the cabinet controls",
	Long: `Render the keyd "common" file that maps the cabinet encoder's raw keys to
p1_*/p2_* aliases and binds p1_a to stop the running game. Use "-o -" to
print it instead.`,
	Args: cobra.NoArgs,
	RunE: runKeymapCommon,
}

var keymapSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Point keyd at the active keymap",
	Long: `Write the common aliases next to the keyd config, create the default
keymap, and replace the keyd config with a link to the active keymap so
"vent launch" can switch profiles. Usually needs root.`,
	Args: cobra.NoArgs,
	RunE: runKeymapSetup,
}

var keymapSwitchCmd = &cobra.Command{
	Use:   "switch <appID|default>",
	Short: "Activate a game's keymap profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeymapSwitch,
}

func init() {
	keymapCommonCmd.Flags().StringVarP(&keymapCommonOutput, "output", "o", "/etc/keyd/common", "file to write")
	keymapCmd.AddCommand(keymapCommonCmd, keymapSetupCmd, keymapSwitchCmd)
	rootCmd.AddCommand(keymapCmd)
}

func runKeymapCommon(cmd *cobra.Command, args []string) error {
	var buf bytes.Buffer
	if err := keymap.WriteCommon(&buf, keymap.CabinetTable()); err != nil {
		return err
	}
	if keymapCommonOutput == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := metacache.WriteFileAtomic(keymapCommonOutput, buf.Bytes(), 0644); err != nil {
		return err
	}
	PrintInfo("wrote %s\n", keymapCommonOutput)
	return nil
}

func runKeymapSetup(cmd *cobra.Command, args []string) error {
	if err := keymap.Setup(cfg.KeydConfig, cfg.ActiveKeymap, cfg.DefaultKeymap, keymap.CabinetTable()); err != nil {
		return err
	}
	PrintInfo("%s -> %s\n", cfg.KeydConfig, cfg.ActiveKeymap)
	return nil
}

func runKeymapSwitch(cmd *cobra.Command, args []string) error {
	if err := keymap.EnsureDefault(cfg.DefaultKeymap); err != nil {
		return err
	}

	desired := cfg.DefaultKeymap
	if args[0] != "default" {
		appID, err := valve.ParseAppID(args[0])
		if err != nil {
			return err
		}
		desired = cfg.KeymapFor(appID)
	}

	switcher := &keymap.Switcher{Runner: newRunner(), Active: cfg.ActiveKeymap, Default: cfg.DefaultKeymap}
	if err := switcher.Use(cmd.Context(), desired); err != nil {
		return err
	}
	PrintInfo("%s -> %s\n", cfg.ActiveKeymap, desired)
	return nil
}
