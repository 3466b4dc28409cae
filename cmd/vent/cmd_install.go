package main

import (
	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/session"
	"github.com/ryanm101/vent/internal/valve"
)

var installCmd = &cobra.Command{
	Use:   "install <appID>",
	Short: "Install a game and add it to the menu",
	Long: `Fetch metadata and artwork for a game, install it with steamcmd, and add a
runscript, a keymap profile and a gamelist.xml entry for EmulationStation.
An existing keymap profile is left as is.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationBanner: ""},
	RunE:        runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	appID, err := valve.ParseAppID(args[0])
	if err != nil {
		return err
	}

	store := openHistory(ctx)
	defer closeHistory(store)

	s := session.New(cfg, newRunner(), store)
	s.Out = messageWriter()
	if !outputCfg.Quiet && !outputCfg.JSON {
		s.Assets.Progress = stderr
	}

	res, err := s.Install(ctx, appID)
	if err != nil {
		return err
	}

	if outputCfg.JSON {
		PrintResult(map[string]any{
			"app_id":     appID,
			"name":       res.Identity.DisplayName,
			"executable": res.Identity.Executable,
			"thumbnail":  res.Thumbnail,
			"runscript":  res.ScriptPath,
			"keymap":     res.KeymapPath,
			"keymap_new": res.KeymapNew,
			"assets": map[string]int{
				"fetched": res.Assets.Fetched,
				"cached":  res.Assets.Cached,
				"missing": res.Assets.Missing,
				"failed":  res.Assets.Failed,
			},
		})
	}
	return nil
}
