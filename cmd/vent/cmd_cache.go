package main

import (
	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/valve"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the metadata cache",
}

var cacheClearAll bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear <appID>...",
	Short: "Forget cached metadata so it is fetched again",
	Long: `Remove the cached steamcmd, store and appdetails metadata of each game.
Downloaded artwork is kept unless --all is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "also remove downloaded artwork")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cache := metacache.New(cfg.CacheDir)

	ids := make([]string, 0, len(args))
	for _, arg := range args {
		appID, err := valve.ParseAppID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, appID)
	}

	for _, appID := range ids {
		if err := cache.Clear(appID, cacheClearAll); err != nil {
			return err
		}
		PrintInfo("cleared %s\n", cache.Dir(appID))
	}
	if outputCfg.JSON {
		PrintResult(map[string]any{"cleared": ids, "all": cacheClearAll})
	}
	return nil
}
