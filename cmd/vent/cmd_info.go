package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/session"
	"github.com/ryanm101/vent/internal/valve"
)

var infoCmd = &cobra.Command{
	Use:   "info <appID>",
	Short: "Show what vent knows about a game",
	Long: `Load a game's metadata through the cache and show its name, the executable
vent waits for, the cached artwork and the launch entries it chose from.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

type gameInfo struct {
	AppID      string                  `json:"app_id"`
	Name       string                  `json:"name"`
	Executable string                  `json:"executable,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Thumbnail  string                  `json:"thumbnail,omitempty"`
	Splash     string                  `json:"splash,omitempty"`
	CacheDir   string                  `json:"cache_dir"`
	Cached     map[metacache.Kind]bool `json:"cached"`
	Assets     int                     `json:"assets"`
	Launch     []identity.LaunchEntry  `json:"launch"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	appID, err := valve.ParseAppID(args[0])
	if err != nil {
		return err
	}

	s := session.New(cfg, newRunner(), nil)
	info, id, err := s.Identify(cmd.Context(), appID)
	if info == nil {
		return err
	}

	out := gameInfo{
		AppID:      appID,
		Name:       id.DisplayName,
		Executable: id.Executable,
		Thumbnail:  id.Thumbnail,
		Splash:     id.Splash,
		CacheDir:   s.Loader.Cache().Dir(appID),
		Cached:     map[metacache.Kind]bool{},
		Assets:     len(id.Assets),
	}
	// An unresolvable executable is worth showing, not failing on.
	if err != nil {
		out.Error = err.Error()
	}
	for _, kind := range metacache.Kinds {
		out.Cached[kind] = s.Loader.Cache().Has(appID, kind)
	}
	out.Launch, _ = identity.LaunchEntries(info.VDF)

	if outputCfg.JSON {
		PrintResult(out)
		return nil
	}

	executable := out.Executable
	if out.Error != "" {
		executable = "(" + out.Error + ")"
	}
	PrintKeyValues(
		[]string{"appID", "name", "executable", "thumbnail", "splash", "cache", "assets"},
		map[string]string{
			"appID":      out.AppID,
			"name":       out.Name,
			"executable": executable,
			"thumbnail":  out.Thumbnail,
			"splash":     out.Splash,
			"cache":      out.CacheDir,
			"assets":     strconv.Itoa(out.Assets),
		},
	)

	if len(out.Launch) > 0 {
		_, _ = stdout.Write([]byte("\n"))
		rows := make([][]string, 0, len(out.Launch))
		for _, e := range out.Launch {
			oslist := e.OSList
			if !e.HasOSList {
				oslist = "(any)"
			}
			rows = append(rows, []string{e.Key, e.Executable, oslist})
		}
		PrintTable([]string{"KEY", "EXECUTABLE", "OSLIST"}, rows)
	}
	return nil
}
