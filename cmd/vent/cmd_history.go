package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanm101/vent/internal/history"
	"github.com/ryanm101/vent/internal/valve"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past launches and installs",
}

var historyLimit int

var historyRecentCmd = &cobra.Command{
	Use:   "recent [appID]",
	Short: "List recent launches, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryRecent,
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show launches, failures and play time per game",
	Args:  cobra.NoArgs,
	RunE:  runHistorySummary,
}

var historyInstallsCmd = &cobra.Command{
	Use:   "installs",
	Short: "List installed games",
	Args:  cobra.NoArgs,
	RunE:  runHistoryInstalls,
}

func init() {
	historyRecentCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of launches")
	historyCmd.AddCommand(historyRecentCmd, historySummaryCmd, historyInstallsCmd)
	rootCmd.AddCommand(historyCmd)
}

var errNoHistory = errors.New("history database not configured")

func withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	if cfg.HistoryDB == "" {
		return errNoHistory
	}
	store, err := openHistoryStore(cmd.Context(), cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer closeHistory(store)
	return fn(store)
}

func runHistoryRecent(cmd *cobra.Command, args []string) error {
	appID := ""
	if len(args) == 1 {
		var err error
		if appID, err = valve.ParseAppID(args[0]); err != nil {
			return err
		}
	}

	return withHistory(cmd, func(store *history.Store) error {
		records, err := store.Recent(cmd.Context(), appID, historyLimit)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				formatTime(r.StartedAt),
				r.AppID,
				r.DisplayName,
				string(r.Outcome),
				r.Duration().Round(time.Second).String(),
				r.Error,
			})
		}
		PrintTable([]string{"STARTED", "APPID", "NAME", "OUTCOME", "DURATION", "ERROR"}, rows)
		return nil
	})
}

func runHistorySummary(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(store *history.Store) error {
		sums, err := store.Summaries(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(sums))
		for _, s := range sums {
			rows = append(rows, []string{
				s.AppID,
				s.DisplayName,
				strconv.Itoa(s.Launches),
				strconv.Itoa(s.Failures),
				s.PlayTime.Round(time.Second).String(),
				formatTime(s.LastPlayed),
			})
		}
		PrintTable([]string{"APPID", "NAME", "LAUNCHES", "FAILURES", "PLAYTIME", "LAST PLAYED"}, rows)
		return nil
	})
}

func runHistoryInstalls(cmd *cobra.Command, args []string) error {
	return withHistory(cmd, func(store *history.Store) error {
		installs, err := store.Installs(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(installs))
		for _, r := range installs {
			rows = append(rows, []string{r.AppID, r.DisplayName, r.Executable, r.ScriptPath, formatTime(r.InstalledAt)})
		}
		PrintTable([]string{"APPID", "NAME", "EXECUTABLE", "RUNSCRIPT", "INSTALLED"}, rows)
		return nil
	})
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
