package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/vent/internal/config"
	"github.com/ryanm101/vent/internal/launcher"
	"github.com/ryanm101/vent/internal/session"
	"github.com/ryanm101/vent/internal/system"
	"github.com/ryanm101/vent/internal/system/systemtest"
)

// testCLI points the CLI at a temporary home and captures its output.
func testCLI(t *testing.T) (*config.Config, *systemtest.Runner, *bytes.Buffer) {
	t.Helper()

	c := config.DefaultConfig()
	c.User = "arcade"
	c.HomeDir = t.TempDir()
	c.FailureHold = 2 * time.Second
	c.Logging.Level = "error"
	c.Derive()

	runner := &systemtest.Runner{}
	var out bytes.Buffer

	prevLoad, prevRunner, prevSleep, prevOut, prevErr := loadConfig, newRunner, sleep, stdout, stderr
	t.Cleanup(func() {
		loadConfig, newRunner, sleep, stdout, stderr = prevLoad, prevRunner, prevSleep, prevOut, prevErr
		outputCfg = OutputConfig{}
		cfg = nil
	})

	loadConfig = func() (*config.Config, error) { return c, nil }
	newRunner = func() system.Runner { return runner }
	sleep = func(time.Duration) {}
	stdout = &out
	stderr = &out
	outputCfg = OutputConfig{}
	return c, runner, &out
}

func TestRun_Config(t *testing.T) {
	c, _, out := testCLI(t)

	code := run(context.Background(), []string{"config"})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "# Active Configuration")
	assert.Contains(t, out.String(), c.CacheDir)
}

func TestRun_LaunchFailureShowsBanner(t *testing.T) {
	_, runner, out := testCLI(t)
	runner.OnOutput = func(name string, args []string) ([]byte, error) {
		return nil, &system.CommandError{Command: name, ExitCode: -1, Err: errors.New("not found")}
	}

	code := run(context.Background(), []string{"launch", "620"})
	assert.Equal(t, 1, code)

	text := out.String()
	assert.Contains(t, text, "Oww...!!")
	assert.Contains(t, text, "FetchError: launch appID=620")
	assert.Contains(t, text, "journalctl --identifier=vent")
	assert.Contains(t, text, "\rReturn to menu in 0:02\rReturn to menu in 0:01\n")
	assert.NotContains(t, runner.Commands(), "steam steam://rungameid/620")
}

func TestRun_InvalidAppID(t *testing.T) {
	_, runner, out := testCLI(t)

	code := run(context.Background(), []string{"info", "portal"})
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out.String(), "Error: "), out.String())
	assert.NotContains(t, out.String(), "Oww")
	assert.Empty(t, runner.Calls())
}

func TestRun_KeymapCommonStdout(t *testing.T) {
	_, _, out := testCLI(t)

	code := run(context.Background(), []string{"keymap", "common", "-o", "-"})
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out.String(), "[ids]\n"))
}

func TestRun_KeymapSwitch(t *testing.T) {
	c, runner, _ := testCLI(t)
	require.NoError(t, os.MkdirAll(c.KeymapDir, 0755))
	require.NoError(t, os.WriteFile(c.KeymapFor("620"), []byte("include common\n"), 0644))

	code := run(context.Background(), []string{"keymap", "switch", "620", "-q"})
	assert.Equal(t, 0, code)

	target, err := os.Readlink(c.ActiveKeymap)
	require.NoError(t, err)
	assert.Equal(t, c.KeymapFor("620"), target)
	assert.Equal(t, []string{"keyd reload"}, runner.Commands())

	code = run(context.Background(), []string{"keymap", "switch", "default", "-q"})
	assert.Equal(t, 0, code)
	target, err = os.Readlink(c.ActiveKeymap)
	require.NoError(t, err)
	assert.Equal(t, c.DefaultKeymap, target)
}

func TestRun_CacheClear(t *testing.T) {
	c, _, out := testCLI(t)
	dir := filepath.Join(c.CacheDir, "620")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vdf.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.jpg"), []byte("x"), 0644))

	code := run(context.Background(), []string{"cache", "clear", "620", "--json"})
	assert.Equal(t, 0, code)

	assert.NoFileExists(t, filepath.Join(dir, "vdf.json"))
	assert.FileExists(t, filepath.Join(dir, "header.jpg"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []any{"620"}, got["cleared"])
}

func TestRun_HistoryEmpty(t *testing.T) {
	_, _, out := testCLI(t)

	code := run(context.Background(), []string{"history", "recent", "--json"})
	assert.Equal(t, 0, code)
	assert.Equal(t, "[]\n", out.String())
}

func TestRun_Kiosk(t *testing.T) {
	c, runner, _ := testCLI(t)
	var steamStopped bool
	prev := startBackground
	t.Cleanup(func() { startBackground = prev })
	startBackground = func(name string, args ...string) (func() error, error) {
		assert.Equal(t, "steam", name)
		assert.Equal(t, []string{"-nochat", "-nopopup", "-silent"}, args)
		return func() error { steamStopped = true; return nil }, nil
	}

	code := run(context.Background(), []string{"kiosk"})
	assert.Equal(t, 0, code)
	assert.True(t, steamStopped)
	assert.Contains(t, runner.Commands(), "emulationstation --force-kiosk --no-exit")

	target, err := os.Readlink(c.ActiveKeymap)
	require.NoError(t, err)
	assert.Equal(t, c.DefaultKeymap, target)
}

func TestWriteBanner_Advisory(t *testing.T) {
	var buf bytes.Buffer
	err := &session.Error{
		Op:          "launch",
		AppID:       "620",
		DisplayName: "Portal 2",
		Executable:  "portal2_linux",
		Err:         &launcher.LaunchTimeoutError{AppID: "620", Attempts: 60, Advisory: launcher.Advisory},
	}

	writeBanner(&buf, err)
	assert.Contains(t, buf.String(), "LaunchTimeoutError: launch appID=620 game=\"Portal 2\"")
	assert.Contains(t, buf.String(), launcher.Advisory)
}

func TestHold(t *testing.T) {
	var (
		buf    bytes.Buffer
		slept  time.Duration
		sleeps int
	)
	hold(&buf, 3*time.Second, func(d time.Duration) { slept += d; sleeps++ })

	assert.Equal(t, 3, sleeps)
	assert.Equal(t, 3*time.Second, slept)
	assert.Equal(t, "\rReturn to menu in 0:03\rReturn to menu in 0:02\rReturn to menu in 0:01\n", buf.String())
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "3:00", formatCountdown(3*time.Minute))
	assert.Equal(t, "0:59", formatCountdown(59*time.Second))
	assert.Equal(t, "1:05", formatCountdown(65*time.Second))
}

func TestRelaySignals(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	got := make(chan struct{}, 2)
	stop := relaySignals(sigs, func() { got <- struct{}{} })

	sigs <- syscall.SIGTERM
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("terminate not called")
	}
	stop()
}

func TestPrintTable_JSON(t *testing.T) {
	_, _, out := testCLI(t)
	outputCfg.JSON = true

	PrintTable([]string{"APPID", "NAME"}, [][]string{{"620", "Portal 2"}})

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	assert.Equal(t, []map[string]string{{"APPID": "620", "NAME": "Portal 2"}}, rows)
}

func TestPrintTable_Text(t *testing.T) {
	_, _, out := testCLI(t)

	PrintTable([]string{"APPID", "NAME"}, [][]string{{"620", "Portal 2"}})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "APPID  NAME      ", lines[0])
	assert.Equal(t, "-----  --------  ", lines[1])
	assert.Equal(t, "620    Portal 2  ", lines[2])
}
