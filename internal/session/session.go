// Package session runs the launch and install flows end to end: keymap,
// metadata, identity, splash, launch, monitor and the bookkeeping after.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/assets"
	"github.com/ryanm101/vent/internal/config"
	"github.com/ryanm101/vent/internal/history"
	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/keymap"
	"github.com/ryanm101/vent/internal/launcher"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/metrics"
	"github.com/ryanm101/vent/internal/monitor"
	"github.com/ryanm101/vent/internal/splash"
	"github.com/ryanm101/vent/internal/system"
	"github.com/ryanm101/vent/internal/tracing"
	"github.com/ryanm101/vent/internal/valve"
)

// Messages shown on the kiosk terminal.
const (
	msgRunning = "Game now running! Please enjoy =^_^="
	msgClosed  = "Game closed, returning you to the menu (｡･ω･｡)ﾉ♡"
)

// Session wires the collaborators of one launcher invocation.
type Session struct {
	Loader   *valve.Loader
	Launcher *launcher.Launcher
	Keymaps  *keymap.Switcher
	Splash   *splash.Splash
	Assets   *assets.Downloader
	History  *history.Store // optional
	Runner   system.Runner
	Table    *keymap.Table

	KeymapDir    string
	GameDir      string
	GamelistPath string
	SteamLogin   string

	// Out receives the messages meant for the person at the cabinet.
	Out io.Writer
	Now func() time.Time
}

// New builds a session from configuration. store may be nil.
func New(cfg *config.Config, runner system.Runner, store *history.Store) *Session {
	client := valve.NewHTTPClient()
	return &Session{
		Loader: valve.NewDefaultLoader(metacache.New(cfg.CacheDir), runner, client,
			cfg.Steam.APIBase, cfg.Steam.StoreBase),
		Launcher: launcher.New(runner, launcher.Policy{
			Attempts: cfg.GetLaunchAttempts(),
			Interval: cfg.GetLaunchInterval(),
		}),
		Keymaps: &keymap.Switcher{
			Runner:  runner,
			Active:  cfg.ActiveKeymap,
			Default: cfg.DefaultKeymap,
		},
		Splash:       splash.New(runner),
		Assets:       assets.New(client),
		History:      store,
		Runner:       runner,
		Table:        keymap.CabinetTable(),
		KeymapDir:    cfg.KeymapDir,
		GameDir:      cfg.GameDir,
		GamelistPath: cfg.GamelistPath,
		SteamLogin:   cfg.Steam.Login,
		Out:          os.Stdout,
		Now:          time.Now,
	}
}

func (s *Session) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Session) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}

// KeymapPath is the per-game keymap profile for appID.
func (s *Session) KeymapPath(appID string) string {
	return filepath.Join(s.KeymapDir, appID+".conf")
}

// Identify loads the metadata of appID and derives its identity.
func (s *Session) Identify(ctx context.Context, appID string) (*valve.Info, identity.Identity, error) {
	id := identity.Identity{AppID: appID}
	info, err := s.Loader.Load(ctx, appID)
	if err != nil {
		return nil, id, err
	}
	id, err = identity.Derive(info, s.Loader.Cache().Dir(appID))
	return info, id, err
}

// Launch starts appID and blocks until the game exits. The default keymap
// is restored and the splash removed on every path. Errors are *Error.
func (s *Session) Launch(ctx context.Context, appID string, mon *monitor.Monitor) (res monitor.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "session.Launch",
		tracing.WithAttributes(attribute.String("app.id", appID)),
	)
	defer span.End()

	started := s.now()
	id := identity.Identity{AppID: appID}
	mon.SetNotice(s.out())

	restore := sync.OnceFunc(func() { s.restore(context.WithoutCancel(ctx)) })
	defer restore()

	defer func() {
		s.record(ctx, id, res, err, started)
		if err != nil {
			tracing.RecordError(span, err)
			err = wrap("launch", id, err)
		}
	}()

	if kerr := s.Keymaps.Use(ctx, s.KeymapPath(appID)); kerr != nil {
		logging.Warn("could not switch keymap", "app_id", appID, "error", kerr)
	}

	var info *valve.Info
	info, id, err = s.Identify(ctx, appID)
	if err != nil {
		return res, err
	}
	logging.Debug("game identified",
		"app_id", appID,
		"game", id.DisplayName,
		"executable", id.Executable,
		"thumbnail", id.Thumbnail,
	)
	span.SetAttributes(attribute.String("app.name", info.Name()))

	if serr := s.Splash.Configure(ctx, id.Splash); serr != nil {
		logging.Warn("could not configure splash", "error", serr)
	}

	out := s.out()
	l := *s.Launcher
	l.Progress = func(remaining int) { _, _ = fmt.Fprintf(out, "\b\b%2d", remaining) }

	_, _ = fmt.Fprintf(out, "Launching %s ... ..", id.DisplayName)
	res, err = mon.Run(ctx, func(ctx context.Context) (*launcher.Handle, error) {
		h, err := l.Launch(ctx, launcher.Request{
			AppID:       appID,
			DisplayName: id.DisplayName,
			Executable:  id.Executable,
		})
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintln(out, msgRunning)
		return h, nil
	}, restore)
	if err != nil {
		return res, err
	}

	_, _ = fmt.Fprintln(out, msgClosed)
	return res, nil
}

func (s *Session) restore(ctx context.Context) {
	if err := s.Keymaps.Restore(ctx); err != nil {
		logging.Warn("could not restore default keymap", "error", err)
	}
	if err := s.Splash.Remove(ctx); err != nil {
		logging.Warn("could not remove splash", "error", err)
	}
}

// Outcome classifies the end of a launch.
func Outcome(res monitor.Result, err error) history.Outcome {
	switch {
	case err == nil && res.Terminated():
		return history.OutcomeTerminated
	case err == nil:
		return history.OutcomeExited
	case errors.Is(err, launcher.ErrLaunchTimeout):
		return history.OutcomeTimeout
	default:
		return history.OutcomeError
	}
}

func (s *Session) record(ctx context.Context, id identity.Identity, res monitor.Result, err error, started time.Time) {
	outcome := Outcome(res, err)
	metrics.Launches.WithLabelValues(string(outcome)).Inc()

	if s.History == nil {
		return
	}
	r := history.LaunchRecord{
		AppID:       id.AppID,
		DisplayName: id.DisplayName,
		Executable:  id.Executable,
		PID:         res.PID,
		Outcome:     outcome,
		StartedAt:   started,
		EndedAt:     s.now(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	if _, herr := s.History.Record(context.WithoutCancel(ctx), r); herr != nil {
		logging.Warn("could not record launch", "app_id", id.AppID, "error", herr)
	}
}
