package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/assets"
	"github.com/ryanm101/vent/internal/frontend"
	"github.com/ryanm101/vent/internal/history"
	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/keymap"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/tracing"
)

// InstallResult describes what an install produced.
type InstallResult struct {
	Identity   identity.Identity
	Assets     assets.Report
	Thumbnail  string
	ScriptPath string
	KeymapPath string
	KeymapNew  bool // false when an edited profile was left alone
}

// Install fetches metadata and artwork for appID, installs the game with
// steamcmd and adds it to the menu. Errors are *Error.
func (s *Session) Install(ctx context.Context, appID string) (_ *InstallResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "session.Install",
		tracing.WithAttributes(attribute.String("app.id", appID)),
	)
	defer span.End()

	res := &InstallResult{Identity: identity.Identity{AppID: appID}}
	defer func() {
		if err != nil {
			tracing.RecordError(span, err)
			err = wrap("install", res.Identity, err)
		}
	}()

	out := s.out()

	_, _ = fmt.Fprintln(out, "Fetching metadata ...")
	info, id, err := s.Identify(ctx, appID)
	res.Identity = id
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(out, "Steam appID: %s\n", appID)
	_, _ = fmt.Fprintf(out, "Steam game: %s\n", id.DisplayName)
	_, _ = fmt.Fprintf(out, "Steam game executable: %s\n\n", id.Executable)

	_, _ = fmt.Fprintln(out, "Fetching assets ...")
	dir := s.Loader.Cache().Dir(appID)
	res.Assets, err = s.Assets.Fetch(ctx, dir, id.Assets)
	if err != nil {
		return nil, err
	}
	logging.Info("assets cached",
		"app_id", appID,
		"fetched", res.Assets.Fetched,
		"cached", res.Assets.Cached,
		"missing", res.Assets.Missing,
		"failed", res.Assets.Failed,
	)

	if err := s.Runner.Run(ctx, "steamcmd", "+login", s.SteamLogin, "+app_update", appID, "+exit"); err != nil {
		return nil, fmt.Errorf("steamcmd app_update: %w", err)
	}

	// Artwork is on disk now, so probe again.
	res.Thumbnail = identity.Thumbnail(dir)
	_, _ = fmt.Fprintf(out, "using thumbnail %s\n", res.Thumbnail)

	res.ScriptPath = filepath.Join(s.GameDir, frontend.ScriptName(id.DisplayName))
	_, _ = fmt.Fprintf(out, "writing runscript to %s\n", res.ScriptPath)
	if err := frontend.WriteRunscript(res.ScriptPath, appID); err != nil {
		return nil, fmt.Errorf("write runscript: %w", err)
	}

	res.KeymapPath = s.KeymapPath(appID)
	if _, serr := os.Stat(res.KeymapPath); os.IsNotExist(serr) {
		_, _ = fmt.Fprintf(out, "writing keymap to %s\n", res.KeymapPath)
		if err := keymap.SaveProfile(res.KeymapPath, appID, id.DisplayName, s.Table); err != nil {
			return nil, fmt.Errorf("write keymap: %w", err)
		}
		res.KeymapNew = true
	} else {
		logging.Info("keeping existing keymap", "path", res.KeymapPath)
	}

	entry := frontend.BuildEntry(info, res.Thumbnail, res.ScriptPath, dir)
	if err := frontend.UpdateGamelist(s.GamelistPath, entry); err != nil {
		return nil, fmt.Errorf("update gamelist: %w", err)
	}

	if s.History != nil {
		if herr := s.History.RecordInstall(ctx, history.InstallRecord{
			AppID:       appID,
			DisplayName: id.DisplayName,
			Executable:  id.Executable,
			ScriptPath:  res.ScriptPath,
			InstalledAt: s.now(),
		}); herr != nil {
			logging.Warn("could not record install", "app_id", appID, "error", herr)
		}
	}

	_, _ = fmt.Fprintln(out, "All done!")
	_, _ = fmt.Fprintln(out, "Remember to edit the key configuration file to finish installation:")
	_, _ = fmt.Fprintf(out, "    %s\n", res.KeymapPath)
	return res, nil
}
