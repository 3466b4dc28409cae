// Package identity derives what the launcher needs to know about a game
// from its raw Valve metadata: the display name, the executable to wait
// for, and the artwork to cache and show.
package identity

import (
	"errors"

	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/valve"
)

// UnknownName is shown when the app info carries no name.
const UnknownName = "?????"

// Identity is computed from the cached blobs on every use and never stored.
type Identity struct {
	AppID       string
	DisplayName string
	Executable  string
	Thumbnail   string // "" when no candidate image is cached
	Splash      string
	Assets      []Asset
}

// DisplayName returns common.name from the app info.
func DisplayName(vdf metacache.Blob) string {
	return valve.StringOr(vdf, UnknownName, "common", "name")
}

// Derive builds the identity of info, probing dir for cached images. On a
// resolution failure the returned Identity still carries the display name
// so callers can report it.
func Derive(info *valve.Info, dir string) (Identity, error) {
	id := Identity{
		AppID:       info.AppID,
		DisplayName: DisplayName(info.VDF),
		Thumbnail:   Thumbnail(dir),
		Splash:      SplashImage(dir),
		Assets:      Manifest(info).Assets(),
	}

	exe, err := ResolveExecutable(info.VDF)
	if err != nil {
		var rerr *ResolutionError
		if errors.As(err, &rerr) {
			rerr.AppID = info.AppID
		}
		return id, err
	}
	id.Executable = exe
	return id, nil
}
