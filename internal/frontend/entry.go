package frontend

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/valve"
)

// BuildEntry assembles the gamelist entry for an installed game. assetDir
// is the game's cache directory, where a downloaded trailer.mp4 is picked
// up as the menu video.
func BuildEntry(info *valve.Info, image, scriptPath, assetDir string) Game {
	g := Game{
		Path:       scriptPath,
		Name:       identity.DisplayName(info.VDF),
		SteamAppID: info.AppID,
		Desc:       valve.StringOr(info.Web, "", "basic_info", "short_description"),
		Image:      image,
		Developer:  valve.StringOr(info.VDF, "", "extended", "developer"),
		Publisher:  valve.StringOr(info.VDF, "", "extended", "publisher"),
	}

	if video := filepath.Join(assetDir, "trailer.mp4"); fileExists(video) {
		g.Video = video
	}

	if pct, err := valve.String(info.VDF, "common", "review_percentage"); err == nil {
		if n, err := strconv.Atoi(pct); err == nil {
			g.Rating = formatRating(n)
		}
	}

	ts := valve.StringOr(info.VDF, "", "common", "original_release_date")
	if ts == "" {
		ts = valve.StringOr(info.VDF, "", "common", "steam_release_date")
	}
	if sec, err := strconv.ParseInt(ts, 10, 64); err == nil && sec > 0 {
		g.ReleaseDate = FormatESDate(time.Unix(sec, 0))
	}

	if genres, err := valve.List(info.Store, "genres"); err == nil && len(genres) > 0 {
		if first, ok := genres[0].(map[string]any); ok {
			g.Genre = valve.StringOr(first, "", "description")
		}
	}

	if categories, err := valve.List(info.Store, "categories"); err == nil {
		for _, c := range categories {
			cat, ok := c.(map[string]any)
			if ok && valve.StringOr(cat, "", "description") == "Single-player" {
				g.Players = "1"
				break
			}
		}
	}
	return g
}

// formatRating turns a review percentage into EmulationStation's 0-1 scale.
func formatRating(pct int) string {
	s := strconv.FormatFloat(float64(pct)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
