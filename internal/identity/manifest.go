package identity

import (
	"sort"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/valve"
)

const (
	storeCDN     = "https://shared.fastly.steamstatic.com/store_item_assets/steam/apps/"
	communityCDN = "https://cdn.fastly.steamstatic.com/steamcommunity/public/images/apps/"
	trailerCDN   = "https://video.akamai.steamstatic.com/store_trailers/"
)

// Community-hosted images named in common, with the extension the CDN serves.
var miscAssets = []struct {
	key string
	ext string
}{
	{"clienttga", "tga"},
	{"clienticon", "ico"},
	{"icon", "jpg"},
	{"logo", "jpg"},
	{"logo_small", "jpg"},
	{"clienticns", "icns"},
	{"linuxclienticon", "zip"},
}

// Manifest lists every image and video worth caching for a game.
// See https://partner.steamgames.com/doc/store/assets for the asset kinds.
func Manifest(info *valve.Info) *Queue {
	store := storeCDN + info.AppID + "/"
	community := communityCDN + info.AppID + "/"
	q := NewQueue()

	if assets, err := valve.Map(info.Web, "assets"); err == nil {
		for _, key := range sortedKeys(assets) {
			value, err := valve.String(assets, key)
			if err != nil {
				continue
			}
			switch key {
			case "asset_url_format", "page_background_path":
			case "community_icon":
				q.Enqueue(community+value+".jpg", "", "community_icon")
			default:
				q.Enqueue(store+value, "", key)
			}
		}
	}

	common, _ := valve.Map(info.VDF, "common")

	for _, name := range []string{"small_capsule", "header_image"} {
		byLang, err := valve.Map(common, name)
		if err != nil {
			continue
		}
		for _, lang := range languages(byLang) {
			if fname, err := valve.String(byLang, lang); err == nil {
				q.Enqueue(store+fname, lang, name)
			}
		}
	}

	if library, err := valve.Map(common, "library_assets_full"); err == nil {
		for _, name := range sortedKeys(library) {
			obj, err := valve.Map(library, name)
			if err != nil {
				continue
			}
			for _, key := range sortedKeys(obj) {
				if key == "logo_position" {
					continue
				}
				if key != "image" && key != "image2x" {
					logging.Warn("unrecognized asset key", "asset", name, "key", key)
					continue
				}
				base := name
				if key == "image2x" {
					base += "_2x"
				}
				byLang, err := valve.Map(obj, key)
				if err != nil {
					continue
				}
				for _, lang := range languages(byLang) {
					if fname, err := valve.String(byLang, lang); err == nil {
						q.Enqueue(store+fname, lang, base)
					}
				}
			}
		}
	}

	for _, m := range miscAssets {
		if value, err := valve.String(common, m.key); err == nil {
			q.Enqueue(community+value+"."+m.ext, "", m.key)
		}
	}

	// Not named in any metadata, but usually present.
	q.Enqueue(store+"page_bg_raw.jpg", "", "page_bg_raw")

	if trailer := findTrailer(info); trailer != "" {
		q.Enqueue(trailer, "", "trailer")
	}
	return q
}

// findTrailer returns the first mp4 trailer_max of the trailer highlights.
func findTrailer(info *valve.Info) string {
	highlights, err := valve.List(info.Web, "trailers", "highlights")
	if err != nil {
		return ""
	}
	for _, h := range highlights {
		trailer, ok := h.(map[string]any)
		if !ok {
			continue
		}
		formats, err := valve.List(trailer, "trailer_max")
		if err != nil {
			continue
		}
		for _, f := range formats {
			format, ok := f.(map[string]any)
			if !ok || valve.StringOr(format, "", "type") != "video/mp4" {
				continue
			}
			if fname, err := valve.String(format, "filename"); err == nil {
				return trailerCDN + fname
			}
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// languages orders a per-language mapping with english first so the
// unsuffixed file name is the english asset.
func languages(byLang map[string]any) []string {
	langs := sortedKeys(byLang)
	sort.SliceStable(langs, func(i, j int) bool {
		return langs[i] == "english" && langs[j] != "english"
	})
	return langs
}
