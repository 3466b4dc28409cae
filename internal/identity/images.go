package identity

import (
	"os"
	"path/filepath"
)

// ThumbnailCandidates is the preference order for the menu image.
var ThumbnailCandidates = []string{
	"hero_capsule_2x.jpg",
	"library_capsule_2x.jpg",
	"hero_capsule.jpg",
	"library_capsule.jpg",
	"main_capsule.jpg",
	"header.jpg",
	"small_capsule.jpg",
}

// splashCandidates are tried before falling back to the thumbnail.
var splashCandidates = []string{
	"raw_page_background.jpg",
	"page_bg_raw.jpg",
}

// Thumbnail returns the first candidate present in dir, or "" when none is.
func Thumbnail(dir string) string {
	return firstExisting(dir, ThumbnailCandidates)
}

// SplashImage returns the page background for the launch splash, falling
// back to the thumbnail.
func SplashImage(dir string) string {
	if img := firstExisting(dir, splashCandidates); img != "" {
		return img
	}
	return Thumbnail(dir)
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
