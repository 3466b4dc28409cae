package identity

import (
	"net/url"
	"path"
	"strings"

	"github.com/ryanm101/vent/internal/logging"
)

// Asset is one file to download into the game's cache directory.
type Asset struct {
	Name string // local file name, <basename>[-<lang>].<ext>
	URL  string
}

// Queue collects assets under collision-free local names, in insertion order.
type Queue struct {
	assets []Asset
	names  map[string]struct{}
	urls   map[string]struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		names: make(map[string]struct{}),
		urls:  make(map[string]struct{}),
	}
}

// Enqueue adds rawURL under <basename>.<ext>, where ext comes from the URL
// path. A URL already queued is ignored. When the name is taken the language
// tag is appended: <basename>-<lang>.<ext>. A collision with no language to
// tell the two apart keeps the first entry.
func (q *Queue) Enqueue(rawURL, lang, basename string) {
	if _, ok := q.urls[rawURL]; ok {
		return
	}

	ext := urlExt(rawURL)
	name := basename + "." + ext
	if _, taken := q.names[name]; taken {
		if lang == "" {
			logging.Debug("skipping asset, name already queued", "name", name, "url", rawURL)
			return
		}
		name = basename + "-" + lang + "." + ext
		if _, taken := q.names[name]; taken {
			logging.Debug("skipping asset, name already queued", "name", name, "url", rawURL)
			return
		}
	}

	q.names[name] = struct{}{}
	q.urls[rawURL] = struct{}{}
	q.assets = append(q.assets, Asset{Name: name, URL: rawURL})
}

// Assets returns the queued assets in insertion order.
func (q *Queue) Assets() []Asset {
	out := make([]Asset, len(q.assets))
	copy(out, q.assets)
	return out
}

// Len returns the number of queued assets.
func (q *Queue) Len() int {
	return len(q.assets)
}

// urlExt returns the extension of the URL path without the dot, ignoring
// any query string such as the ?t=<timestamp> cache busters Steam appends.
func urlExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.TrimPrefix(path.Ext(p), ".")
}
