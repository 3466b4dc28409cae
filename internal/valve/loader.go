package valve

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/system"
	"github.com/ryanm101/vent/internal/tracing"
)

// Info is the merged metadata for one game.
type Info struct {
	AppID string
	VDF   metacache.Blob // steamcmd app info, keyed below the app ID
	Web   metacache.Blob // response.store_items[0]
	Store metacache.Blob // <appid>.data
}

// Loader fetch-or-loads every source for a game through the cache.
type Loader struct {
	cache   *metacache.Cache
	sources []Source
}

// NewLoader returns a loader over the given sources, consulted in order.
func NewLoader(cache *metacache.Cache, sources ...Source) *Loader {
	return &Loader{cache: cache, sources: sources}
}

// NewDefaultLoader wires the three Valve sources.
func NewDefaultLoader(cache *metacache.Cache, runner system.Runner, client *http.Client, apiBase, storeBase string) *Loader {
	return NewLoader(cache,
		NewToolSource(runner),
		NewStoreBrowseSource(client, apiBase),
		NewAppDetailsSource(client, storeBase),
	)
}

// Cache returns the underlying cache.
func (l *Loader) Cache() *metacache.Cache {
	return l.cache
}

// Load returns the merged metadata for appID. The first failing source
// aborts the load; sources already cached stay cached.
func (l *Loader) Load(ctx context.Context, appID string) (*Info, error) {
	ctx, span := tracing.StartSpan(ctx, "valve.Load",
		tracing.WithAttributes(attribute.String("app.id", appID)),
	)
	defer span.End()

	info := &Info{AppID: appID}
	for _, src := range l.sources {
		src := src
		blob, err := l.cache.FetchOrLoad(ctx, appID, src.Kind(), func(ctx context.Context) (metacache.Blob, error) {
			return src.Fetch(ctx, appID)
		})
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}

		switch src.Kind() {
		case metacache.KindVDF:
			info.VDF = blob
		case metacache.KindWeb:
			info.Web = blob
		case metacache.KindStore:
			info.Store = blob
		default:
			return nil, fmt.Errorf("unknown source kind %q", src.Kind())
		}
	}
	return info, nil
}

// Name returns the game's display name, or "?????" when the app info has none.
func (i *Info) Name() string {
	return StringOr(i.VDF, "?????", "common", "name")
}
