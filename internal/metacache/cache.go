// Package metacache persists per-game metadata documents on disk, one JSON
// file per (app ID, source kind):
//
//	<root>/<appID>/vdf.json
//	<root>/<appID>/web.json
//	<root>/<appID>/store.json
//
// Entries never expire; an entry is only refetched after it is cleared.
package metacache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metrics"
	"github.com/ryanm101/vent/internal/tracing"
)

// Kind tags which source a blob came from.
type Kind string

const (
	KindVDF   Kind = "vdf"   // steamcmd app_info_print
	KindWeb   Kind = "web"   // IStoreBrowseService/GetItems
	KindStore Kind = "store" // store appdetails
)

// Kinds lists every source kind in load order.
var Kinds = []Kind{KindVDF, KindWeb, KindStore}

// Blob is one decoded metadata document.
type Blob = map[string]any

// FetchFunc retrieves a blob on a cache miss.
type FetchFunc func(ctx context.Context) (Blob, error)

// CorruptEntryError reports a cache file that exists but does not decode.
type CorruptEntryError struct {
	Path string
	Err  error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %v", e.Path, e.Err)
}

func (e *CorruptEntryError) Unwrap() error {
	return e.Err
}

// Cache is a disk-backed metadata cache rooted at a directory.
type Cache struct {
	root string
}

// New returns a cache rooted at root. The directory is created lazily.
func New(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the per-game directory, which also holds downloaded assets.
func (c *Cache) Dir(appID string) string {
	return filepath.Join(c.root, appID)
}

// Path returns the file backing one entry.
func (c *Cache) Path(appID string, kind Kind) string {
	return filepath.Join(c.Dir(appID), string(kind)+".json")
}

// FetchOrLoad returns the cached blob for (appID, kind), calling fetch only
// when no entry exists. A fetched blob is persisted before it is returned;
// fetch errors are returned as-is and nothing is written.
func (c *Cache) FetchOrLoad(ctx context.Context, appID string, kind Kind, fetch FetchFunc) (Blob, error) {
	ctx, span := tracing.StartSpan(ctx, "metacache.FetchOrLoad",
		tracing.WithAttributes(
			attribute.String("app.id", appID),
			attribute.String("cache.kind", string(kind)),
		),
	)
	defer span.End()

	path := c.Path(appID, kind)

	blob, err := c.load(path)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues(string(kind), "hit").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return blob, nil
	case !errors.Is(err, os.ErrNotExist):
		metrics.CacheLookups.WithLabelValues(string(kind), "error").Inc()
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.CacheLookups.WithLabelValues(string(kind), "miss").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))
	logging.Debug("cache miss", "app_id", appID, "kind", kind)

	start := time.Now()
	blob, err = fetch(ctx)
	metrics.RecordFetchDuration(string(kind), start)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if err := c.store(path, blob); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("write cache entry %s: %w", path, err)
	}
	return blob, nil
}

// Has reports whether an entry exists for (appID, kind).
func (c *Cache) Has(appID string, kind Kind) bool {
	_, err := os.Stat(c.Path(appID, kind))
	return err == nil
}

// Clear removes the metadata entries for appID. Downloaded assets are kept
// unless all is set, in which case the whole directory goes.
func (c *Cache) Clear(appID string, all bool) error {
	if all {
		return os.RemoveAll(c.Dir(appID))
	}
	for _, kind := range Kinds {
		if err := os.Remove(c.Path(appID, kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (c *Cache) load(path string) (Blob, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path built from cache root
	if err != nil {
		return nil, err
	}

	var blob Blob
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&blob); err != nil {
		return nil, &CorruptEntryError{Path: path, Err: err}
	}
	if blob == nil {
		return nil, &CorruptEntryError{Path: path, Err: errors.New("entry is null")}
	}
	return blob, nil
}

// store writes blob to a temp file in the entry's directory and renames it
// into place, so a crash never leaves a truncated entry under the final name.
func (c *Cache) store(path string, blob Blob) error {
	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, append(data, '\n'), 0644)
}

// WriteFileAtomic writes data to path via temp-file-then-rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil { //nolint:gosec // Standard dir permissions
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
