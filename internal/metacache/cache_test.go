package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingFetch(calls *int, blob Blob, err error) FetchFunc {
	return func(context.Context) (Blob, error) {
		*calls++
		return blob, err
	}
}

func TestFetchOrLoad_SecondCallHitsCache(t *testing.T) {
	cache := New(t.TempDir())
	ctx := context.Background()
	calls := 0
	fetch := countingFetch(&calls, Blob{"common": map[string]any{"name": "Portal 2"}}, nil)

	first, err := cache.FetchOrLoad(ctx, "620", KindVDF, fetch)
	require.NoError(t, err)
	second, err := cache.FetchOrLoad(ctx, "620", KindVDF, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Portal 2", first["common"].(map[string]any)["name"])
	assert.Equal(t, "Portal 2", second["common"].(map[string]any)["name"])
}

func TestFetchOrLoad_KindsAreIndependent(t *testing.T) {
	cache := New(t.TempDir())
	ctx := context.Background()
	calls := 0
	fetch := countingFetch(&calls, Blob{"ok": true}, nil)

	for _, kind := range Kinds {
		_, err := cache.FetchOrLoad(ctx, "620", kind, fetch)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, calls)
	for _, name := range []string{"vdf.json", "web.json", "store.json"} {
		assert.FileExists(t, filepath.Join(cache.Root(), "620", name))
	}
}

func TestFetchOrLoad_FailureIsNotCached(t *testing.T) {
	cache := New(t.TempDir())
	ctx := context.Background()
	boom := errors.New("network down")
	calls := 0

	_, err := cache.FetchOrLoad(ctx, "620", KindWeb, countingFetch(&calls, nil, boom))
	assert.ErrorIs(t, err, boom)
	assert.False(t, cache.Has("620", KindWeb))

	_, err = cache.FetchOrLoad(ctx, "620", KindWeb, countingFetch(&calls, Blob{"x": "y"}, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, cache.Has("620", KindWeb))
}

func TestFetchOrLoad_RoundTrip(t *testing.T) {
	cache := New(t.TempDir())
	ctx := context.Background()
	original := Blob{
		"name":   "Half-Life",
		"count":  json.Number("3"),
		"nested": map[string]any{"list": []any{"a", "b", json.Number("1.5")}},
	}

	_, err := cache.FetchOrLoad(ctx, "70", KindStore, func(context.Context) (Blob, error) {
		return original, nil
	})
	require.NoError(t, err)

	reloaded, err := cache.FetchOrLoad(ctx, "70", KindStore, func(context.Context) (Blob, error) {
		t.Fatal("fetch must not be called on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)

	want, err := json.Marshal(original)
	require.NoError(t, err)
	got, err := json.Marshal(reloaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestFetchOrLoad_PrettyPrinted(t *testing.T) {
	cache := New(t.TempDir())

	_, err := cache.FetchOrLoad(context.Background(), "620", KindVDF, func(context.Context) (Blob, error) {
		return Blob{"a": "b"}, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(cache.Path("620", KindVDF))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"b\"\n}\n", string(data))
}

func TestFetchOrLoad_CorruptEntry(t *testing.T) {
	cache := New(t.TempDir())
	path := cache.Path("620", KindVDF)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"truncated": `), 0644)) // #nosec G306

	calls := 0
	_, err := cache.FetchOrLoad(context.Background(), "620", KindVDF, countingFetch(&calls, Blob{}, nil))

	var corrupt *CorruptEntryError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, path, corrupt.Path)
	assert.Equal(t, 0, calls)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "entry.json")

	require.NoError(t, WriteFileAtomic(path, []byte("{}"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0644))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry.json", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))
}

func TestClear(t *testing.T) {
	cache := New(t.TempDir())
	ctx := context.Background()
	for _, kind := range Kinds {
		_, err := cache.FetchOrLoad(ctx, "620", kind, func(context.Context) (Blob, error) { return Blob{}, nil })
		require.NoError(t, err)
	}
	asset := filepath.Join(cache.Dir("620"), "header.jpg")
	require.NoError(t, os.WriteFile(asset, []byte("jpg"), 0644)) // #nosec G306

	require.NoError(t, cache.Clear("620", false))
	for _, kind := range Kinds {
		assert.False(t, cache.Has("620", kind))
	}
	assert.FileExists(t, asset)

	require.NoError(t, cache.Clear("620", true))
	assert.NoDirExists(t, cache.Dir("620"))
}
