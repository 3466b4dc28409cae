package assets

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/vent/internal/identity"
)

func TestFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/header.jpg":
			_, _ = w.Write([]byte("jpeg"))
		case "/trailer.mp4":
			_, _ = w.Write([]byte("mp4"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.jpg"), []byte("old"), 0644))

	queue := []identity.Asset{
		{Name: "header.jpg", URL: srv.URL + "/header.jpg"},
		{Name: "trailer.mp4", URL: srv.URL + "/trailer.mp4"},
		{Name: "page_bg_raw.jpg", URL: srv.URL + "/page_bg_raw.jpg"},
		{Name: "logo.jpg", URL: srv.URL + "/logo.jpg"},
	}

	var progress bytes.Buffer
	d := New(srv.Client())
	d.Progress = &progress

	report, err := d.Fetch(context.Background(), dir, queue)
	require.NoError(t, err)

	assert.Equal(t, Report{Fetched: 2, Cached: 1, Missing: 1}, report)
	assert.Equal(t, int32(3), hits.Load())

	data, err := os.ReadFile(filepath.Join(dir, "header.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	old, _ := os.ReadFile(filepath.Join(dir, "logo.jpg"))
	assert.Equal(t, "old", string(old))

	assert.NoFileExists(t, filepath.Join(dir, "page_bg_raw.jpg"))
}

func TestFetch_UnreachableIsCounted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := New(http.DefaultClient)
	report, err := d.Fetch(context.Background(), t.TempDir(), []identity.Asset{
		{Name: "header.jpg", URL: url + "/header.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestFetch_Empty(t *testing.T) {
	report, err := New(http.DefaultClient).Fetch(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}
