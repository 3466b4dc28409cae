// Package assets downloads a game's artwork and trailer into its cache directory.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ryanm101/vent/internal/identity"
	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/metrics"
)

// DefaultConcurrency bounds parallel downloads; the CDNs throttle bursts.
const DefaultConcurrency = 4

// Report counts download outcomes.
type Report struct {
	Fetched int // downloaded now
	Cached  int // already on disk
	Missing int // server answered non-200, usually 404 for guessed names
	Failed  int // transport errors
}

// Downloader fetches queued assets.
type Downloader struct {
	Client      *http.Client
	Concurrency int

	// Progress receives a progress bar when set.
	Progress io.Writer
}

// New returns a downloader using client.
func New(client *http.Client) *Downloader {
	return &Downloader{Client: client, Concurrency: DefaultConcurrency}
}

// Fetch downloads every asset not already present in dir. Missing and
// unreachable assets are logged and counted but do not fail the run; only
// a local write error or cancellation does.
func (d *Downloader) Fetch(ctx context.Context, dir string, queue []identity.Asset) (Report, error) {
	var (
		mu     sync.Mutex
		report Report
	)
	count := func(status string, field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
		metrics.AssetsDownloaded.WithLabelValues(status).Inc()
	}

	var bar *progressbar.ProgressBar
	if d.Progress != nil && len(queue) > 0 {
		bar = progressbar.NewOptions(len(queue),
			progressbar.OptionSetWriter(d.Progress),
			progressbar.OptionSetDescription("Fetching assets"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	limit := d.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, a := range queue {
		a := a
		g.Go(func() error {
			defer func() {
				if bar != nil {
					_ = bar.Add(1)
				}
			}()

			dest := filepath.Join(dir, a.Name)
			if _, err := os.Stat(dest); err == nil {
				count("cached", &report.Cached)
				return nil
			}

			status, err := d.download(ctx, a.URL, dest)
			switch {
			case errors.Is(err, errWrite):
				return err
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Warn("asset download failed", "url", a.URL, "error", err)
				count("failed", &report.Failed)
			case status != http.StatusOK:
				logging.Info("asset not available", "status", status, "url", a.URL)
				count("missing", &report.Missing)
			default:
				logging.Info("asset fetched", "status", status, "url", a.URL, "file", a.Name)
				count("fetched", &report.Fetched)
			}
			return nil
		})
	}

	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	return report, err
}

var errWrite = errors.New("write asset")

func (d *Downloader) download(ctx context.Context, url, dest string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if err := metacache.WriteFileAtomic(dest, data, 0644); err != nil {
		return 0, fmt.Errorf("%w %s: %w", errWrite, dest, err)
	}
	return resp.StatusCode, nil
}
