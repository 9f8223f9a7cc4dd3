package phash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// maxImageBytes caps how much of a response body is read when hashing.
const maxImageBytes = 20 << 20 // 20MB

// HashCache stores previously computed hashes keyed by image URL. Implemented
// by pkg/cache; a nil cache disables caching.
type HashCache interface {
	GetImageHash(ctx context.Context, url string) (string, bool)
	SetImageHash(ctx context.Context, url string, hash string)
}

// Fetcher downloads listing images and computes their perceptual hashes.
// Downloads fan out concurrently with a bounded worker count; each individual
// hash computation is single-threaded CPU work.
type Fetcher struct {
	client  *http.Client
	logger  ectologger.Logger
	cache   HashCache
	workers int
}

// FetcherConfig holds fetcher settings.
type FetcherConfig struct {
	Workers int
	Timeout time.Duration
}

// NewFetcher creates a new image hash fetcher. cache may be nil.
func NewFetcher(cfg FetcherConfig, cache HashCache, logger ectologger.Logger) *Fetcher {
	workers := cfg.Workers
	if workers < 1 {
		workers = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		cache:   cache,
		workers: workers,
	}
}

// HashURL downloads a single image and returns its perceptual hash.
func (f *Fetcher) HashURL(ctx context.Context, url string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "phash.Fetcher.HashURL")
	defer span.End()

	if f.cache != nil {
		if hash, ok := f.cache.GetImageHash(ctx, url); ok {
			return hash, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching image", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}

	hash, err := FromBytes(data)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		f.cache.SetImageHash(ctx, url, hash)
	}

	return hash, nil
}

// HashURLs hashes many images concurrently and returns url -> hash for every
// image that could be fetched and decoded. Individual failures are logged and
// skipped; cancellation of ctx aborts the remaining downloads.
func (f *Fetcher) HashURLs(ctx context.Context, urls []string) map[string]string {
	ctx, span := tracing.StartSpan(ctx, "phash.Fetcher.HashURLs")
	defer span.End()

	type result struct {
		url  string
		hash string
	}

	results := make(chan result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for _, url := range urls {
		g.Go(func() error {
			hash, err := f.HashURL(gctx, url)
			if err != nil {
				f.logger.WithContext(gctx).WithError(err).WithFields(map[string]any{
					"url": url,
				}).Warn("Failed to hash image")
				return nil // one bad image never fails the batch
			}
			results <- result{url: url, hash: hash}
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	hashes := make(map[string]string, len(urls))
	for r := range results {
		hashes[r.url] = r.hash
	}
	return hashes
}
