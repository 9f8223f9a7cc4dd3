package phash

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ListingSource supplies recently scraped listings that still lack a
// perceptual hash and stores the ones the backfiller computes.
type ListingSource interface {
	ListMissingImageHash(ctx context.Context, cutoff time.Time, limit int) ([]*models.ListingData, error)
	UpdateImageHash(ctx context.Context, id string, hash string) error
}

// Hasher turns image URLs into perceptual hashes. Satisfied by *Fetcher.
type Hasher interface {
	HashURLs(ctx context.Context, urls []string) map[string]string
}

// BackfillConfig holds backfiller tuning.
type BackfillConfig struct {
	Interval  time.Duration // how often a sweep runs
	Lookback  time.Duration // how far back to consider unhashed listings
	BatchSize int
}

// Backfiller periodically hashes listing images that arrived without one, so
// the image signal is available by the time the listing is scored.
type Backfiller struct {
	listings ListingSource
	hasher   Hasher
	logger   ectologger.Logger
	cfg      BackfillConfig

	cancel context.CancelFunc
	done   sync.WaitGroup
}

func NewBackfiller(cfg BackfillConfig, listings ListingSource, hasher Hasher, logger ectologger.Logger) *Backfiller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 72 * time.Hour
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 200
	}
	return &Backfiller{
		listings: listings,
		hasher:   hasher,
		logger:   logger,
		cfg:      cfg,
	}
}

// RunOnce performs a single sweep and returns how many hashes were stored.
func (b *Backfiller) RunOnce(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "phash.Backfiller.RunOnce")
	defer span.End()

	cutoff := time.Now().UTC().Add(-b.cfg.Lookback)
	listings, err := b.listings.ListMissingImageHash(ctx, cutoff, b.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(listings) == 0 {
		return 0, nil
	}

	urls := make([]string, 0, len(listings))
	byURL := make(map[string][]*models.ListingData, len(listings))
	for _, l := range listings {
		if l.ImageURL == nil || *l.ImageURL == "" {
			continue
		}
		if _, seen := byURL[*l.ImageURL]; !seen {
			urls = append(urls, *l.ImageURL)
		}
		byURL[*l.ImageURL] = append(byURL[*l.ImageURL], l)
	}

	hashes := b.hasher.HashURLs(ctx, urls)

	stored := 0
	for url, hash := range hashes {
		for _, l := range byURL[url] {
			if err := b.listings.UpdateImageHash(ctx, l.ID, hash); err != nil {
				b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"listing_id": l.ID,
				}).Warn("Failed to store image hash")
				metrics.ImageHashesComputed.WithLabelValues("error").Inc()
				continue
			}
			stored++
			metrics.ImageHashesComputed.WithLabelValues("success").Inc()
		}
	}
	if failed := len(urls) - len(hashes); failed > 0 {
		metrics.ImageHashesComputed.WithLabelValues("error").Add(float64(failed))
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"candidates": len(listings),
		"stored":     stored,
	}).Debug("Image hash backfill sweep finished")

	return stored, nil
}

// Start launches the sweep loop. The first sweep runs after one interval.
func (b *Backfiller) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	b.done.Add(1)
	go func() {
		defer b.done.Done()
		ticker := time.NewTicker(b.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if _, err := b.RunOnce(loopCtx); err != nil {
					b.logger.WithError(err).Error("Image hash backfill sweep failed")
				}
			}
		}
	}()

	return nil
}

func (b *Backfiller) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	b.done.Wait()
	return nil
}
