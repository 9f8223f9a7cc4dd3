package phash

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeListingSource struct {
	listings []*models.ListingData
	listErr  error
	updates  map[string]string
}

func (f *fakeListingSource) ListMissingImageHash(ctx context.Context, cutoff time.Time, limit int) ([]*models.ListingData, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings, nil
}

func (f *fakeListingSource) UpdateImageHash(ctx context.Context, id string, hash string) error {
	if f.updates == nil {
		f.updates = map[string]string{}
	}
	f.updates[id] = hash
	return nil
}

type fakeHasher struct {
	hashes map[string]string
	urls   []string
}

func (f *fakeHasher) HashURLs(ctx context.Context, urls []string) map[string]string {
	f.urls = urls
	out := map[string]string{}
	for _, url := range urls {
		if hash, ok := f.hashes[url]; ok {
			out[url] = hash
		}
	}
	return out
}

func backfillListing(id, url string) *models.ListingData {
	l := &models.ListingData{ID: id, Title: "listing " + id}
	if url != "" {
		l.ImageURL = &url
	}
	return l
}

func TestBackfillRunOnce(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	source := &fakeListingSource{listings: []*models.ListingData{
		backfillListing("listing-a", "https://img.example.com/a.jpg"),
		backfillListing("listing-b", "https://img.example.com/b.jpg"),
		backfillListing("listing-c", ""), // nothing to fetch
	}}
	hasher := &fakeHasher{hashes: map[string]string{
		"https://img.example.com/a.jpg": "a1b2c3d4e5f60718",
		// b.jpg fails to decode
	}}

	b := NewBackfiller(BackfillConfig{}, source, hasher, logger)

	stored, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	assert.Equal(t, map[string]string{"listing-a": "a1b2c3d4e5f60718"}, source.updates)
	assert.ElementsMatch(t, []string{
		"https://img.example.com/a.jpg",
		"https://img.example.com/b.jpg",
	}, hasher.urls)
}

func TestBackfillSharedImageURL(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	// cross-posted listings reuse the photo; hash it once, store it twice
	source := &fakeListingSource{listings: []*models.ListingData{
		backfillListing("listing-a", "https://img.example.com/shared.jpg"),
		backfillListing("listing-b", "https://img.example.com/shared.jpg"),
	}}
	hasher := &fakeHasher{hashes: map[string]string{
		"https://img.example.com/shared.jpg": "00ff00ff00ff00ff",
	}}

	b := NewBackfiller(BackfillConfig{}, source, hasher, logger)

	stored, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Len(t, hasher.urls, 1)
	assert.Equal(t, "00ff00ff00ff00ff", source.updates["listing-a"])
	assert.Equal(t, "00ff00ff00ff00ff", source.updates["listing-b"])
}

func TestBackfillNothingToDo(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	source := &fakeListingSource{}
	hasher := &fakeHasher{}
	b := NewBackfiller(BackfillConfig{}, source, hasher, logger)

	stored, err := b.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Empty(t, hasher.urls)
}

func TestBackfillListError(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	source := &fakeListingSource{listErr: errors.New("db down")}
	b := NewBackfiller(BackfillConfig{}, source, &fakeHasher{}, logger)

	_, err := b.RunOnce(context.Background())
	require.Error(t, err)
}
