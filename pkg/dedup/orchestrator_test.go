package dedup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr[T any](v T) *T {
	return &v
}

type fakeListingStore struct {
	listings   map[string]*models.ListingData
	candidates map[string][]*models.ListingData
}

func (f *fakeListingStore) GetByID(ctx context.Context, id string) (*models.ListingData, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, errors.New("listing not found")
	}
	return listing, nil
}

func (f *fakeListingStore) FindCandidates(ctx context.Context, listing *models.ListingData, limit int) ([]*models.ListingData, error) {
	return f.candidates[listing.ID], nil
}

type fakeMatchStore struct {
	mu      sync.Mutex
	rows    map[string]*models.DuplicateMatch
	upserts int
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{rows: make(map[string]*models.DuplicateMatch)}
}

func (f *fakeMatchStore) Upsert(ctx context.Context, match *models.DuplicateMatch) (*models.DuplicateMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++

	key := match.SourceListingID + "|" + match.TargetListingID
	if existing, ok := f.rows[key]; ok {
		existing.OverallScore = match.OverallScore
		existing.Confidence = match.Confidence
		existing.ScoreBreakdown = match.ScoreBreakdown
		existing.UpdatedAt = match.UpdatedAt
		copied := *existing
		return &copied, nil
	}

	copied := *match
	f.rows[key] = &copied
	returned := copied
	return &returned, nil
}

type fakeReviewStore struct {
	mu      sync.Mutex
	rows    map[string]*models.ReviewItem
	upserts int
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{rows: make(map[string]*models.ReviewItem)}
}

func (f *fakeReviewStore) UpsertPending(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++

	key := item.SourceListingID + "|" + item.TargetListingID
	if existing, ok := f.rows[key]; ok {
		if existing.Status == models.ReviewItemStatusPending {
			existing.MatchScore = item.MatchScore
			existing.Priority = item.Priority
			existing.UpdatedAt = item.UpdatedAt
		}
		copied := *existing
		return &copied, nil
	}

	copied := *item
	f.rows[key] = &copied
	returned := copied
	return &returned, nil
}

type fakeConfigStore struct {
	cfg   *models.DeduplicationConfig
	calls int
}

func (f *fakeConfigStore) GetActive(ctx context.Context) (*models.DeduplicationConfig, error) {
	f.calls++
	return f.cfg, nil
}

type fakeEvents struct {
	mu         sync.Mutex
	batches    int
	duplicates int
	reviews    int
}

func (f *fakeEvents) EmitDuplicatesDetected(ctx context.Context, matches []*models.DuplicateMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	f.duplicates += len(matches)
	return nil
}

func (f *fakeEvents) EmitReviewNeeded(ctx context.Context, item *models.ReviewItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews++
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testListings() *fakeListingStore {
	listing := &models.ListingData{
		ID:      "listing-a",
		Title:   "2019 Honda Civic LX Sedan",
		VIN:     ptr("1HGBH41JXMN109186"),
		Price:   ptr(21000.0),
		Mileage: ptr(48000.0),
	}
	duplicate := &models.ListingData{
		ID:      "candidate-dup",
		Title:   "2019 Honda Civic LX Sedan",
		VIN:     ptr("1HGBH41JXMN109186"),
		Price:   ptr(21000.0),
		Mileage: ptr(48000.0),
	}
	similar := &models.ListingData{
		ID:      "candidate-similar",
		Title:   "2019 Honda Civic LX Sedan",
		Price:   ptr(21900.0),
		Mileage: ptr(51000.0),
	}
	unrelated := &models.ListingData{
		ID:      "candidate-unrelated",
		Title:   "2008 Chevrolet Silverado 2500HD",
		VIN:     ptr("5YJSA1E26HF000337"),
		Price:   ptr(65000.0),
		Mileage: ptr(210000.0),
	}

	return &fakeListingStore{
		listings: map[string]*models.ListingData{
			"listing-a":           listing,
			"candidate-dup":       duplicate,
			"candidate-similar":   similar,
			"candidate-unrelated": unrelated,
		},
		candidates: map[string][]*models.ListingData{
			"listing-a": {duplicate, similar, unrelated},
		},
	}
}

func newTestOrchestrator(listings *fakeListingStore, matches *fakeMatchStore, reviews *fakeReviewStore, configs *fakeConfigStore, events *fakeEvents) *Orchestrator {
	logger := testLogger()
	engine := matching.NewEngine(2, logger)
	return NewOrchestrator(
		OrchestratorConfig{MaxCandidates: 50, BatchWorkers: 2},
		engine, listings, matches, reviews, configs, events, nil, logger,
	)
}

func TestDetectDuplicates(t *testing.T) {
	listings := testListings()
	matches := newFakeMatchStore()
	reviews := newFakeReviewStore()
	configs := &fakeConfigStore{cfg: models.DefaultDeduplicationConfig()}
	events := &fakeEvents{}
	orchestrator := newTestOrchestrator(listings, matches, reviews, configs, events)

	result, err := orchestrator.DetectDuplicates(context.Background(), "listing-a")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "listing-a", result.ListingID)
	assert.Equal(t, 3, result.CandidatesChecked)

	require.Len(t, result.DuplicatesFound, 1)
	match := result.DuplicatesFound[0]
	assert.Equal(t, models.ConfidenceHigh, match.Confidence)
	assert.Equal(t, "candidate-dup", match.SourceListingID) // canonicalized: candidate-dup < listing-a
	assert.Equal(t, "listing-a", match.TargetListingID)
	assert.NotEmpty(t, match.ScoreBreakdown)
	assert.False(t, match.IsConfirmed)

	require.Len(t, result.ReviewItemsOpened, 1)
	item := result.ReviewItemsOpened[0]
	assert.Equal(t, models.ReviewItemStatusPending, item.Status)
	assert.Equal(t, models.PriorityForScore(item.MatchScore), item.Priority)
	assert.Greater(t, item.Priority, 0)

	// every duplicate from the run goes out as one batch
	assert.Equal(t, 1, events.batches)
	assert.Equal(t, 1, events.duplicates)
	assert.Equal(t, 1, events.reviews)
}

func TestDetectDuplicatesIdempotent(t *testing.T) {
	listings := testListings()
	matches := newFakeMatchStore()
	reviews := newFakeReviewStore()
	configs := &fakeConfigStore{cfg: models.DefaultDeduplicationConfig()}
	orchestrator := newTestOrchestrator(listings, matches, reviews, configs, &fakeEvents{})

	first, err := orchestrator.DetectDuplicates(context.Background(), "listing-a")
	require.NoError(t, err)
	second, err := orchestrator.DetectDuplicates(context.Background(), "listing-a")
	require.NoError(t, err)

	// the rerun updates the same rows instead of inserting new ones
	assert.Len(t, matches.rows, 1)
	assert.Len(t, reviews.rows, 1)
	assert.Equal(t, 2, matches.upserts)

	require.Len(t, second.DuplicatesFound, 1)
	assert.Equal(t, first.DuplicatesFound[0].ID, second.DuplicatesFound[0].ID)
	require.Len(t, second.ReviewItemsOpened, 1)
	assert.Equal(t, first.ReviewItemsOpened[0].ID, second.ReviewItemsOpened[0].ID)
}

func TestDetectDuplicatesUnknownListing(t *testing.T) {
	orchestrator := newTestOrchestrator(testListings(), newFakeMatchStore(), newFakeReviewStore(), &fakeConfigStore{cfg: models.DefaultDeduplicationConfig()}, &fakeEvents{})

	result, err := orchestrator.DetectDuplicates(context.Background(), "no-such-listing")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "not found")
}

func TestProcessBatch(t *testing.T) {
	listings := testListings()
	matches := newFakeMatchStore()
	reviews := newFakeReviewStore()
	configs := &fakeConfigStore{cfg: models.DefaultDeduplicationConfig()}
	orchestrator := newTestOrchestrator(listings, matches, reviews, configs, &fakeEvents{})

	results := orchestrator.ProcessBatch(context.Background(), []string{"listing-a", "no-such-listing", "candidate-unrelated"})
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, "listing-a", results[0].ListingID)

	// one bad listing never aborts its siblings
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].ErrorMessage)

	assert.True(t, results[2].Success)
	assert.Equal(t, 0, results[2].CandidatesChecked)
}

func TestActiveConfigUsesCache(t *testing.T) {
	listings := testListings()
	configs := &fakeConfigStore{cfg: models.DefaultDeduplicationConfig()}
	cache := &fakeConfigCache{}
	logger := testLogger()
	engine := matching.NewEngine(2, logger)
	orchestrator := NewOrchestrator(
		OrchestratorConfig{MaxCandidates: 50, BatchWorkers: 2},
		engine, listings, newFakeMatchStore(), newFakeReviewStore(), configs, &fakeEvents{}, cache, logger,
	)

	_, err := orchestrator.DetectDuplicates(context.Background(), "listing-a")
	require.NoError(t, err)
	_, err = orchestrator.DetectDuplicates(context.Background(), "listing-a")
	require.NoError(t, err)

	assert.Equal(t, 1, configs.calls)
	assert.Equal(t, 1, cache.sets)
}

type fakeConfigCache struct {
	mu   sync.Mutex
	cfg  *models.DeduplicationConfig
	sets int
}

func (f *fakeConfigCache) GetActiveConfig(ctx context.Context) (*models.DeduplicationConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil {
		return nil, false
	}
	return f.cfg, true
}

func (f *fakeConfigCache) SetActiveConfig(ctx context.Context, cfg *models.DeduplicationConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
	f.sets++
}
