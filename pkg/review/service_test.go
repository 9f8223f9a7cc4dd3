package review

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

type fakeItemStore struct {
	items map[string]*models.ReviewItem
}

func (f *fakeItemStore) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, errors.New("review item not found")
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemStore) Update(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error) {
	copied := *item
	f.items[item.ID] = &copied
	returned := copied
	return &returned, nil
}

func (f *fakeItemStore) ListPending(ctx context.Context, limit, offset int) ([]models.ReviewItem, error) {
	var pending []models.ReviewItem
	for _, item := range f.items {
		if item.Status == models.ReviewItemStatusPending {
			pending = append(pending, *item)
		}
	}
	return pending, nil
}

type fakeMatchStore struct {
	byPair map[string]*models.DuplicateMatch
}

func pairKey(a, b string) string {
	return a + "|" + b
}

func (f *fakeMatchStore) GetByPair(ctx context.Context, sourceID, targetID string) (*models.DuplicateMatch, error) {
	match, ok := f.byPair[pairKey(sourceID, targetID)]
	if !ok {
		return nil, nil
	}
	copied := *match
	return &copied, nil
}

func (f *fakeMatchStore) Upsert(ctx context.Context, match *models.DuplicateMatch) (*models.DuplicateMatch, error) {
	copied := *match
	f.byPair[pairKey(match.SourceListingID, match.TargetListingID)] = &copied
	returned := copied
	return &returned, nil
}

func (f *fakeMatchStore) Confirm(ctx context.Context, id string) (*models.DuplicateMatch, error) {
	for _, match := range f.byPair {
		if match.ID == id {
			now := time.Now().UTC()
			match.IsConfirmed = true
			match.ConfirmedAt = &now
			match.UpdatedAt = now
			copied := *match
			return &copied, nil
		}
	}
	return nil, errors.New("match not found")
}

type fakeReviewEvents struct {
	resolved  int
	dismissed int
	confirmed int
}

func (f *fakeReviewEvents) EmitReviewResolved(ctx context.Context, item *models.ReviewItem) error {
	f.resolved++
	return nil
}

func (f *fakeReviewEvents) EmitReviewDismissed(ctx context.Context, item *models.ReviewItem) error {
	f.dismissed++
	return nil
}

func (f *fakeReviewEvents) EmitDuplicateConfirmed(ctx context.Context, match *models.DuplicateMatch) error {
	f.confirmed++
	return nil
}

func newServiceFixture() (*Service, *fakeItemStore, *fakeMatchStore, *fakeReviewEvents) {
	items := &fakeItemStore{items: map[string]*models.ReviewItem{
		"item-1": {
			ID:              "item-1",
			SourceListingID: "listing-a",
			TargetListingID: "listing-b",
			MatchScore:      0.72,
			Priority:        72,
			Status:          models.ReviewItemStatusPending,
			Decision:        models.ReviewDecisionNone,
		},
	}}
	matches := &fakeMatchStore{byPair: map[string]*models.DuplicateMatch{}}
	events := &fakeReviewEvents{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(items, matches, events, logger), items, matches, events
}

func TestServiceResolveSameVehicle(t *testing.T) {
	t.Run("creates the match row when the pair only existed in review", func(t *testing.T) {
		svc, items, matches, events := newServiceFixture()

		updated, err := svc.Resolve(context.Background(), "item-1", models.ReviewDecisionSameVehicle, "reviewer@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, models.ReviewItemStatusResolved, updated.Status)

		match, err := matches.GetByPair(context.Background(), "listing-a", "listing-b")
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.True(t, match.IsConfirmed)
		assert.Equal(t, models.ConfidenceLow, match.Confidence)
		assert.InDelta(t, 0.72, match.OverallScore, 1e-9)
		assert.NotNil(t, match.ConfirmedAt)

		assert.Equal(t, models.ReviewItemStatusResolved, items.items["item-1"].Status)
		assert.Equal(t, 1, events.resolved)
		assert.Equal(t, 1, events.confirmed)
	})

	t.Run("confirms an existing match row", func(t *testing.T) {
		svc, _, matches, _ := newServiceFixture()
		_, err := matches.Upsert(context.Background(), &models.DuplicateMatch{
			ID:              "match-1",
			SourceListingID: "listing-a",
			TargetListingID: "listing-b",
			OverallScore:    0.91,
			Confidence:      models.ConfidenceMedium,
		})
		require.NoError(t, err)

		_, err = svc.Resolve(context.Background(), "item-1", models.ReviewDecisionSameVehicle, "reviewer@example.com", "")
		require.NoError(t, err)

		match, err := matches.GetByPair(context.Background(), "listing-a", "listing-b")
		require.NoError(t, err)
		assert.Equal(t, "match-1", match.ID)
		assert.True(t, match.IsConfirmed)
		assert.Equal(t, models.ConfidenceMedium, match.Confidence) // tier untouched
	})
}

func TestServiceResolveDifferentVehicle(t *testing.T) {
	svc, _, matches, events := newServiceFixture()

	updated, err := svc.Resolve(context.Background(), "item-1", models.ReviewDecisionDifferentVehicle, "reviewer@example.com", "different trim")
	require.NoError(t, err)

	assert.Equal(t, models.ReviewDecisionDifferentVehicle, updated.Decision)
	assert.Empty(t, matches.byPair) // false positive creates no match row
	assert.Equal(t, 1, events.resolved)
	assert.Equal(t, 0, events.confirmed)
}

func TestServiceResolveInvalid(t *testing.T) {
	svc, items, _, events := newServiceFixture()

	_, err := svc.Resolve(context.Background(), "item-1", models.ReviewDecisionNone, "reviewer@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = svc.Resolve(context.Background(), "missing", models.ReviewDecisionSameVehicle, "reviewer@example.com", "")
	assert.Error(t, err)

	// a failed transition persists nothing and emits nothing
	assert.Equal(t, models.ReviewItemStatusPending, items.items["item-1"].Status)
	assert.Equal(t, 0, events.resolved)
}

func TestServiceDismiss(t *testing.T) {
	svc, items, _, events := newServiceFixture()

	updated, err := svc.Dismiss(context.Background(), "item-1", "listing expired")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewItemStatusDismissed, updated.Status)
	assert.Equal(t, 1, events.dismissed)

	_, err = svc.Dismiss(context.Background(), "item-1", "again")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, models.ReviewItemStatusDismissed, items.items["item-1"].Status)
}
