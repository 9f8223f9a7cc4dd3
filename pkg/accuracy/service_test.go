package accuracy

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeMatchCounter struct {
	all                    int
	confirmedWithoutReview int
}

func (f *fakeMatchCounter) CountAll(ctx context.Context) (int, error) {
	return f.all, nil
}

func (f *fakeMatchCounter) CountConfirmedWithoutReview(ctx context.Context) (int, error) {
	return f.confirmedWithoutReview, nil
}

type fakeReviewCounter struct {
	all              int
	pending          int
	sameVehicle      int
	differentVehicle int
}

func (f *fakeReviewCounter) CountAll(ctx context.Context) (int, error) {
	return f.all, nil
}

func (f *fakeReviewCounter) CountByStatus(ctx context.Context, status models.ReviewItemStatus) (int, error) {
	if status == models.ReviewItemStatusPending {
		return f.pending, nil
	}
	return 0, nil
}

func (f *fakeReviewCounter) CountResolvedByDecision(ctx context.Context, decision models.ReviewDecision) (int, error) {
	switch decision {
	case models.ReviewDecisionSameVehicle:
		return f.sameVehicle, nil
	case models.ReviewDecisionDifferentVehicle:
		return f.differentVehicle, nil
	}
	return 0, nil
}

type fakeSnapshotStore struct {
	snapshots []models.AccuracyMetrics
}

func (f *fakeSnapshotStore) Create(ctx context.Context, snapshot *models.AccuracyMetrics) (*models.AccuracyMetrics, error) {
	f.snapshots = append(f.snapshots, *snapshot)
	copied := *snapshot
	return &copied, nil
}

func (f *fakeSnapshotStore) List(ctx context.Context, limit, offset int) ([]models.AccuracyMetrics, error) {
	return f.snapshots, nil
}

func TestServiceSnapshot(t *testing.T) {
	matches := &fakeMatchCounter{all: 30, confirmedWithoutReview: 2}
	reviews := &fakeReviewCounter{all: 10, pending: 3, sameVehicle: 6, differentVehicle: 2}
	snapshots := &fakeSnapshotStore{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc := NewService(matches, reviews, snapshots, logger)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, snapshot.TotalMatches)
	assert.Equal(t, 8, snapshot.ConfirmedDuplicates) // 6 reviewed + 2 directly confirmed
	assert.Equal(t, 2, snapshot.ConfirmedNonDuplicates)
	assert.Equal(t, 3, snapshot.PendingReviews)
	assert.InDelta(t, 0.8, snapshot.Precision, 1e-9)
	assert.InDelta(t, 0.2, snapshot.Recall, 1e-9)
	assert.InDelta(t, 0.32, snapshot.F1, 1e-9)
	assert.NotEmpty(t, snapshot.ID)
	assert.False(t, snapshot.ComputedAt.IsZero())

	history, err := svc.History(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestServiceComputeDoesNotPersist(t *testing.T) {
	snapshots := &fakeSnapshotStore{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc := NewService(&fakeMatchCounter{}, &fakeReviewCounter{}, snapshots, logger)

	snapshot, err := svc.Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, snapshot.Precision)
	assert.Equal(t, 0.0, snapshot.Recall)
	assert.Equal(t, 0.0, snapshot.F1)
	assert.Empty(t, snapshots.snapshots)
}
