package accuracy

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// MatchCounter exposes the duplicate-match tallies a snapshot needs.
type MatchCounter interface {
	CountAll(ctx context.Context) (int, error)
	// CountConfirmedWithoutReview counts matches confirmed directly, with no
	// resolved review item for the pair, so a reviewed pair is never counted
	// twice.
	CountConfirmedWithoutReview(ctx context.Context) (int, error)
}

// ReviewCounter exposes the review-item tallies a snapshot needs.
type ReviewCounter interface {
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.ReviewItemStatus) (int, error)
	CountResolvedByDecision(ctx context.Context, decision models.ReviewDecision) (int, error)
}

// SnapshotStore persists immutable metric snapshots.
type SnapshotStore interface {
	Create(ctx context.Context, snapshot *models.AccuracyMetrics) (*models.AccuracyMetrics, error)
	List(ctx context.Context, limit, offset int) ([]models.AccuracyMetrics, error)
}

// Service reads outcome counts, computes the derived metrics and manages the
// snapshot time series.
type Service struct {
	calculator *Calculator
	matches    MatchCounter
	reviews    ReviewCounter
	snapshots  SnapshotStore
	logger     ectologger.Logger
}

func NewService(matches MatchCounter, reviews ReviewCounter, snapshots SnapshotStore, logger ectologger.Logger) *Service {
	return &Service{
		calculator: NewCalculator(),
		matches:    matches,
		reviews:    reviews,
		snapshots:  snapshots,
		logger:     logger,
	}
}

func (s *Service) counts(ctx context.Context) (Counts, error) {
	var counts Counts

	matchCount, err := s.matches.CountAll(ctx)
	if err != nil {
		return counts, err
	}
	reviewCount, err := s.reviews.CountAll(ctx)
	if err != nil {
		return counts, err
	}
	counts.TotalMatches = matchCount + reviewCount

	sameVehicle, err := s.reviews.CountResolvedByDecision(ctx, models.ReviewDecisionSameVehicle)
	if err != nil {
		return counts, err
	}
	directlyConfirmed, err := s.matches.CountConfirmedWithoutReview(ctx)
	if err != nil {
		return counts, err
	}
	counts.ConfirmedDuplicates = sameVehicle + directlyConfirmed

	counts.ConfirmedNonDuplicates, err = s.reviews.CountResolvedByDecision(ctx, models.ReviewDecisionDifferentVehicle)
	if err != nil {
		return counts, err
	}

	counts.PendingReviews, err = s.reviews.CountByStatus(ctx, models.ReviewItemStatusPending)
	if err != nil {
		return counts, err
	}

	return counts, nil
}

// Compute derives current metrics without persisting a snapshot.
func (s *Service) Compute(ctx context.Context) (*models.AccuracyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "accuracy.Service.Compute")
	defer span.End()

	counts, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AccuracyMetrics{
		ID:                     uuid.NewString(),
		TotalMatches:           counts.TotalMatches,
		ConfirmedDuplicates:    counts.ConfirmedDuplicates,
		ConfirmedNonDuplicates: counts.ConfirmedNonDuplicates,
		PendingReviews:         counts.PendingReviews,
		Precision:              s.calculator.Precision(counts),
		Recall:                 s.calculator.Recall(counts),
		F1:                     s.calculator.F1(counts),
		ComputedAt:             time.Now().UTC(),
	}, nil
}

// Snapshot computes current metrics and persists them as a new snapshot row.
func (s *Service) Snapshot(ctx context.Context) (*models.AccuracyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "accuracy.Service.Snapshot")
	defer span.End()

	snapshot, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.snapshots.Create(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"precision": created.Precision,
		"recall":    created.Recall,
		"f1":        created.F1,
	}).Info("Recorded accuracy snapshot")

	return created, nil
}

// History lists persisted snapshots, newest first.
func (s *Service) History(ctx context.Context, limit, offset int) ([]models.AccuracyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "accuracy.Service.History")
	defer span.End()

	return s.snapshots.List(ctx, limit, offset)
}
