package review

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ItemStore persists review items.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*models.ReviewItem, error)
	Update(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.ReviewItem, error)
}

// MatchStore is the slice of match persistence the review loop needs.
// GetByPair returns (nil, nil) when no match row exists for the pair.
type MatchStore interface {
	GetByPair(ctx context.Context, sourceListingID, targetListingID string) (*models.DuplicateMatch, error)
	Upsert(ctx context.Context, match *models.DuplicateMatch) (*models.DuplicateMatch, error)
	Confirm(ctx context.Context, id string) (*models.DuplicateMatch, error)
}

// EventSink publishes review lifecycle events. Emission failures are logged,
// never surfaced - the state transition has already been persisted.
type EventSink interface {
	EmitReviewResolved(ctx context.Context, item *models.ReviewItem) error
	EmitReviewDismissed(ctx context.Context, item *models.ReviewItem) error
	EmitDuplicateConfirmed(ctx context.Context, match *models.DuplicateMatch) error
}

// Service runs the review workflow: state transitions plus their side effects
// on the linked duplicate match.
type Service struct {
	items   ItemStore
	matches MatchStore
	events  EventSink
	logger  ectologger.Logger
}

// NewService creates a review service. events may be nil.
func NewService(items ItemStore, matches MatchStore, events EventSink, logger ectologger.Logger) *Service {
	return &Service{
		items:   items,
		matches: matches,
		events:  events,
		logger:  logger,
	}
}

// GetByID returns a single review item.
func (s *Service) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.GetByID")
	defer span.End()

	return s.items.GetByID(ctx, id)
}

// ListPending returns open review items ordered by priority, highest first.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.ListPending")
	defer span.End()

	return s.items.ListPending(ctx, limit, offset)
}

// Resolve adjudicates a pending item. A same_vehicle decision confirms the
// linked duplicate match, creating the match row if the pair only ever
// existed as a review item. A different_vehicle decision records a confirmed
// false positive on the item itself.
func (s *Service) Resolve(ctx context.Context, id string, decision models.ReviewDecision, reviewedBy, notes string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Resolve")
	defer span.End()

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Resolve(item, decision, reviewedBy, notes); err != nil {
		return nil, err
	}

	if decision == models.ReviewDecisionSameVehicle {
		if err := s.confirmMatch(ctx, item); err != nil {
			return nil, err
		}
	}

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, err
	}
	metrics.RecordReviewResolution(string(decision))

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"review_item_id": updated.ID,
		"decision":       decision,
	}).Info("Resolved review item")

	if s.events != nil {
		if err := s.events.EmitReviewResolved(ctx, updated); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit review resolved event")
		}
	}

	return updated, nil
}

// confirmMatch flips the linked DuplicateMatch to confirmed, inserting the
// row first when the pair never crossed the auto-match threshold.
func (s *Service) confirmMatch(ctx context.Context, item *models.ReviewItem) error {
	match, err := s.matches.GetByPair(ctx, item.SourceListingID, item.TargetListingID)
	if err != nil {
		return err
	}

	if match == nil {
		now := time.Now().UTC()
		match, err = s.matches.Upsert(ctx, &models.DuplicateMatch{
			ID:              uuid.NewString(),
			SourceListingID: item.SourceListingID,
			TargetListingID: item.TargetListingID,
			OverallScore:    item.MatchScore,
			Confidence:      models.ConfidenceLow, // never crossed the auto threshold
			ScoreBreakdown:  "{}",
			DetectedAt:      now,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}
	}

	confirmed, err := s.matches.Confirm(ctx, match.ID)
	if err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.EmitDuplicateConfirmed(ctx, confirmed); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit duplicate confirmed event")
		}
	}
	return nil
}

// Dismiss closes a pending item without adjudicating the pair.
func (s *Service) Dismiss(ctx context.Context, id string, reason string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Dismiss")
	defer span.End()

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Dismiss(item, reason); err != nil {
		return nil, err
	}

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, err
	}
	metrics.RecordReviewResolution("dismissed")

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"review_item_id": updated.ID,
	}).Info("Dismissed review item")

	if s.events != nil {
		if err := s.events.EmitReviewDismissed(ctx, updated); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit review dismissed event")
		}
	}

	return updated, nil
}
