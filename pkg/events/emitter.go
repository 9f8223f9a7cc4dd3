// Package events handles event emission for duplicate and review lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for Clover
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitDuplicatesDetected emits one duplicate.detected event per match found
// in a detection run, published as a single batch.
func (e *Emitter) EmitDuplicatesDetected(ctx context.Context, matches []*models.DuplicateMatch) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicatesDetected")
	defer span.End()

	if len(matches) == 0 {
		return nil
	}

	batch := make([]*kafka.DuplicateEvent, len(matches))
	for i, match := range matches {
		batch[i] = &kafka.DuplicateEvent{
			EventType:       "duplicate.detected",
			SchemaVersion:   SchemaVersion,
			MatchID:         match.ID,
			SourceListingID: match.SourceListingID,
			TargetListingID: match.TargetListingID,
			OverallScore:    match.OverallScore,
			Confidence:      match.Confidence,
			ScoreBreakdown:  json.RawMessage(match.ScoreBreakdown),
		}
	}

	if err := e.producer.PublishDuplicateEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(batch),
		}).Error("Failed to emit duplicate.detected events")
		return err
	}

	return nil
}

// EmitDuplicateConfirmed emits an event when a reviewer confirms a pair is the
// same vehicle
func (e *Emitter) EmitDuplicateConfirmed(ctx context.Context, match *models.DuplicateMatch) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicateConfirmed")
	defer span.End()

	event := &kafka.DuplicateEvent{
		EventType:       "duplicate.confirmed",
		SchemaVersion:   SchemaVersion,
		MatchID:         match.ID,
		SourceListingID: match.SourceListingID,
		TargetListingID: match.TargetListingID,
		OverallScore:    match.OverallScore,
		Confidence:      match.Confidence,
	}

	if err := e.producer.PublishDuplicateEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit duplicate.confirmed event")
		return err
	}

	return nil
}

// EmitReviewNeeded emits an event when an ambiguous pair is queued for review
func (e *Emitter) EmitReviewNeeded(ctx context.Context, item *models.ReviewItem) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewNeeded")
	defer span.End()

	event := &kafka.ReviewEvent{
		EventType:       "review.needed",
		SchemaVersion:   SchemaVersion,
		ReviewItemID:    item.ID,
		SourceListingID: item.SourceListingID,
		TargetListingID: item.TargetListingID,
		MatchScore:      item.MatchScore,
	}

	if err := e.producer.PublishReviewEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.needed event")
		return err
	}

	return nil
}

// EmitReviewResolved emits an event when a review item is adjudicated
func (e *Emitter) EmitReviewResolved(ctx context.Context, item *models.ReviewItem) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewResolved")
	defer span.End()

	reviewedBy := ""
	if item.ReviewedBy != nil {
		reviewedBy = *item.ReviewedBy
	}

	event := &kafka.ReviewEvent{
		EventType:       "review.resolved",
		SchemaVersion:   SchemaVersion,
		ReviewItemID:    item.ID,
		SourceListingID: item.SourceListingID,
		TargetListingID: item.TargetListingID,
		MatchScore:      item.MatchScore,
		Decision:        string(item.Decision),
		ReviewedBy:      reviewedBy,
	}

	if err := e.producer.PublishReviewEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.resolved event")
		return err
	}

	return nil
}

// EmitReviewDismissed emits an event when a review item is dismissed without a
// decision
func (e *Emitter) EmitReviewDismissed(ctx context.Context, item *models.ReviewItem) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewDismissed")
	defer span.End()

	event := &kafka.ReviewEvent{
		EventType:       "review.dismissed",
		SchemaVersion:   SchemaVersion,
		ReviewItemID:    item.ID,
		SourceListingID: item.SourceListingID,
		TargetListingID: item.TargetListingID,
		MatchScore:      item.MatchScore,
	}

	if err := e.producer.PublishReviewEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.dismissed event")
		return err
	}

	return nil
}
