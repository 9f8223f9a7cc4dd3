// Package dedup runs the matching engine across candidate sets and turns the
// results into persisted duplicate matches and review items.
package dedup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ListingStore supplies listings and candidate prefilters. Candidate selection
// policy (indexing, blocking keys) lives behind this boundary.
type ListingStore interface {
	GetByID(ctx context.Context, id string) (*models.ListingData, error)
	FindCandidates(ctx context.Context, listing *models.ListingData, limit int) ([]*models.ListingData, error)
}

// MatchStore persists duplicate matches. Upsert must be idempotent on the
// canonicalized pair and return the persisted row.
type MatchStore interface {
	Upsert(ctx context.Context, match *models.DuplicateMatch) (*models.DuplicateMatch, error)
}

// ReviewStore persists review items. UpsertPending must not clobber an item
// that has already been resolved or dismissed.
type ReviewStore interface {
	UpsertPending(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error)
}

// ConfigStore supplies the currently active deduplication config.
type ConfigStore interface {
	GetActive(ctx context.Context) (*models.DeduplicationConfig, error)
}

// EventSink publishes domain events for detected duplicates and opened review
// items. Duplicates found in one detection run are published as one batch.
// Emission failures never fail a detection run.
type EventSink interface {
	EmitDuplicatesDetected(ctx context.Context, matches []*models.DuplicateMatch) error
	EmitReviewNeeded(ctx context.Context, item *models.ReviewItem) error
}

// ConfigCache is an optional read-through cache for the active config.
type ConfigCache interface {
	GetActiveConfig(ctx context.Context) (*models.DeduplicationConfig, bool)
	SetActiveConfig(ctx context.Context, cfg *models.DeduplicationConfig)
}

// Orchestrator coordinates a detection run end to end: config snapshot,
// candidate fetch, scoring, classification, persistence and events.
type Orchestrator struct {
	engine        *matching.Engine
	listings      ListingStore
	matches       MatchStore
	reviews       ReviewStore
	configs       ConfigStore
	events        EventSink
	configCache   ConfigCache
	logger        ectologger.Logger
	maxCandidates int
	batchWorkers  int
}

// OrchestratorConfig holds orchestrator tuning.
type OrchestratorConfig struct {
	MaxCandidates int
	BatchWorkers  int
}

// NewOrchestrator creates a detection orchestrator. events and configCache may
// be nil.
func NewOrchestrator(
	cfg OrchestratorConfig,
	engine *matching.Engine,
	listings ListingStore,
	matches MatchStore,
	reviews ReviewStore,
	configs ConfigStore,
	events EventSink,
	configCache ConfigCache,
	logger ectologger.Logger,
) *Orchestrator {
	maxCandidates := cfg.MaxCandidates
	if maxCandidates < 1 {
		maxCandidates = 200
	}
	batchWorkers := cfg.BatchWorkers
	if batchWorkers < 1 {
		batchWorkers = 4
	}
	return &Orchestrator{
		engine:        engine,
		listings:      listings,
		matches:       matches,
		reviews:       reviews,
		configs:       configs,
		events:        events,
		configCache:   configCache,
		logger:        logger,
		maxCandidates: maxCandidates,
		batchWorkers:  batchWorkers,
	}
}

// activeConfig returns an immutable snapshot of the active config for one
// detection run. Every pair in the run is scored under the same snapshot even
// if the config is swapped mid-run.
func (o *Orchestrator) activeConfig(ctx context.Context) (*models.DeduplicationConfig, error) {
	if o.configCache != nil {
		if cfg, ok := o.configCache.GetActiveConfig(ctx); ok {
			return cfg, nil
		}
	}

	cfg, err := o.configs.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if o.configCache != nil {
		o.configCache.SetActiveConfig(ctx, cfg)
	}
	return cfg, nil
}

// DetectDuplicates runs duplicate detection for a single listing. The
// returned result always carries the outcome; on failure Success is false and
// ErrorMessage is set alongside the returned error.
func (o *Orchestrator) DetectDuplicates(ctx context.Context, listingID string) (*models.DeduplicationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Orchestrator.DetectDuplicates")
	defer span.End()

	start := time.Now()
	result := &models.DeduplicationResult{
		ListingID: listingID,
	}

	fail := func(err error) (*models.DeduplicationResult, error) {
		result.Duration = time.Since(start)
		result.Success = false
		result.ErrorMessage = err.Error()
		metrics.RecordDetection("error", result.Duration.Seconds())
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id": listingID,
		}).Error("Duplicate detection failed")
		return result, err
	}

	listing, err := o.listings.GetByID(ctx, listingID)
	if err != nil {
		return fail(err)
	}

	cfg, err := o.activeConfig(ctx)
	if err != nil {
		return fail(err)
	}

	candidates, err := o.listings.FindCandidates(ctx, listing, o.maxCandidates)
	if err != nil {
		return fail(err)
	}

	matches, err := o.engine.FindPotentialMatches(ctx, listing, candidates, cfg)
	if err != nil {
		return fail(err)
	}

	result.CandidatesChecked = len(candidates)
	metrics.CandidatesScored.Add(float64(len(candidates)))

	for _, match := range matches {
		switch {
		case match.IsAboveThreshold:
			persisted, err := o.persistMatch(ctx, match)
			if err != nil {
				return fail(err)
			}
			result.DuplicatesFound = append(result.DuplicatesFound, *persisted)
		case match.RequiresReview:
			persisted, err := o.persistReviewItem(ctx, match)
			if err != nil {
				return fail(err)
			}
			result.ReviewItemsOpened = append(result.ReviewItemsOpened, *persisted)
		}
		// below the review floor: no row, no event
	}

	if o.events != nil && len(result.DuplicatesFound) > 0 {
		batch := make([]*models.DuplicateMatch, len(result.DuplicatesFound))
		for i := range result.DuplicatesFound {
			batch[i] = &result.DuplicatesFound[i]
		}
		if err := o.events.EmitDuplicatesDetected(ctx, batch); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("Failed to emit duplicate events")
		}
	}

	result.Duration = time.Since(start)
	result.Success = true
	metrics.RecordDetection("success", result.Duration.Seconds())

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"listing_id":   listingID,
		"candidates":   result.CandidatesChecked,
		"duplicates":   len(result.DuplicatesFound),
		"review_items": len(result.ReviewItemsOpened),
		"duration_ms":  result.Duration.Milliseconds(),
	}).Info("Duplicate detection completed")

	return result, nil
}

func (o *Orchestrator) persistMatch(ctx context.Context, match *models.MatchResult) (*models.DuplicateMatch, error) {
	sourceID, targetID := models.CanonicalPair(match.SourceListingID, match.TargetListingID)

	breakdown, err := json.Marshal(match.FieldScores)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &models.DuplicateMatch{
		ID:              uuid.NewString(),
		SourceListingID: sourceID,
		TargetListingID: targetID,
		OverallScore:    match.OverallScore,
		Confidence:      models.ConfidenceForScore(match.OverallScore),
		ScoreBreakdown:  string(breakdown),
		DetectedAt:      now,
		UpdatedAt:       now,
	}

	persisted, err := o.matches.Upsert(ctx, row)
	if err != nil {
		return nil, err
	}
	metrics.RecordDuplicate(persisted.Confidence)

	return persisted, nil
}

func (o *Orchestrator) persistReviewItem(ctx context.Context, match *models.MatchResult) (*models.ReviewItem, error) {
	sourceID, targetID := models.CanonicalPair(match.SourceListingID, match.TargetListingID)

	now := time.Now().UTC()
	item := &models.ReviewItem{
		ID:              uuid.NewString(),
		SourceListingID: sourceID,
		TargetListingID: targetID,
		MatchScore:      match.OverallScore,
		Priority:        models.PriorityForScore(match.OverallScore),
		Status:          models.ReviewItemStatusPending,
		Decision:        models.ReviewDecisionNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	persisted, err := o.reviews.UpsertPending(ctx, item)
	if err != nil {
		return nil, err
	}
	metrics.ReviewItemsCreated.Inc()

	if o.events != nil {
		if err := o.events.EmitReviewNeeded(ctx, persisted); err != nil {
			o.logger.WithContext(ctx).WithError(err).Warn("Failed to emit review event")
		}
	}
	return persisted, nil
}

// ProcessBatch runs detection for each listing id with bounded concurrency.
// One listing's failure is captured in its own result and never aborts the
// siblings. Results are returned in input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, listingIDs []string) []*models.DeduplicationResult {
	ctx, span := tracing.StartSpan(ctx, "dedup.Orchestrator.ProcessBatch")
	defer span.End()

	results := make([]*models.DeduplicationResult, len(listingIDs))

	g := new(errgroup.Group)
	g.SetLimit(o.batchWorkers)

	for i, listingID := range listingIDs {
		g.Go(func() error {
			result, err := o.DetectDuplicates(ctx, listingID)
			if err != nil && result == nil {
				result = &models.DeduplicationResult{
					ListingID:    listingID,
					Success:      false,
					ErrorMessage: err.Error(),
				}
			}
			results[i] = result
			return nil
		})
	}

	_ = g.Wait()

	return results
}
