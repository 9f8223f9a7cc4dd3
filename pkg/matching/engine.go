// Package matching combines per-field similarity signals into one calibrated
// match score per listing pair.
package matching

import (
	"context"
	"runtime"
	"sort"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/phash"
	"github.com/Ramsey-B/clover/pkg/similarity"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine scores listing pairs. Scoring is pure over immutable inputs, so a
// single Engine is safe for any number of concurrent callers.
type Engine struct {
	scorer  *similarity.Scorer
	logger  ectologger.Logger
	workers int
}

// NewEngine creates a matching engine. workers bounds candidate fan-out in
// FindPotentialMatches; values < 1 default to the core count.
func NewEngine(workers int, logger ectologger.Logger) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		scorer:  similarity.NewScorer(),
		logger:  logger,
		workers: workers,
	}
}

// fieldContribution is one field's sub-score. Fields missing on either side
// are unavailable and excluded from the weighted sum entirely, rather than
// dragging the score down with a zero.
type fieldContribution struct {
	score     float64
	available bool
}

func unavailable() fieldContribution {
	return fieldContribution{}
}

func available(score float64) fieldContribution {
	return fieldContribution{score: clamp01(score), available: true}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CalculateMatchScore scores one pair under the given config. Weights are
// renormalized over the fields present on both listings, so incomplete
// listings are compared fairly instead of penalized for missing data.
func (e *Engine) CalculateMatchScore(source, target *models.ListingData, cfg *models.DeduplicationConfig) *models.MatchResult {
	contributions := map[string]fieldContribution{
		models.FieldVIN:      e.vinScore(source, target),
		models.FieldTitle:    e.titleScore(source, target),
		models.FieldPrice:    e.priceScore(source, target, cfg),
		models.FieldMileage:  e.mileageScore(source, target, cfg),
		models.FieldLocation: e.locationScore(source, target, cfg),
		models.FieldImage:    e.imageScore(source, target),
	}

	weights := cfg.FieldWeights()
	fieldScores := make(map[string]float64)

	var weightedSum, weightTotal float64
	for field, contribution := range contributions {
		if !contribution.available {
			continue
		}
		// a title below the similarity threshold still counts in the weighted
		// sum; it is only left out of the reported breakdown
		if field != models.FieldTitle || contribution.score >= cfg.TitleSimilarityThreshold {
			fieldScores[field] = contribution.score
		}

		weight := weights[field]
		if weight <= 0 {
			continue
		}
		weightedSum += weight * contribution.score
		weightTotal += weight
	}

	overall := 0.0
	if weightTotal > 0 {
		overall = clamp01(weightedSum / weightTotal)
	}

	// equal full VINs identify the same physical vehicle; weak companion
	// fields must not drag the pair below the match threshold
	if vin := contributions[models.FieldVIN]; vin.available && vin.score == 1.0 && overall < cfg.OverallMatchThreshold {
		overall = cfg.OverallMatchThreshold
	}

	return &models.MatchResult{
		SourceListingID:  source.ID,
		TargetListingID:  target.ID,
		OverallScore:     overall,
		FieldScores:      fieldScores,
		IsAboveThreshold: overall >= cfg.OverallMatchThreshold,
		RequiresReview:   overall >= cfg.ReviewThreshold && overall < cfg.OverallMatchThreshold,
	}
}

// vinScore treats the VIN as the strongest signal available: equal full VINs
// score 1.0, different full VINs score 0.0, anything partial or absent is
// unavailable rather than a penalty.
func (e *Engine) vinScore(source, target *models.ListingData) fieldContribution {
	if source.VIN == nil || target.VIN == nil {
		return unavailable()
	}

	sourceVIN := normalizers.NormalizeVIN(*source.VIN)
	targetVIN := normalizers.NormalizeVIN(*target.VIN)
	if sourceVIN == "" || targetVIN == "" {
		return unavailable()
	}

	if sourceVIN == targetVIN {
		return available(1.0)
	}
	return available(0.0)
}

func (e *Engine) titleScore(source, target *models.ListingData) fieldContribution {
	if source.Title == "" || target.Title == "" {
		return unavailable()
	}
	return available(e.scorer.TitleSimilarity(source.Title, target.Title))
}

func (e *Engine) priceScore(source, target *models.ListingData, cfg *models.DeduplicationConfig) fieldContribution {
	if source.Price == nil || target.Price == nil {
		return unavailable()
	}
	return available(e.scorer.PercentageProximity(*source.Price, *target.Price, cfg.PriceMaxPctDiff))
}

func (e *Engine) mileageScore(source, target *models.ListingData, cfg *models.DeduplicationConfig) fieldContribution {
	if source.Mileage == nil || target.Mileage == nil {
		return unavailable()
	}
	return available(e.scorer.AbsoluteProximity(*source.Mileage, *target.Mileage, cfg.MileageMaxDiff))
}

func (e *Engine) locationScore(source, target *models.ListingData, cfg *models.DeduplicationConfig) fieldContribution {
	score, ok := e.scorer.LocationSimilarity(source, target, cfg.LocationMaxDistanceKm)
	if !ok {
		return unavailable()
	}
	return available(score)
}

func (e *Engine) imageScore(source, target *models.ListingData) fieldContribution {
	if source.ImageHash == nil || target.ImageHash == nil {
		return unavailable()
	}
	if *source.ImageHash == "" || *target.ImageHash == "" {
		return unavailable()
	}
	// Malformed hashes come back as maximal distance, scoring 0 here.
	return available(phash.Similarity(*source.ImageHash, *target.ImageHash))
}

// FindPotentialMatches scores the listing against every candidate with a
// bounded worker pool and returns all results sorted by descending overall
// score. Independent pairwise comparisons have no required ordering.
func (e *Engine) FindPotentialMatches(ctx context.Context, listing *models.ListingData, candidates []*models.ListingData, cfg *models.DeduplicationConfig) ([]*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.FindPotentialMatches")
	defer span.End()

	results := make([]*models.MatchResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.CalculateMatchScore(listing, candidate, cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].TargetListingID < results[j].TargetListingID
	})

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"listing_id": listing.ID,
		"candidates": len(candidates),
	}).Debug("Scored candidate listings")

	return results, nil
}
