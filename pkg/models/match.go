package models

import "time"

// Field names used as keys in score breakdowns.
const (
	FieldVIN      = "vin"
	FieldTitle    = "title"
	FieldPrice    = "price"
	FieldMileage  = "mileage"
	FieldLocation = "location"
	FieldImage    = "image"
)

// MatchResult is the engine's verdict on a single listing pair. It is derived,
// never persisted directly - the orchestrator turns it into a DuplicateMatch
// or ReviewItem (or discards it).
type MatchResult struct {
	SourceListingID  string             `json:"source_listing_id"`
	TargetListingID  string             `json:"target_listing_id"`
	OverallScore     float64            `json:"overall_score"`
	FieldScores      map[string]float64 `json:"field_scores"` // fields available on both sides; title only above its threshold
	IsAboveThreshold bool               `json:"is_above_threshold"`
	RequiresReview   bool               `json:"requires_review"`
}

// Confidence tiers band the continuous score for triage.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// HighConfidenceThreshold is the score floor for the high tier.
const HighConfidenceThreshold = 0.95

// ConfidenceForScore bands an auto-match score into a tier. Anything persisted
// as an auto-match is at least medium; low is reserved for pairs confirmed
// through review that never crossed the auto threshold.
func ConfidenceForScore(score float64) string {
	if score >= HighConfidenceThreshold {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// DuplicateMatch is a persisted duplicate decision. The listing pair is
// canonicalized (source < target lexicographically) and unique together.
type DuplicateMatch struct {
	ID              string     `json:"id" db:"id"`
	SourceListingID string     `json:"source_listing_id" db:"source_listing_id"`
	TargetListingID string     `json:"target_listing_id" db:"target_listing_id"`
	OverallScore    float64    `json:"overall_score" db:"overall_score"`
	Confidence      string     `json:"confidence" db:"confidence"`
	ScoreBreakdown  string     `json:"score_breakdown" db:"score_breakdown"` // JSON field->score map
	IsConfirmed     bool       `json:"is_confirmed" db:"is_confirmed"`
	DetectedAt      time.Time  `json:"detected_at" db:"detected_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
}

// DeduplicationResult aggregates the outcome of running detection for one
// listing. Batch processing records per-listing failures here instead of
// aborting sibling listings.
type DeduplicationResult struct {
	ListingID         string           `json:"listing_id"`
	DuplicatesFound   []DuplicateMatch `json:"duplicates_found"`
	ReviewItemsOpened []ReviewItem     `json:"review_items_opened"`
	CandidatesChecked int              `json:"candidates_checked"`
	Duration          time.Duration    `json:"duration"`
	Success           bool             `json:"success"`
	ErrorMessage      string           `json:"error_message,omitempty"`
}
