package models

import "time"

// ReviewItemStatus is the lifecycle state of a review item.
type ReviewItemStatus string

const (
	ReviewItemStatusPending   ReviewItemStatus = "pending"
	ReviewItemStatusResolved  ReviewItemStatus = "resolved"
	ReviewItemStatusDismissed ReviewItemStatus = "dismissed"
)

// ReviewDecision is the adjudication outcome of a resolved review item.
type ReviewDecision string

const (
	ReviewDecisionNone             ReviewDecision = "none"
	ReviewDecisionSameVehicle      ReviewDecision = "same_vehicle"
	ReviewDecisionDifferentVehicle ReviewDecision = "different_vehicle"
)

// ReviewItem is an ambiguous listing pair held for human adjudication.
// The pair is canonicalized; at most one open item exists per pair.
type ReviewItem struct {
	ID              string           `json:"id" db:"id"`
	SourceListingID string           `json:"source_listing_id" db:"source_listing_id"`
	TargetListingID string           `json:"target_listing_id" db:"target_listing_id"`
	MatchScore      float64          `json:"match_score" db:"match_score"`
	Priority        int              `json:"priority" db:"priority"` // monotonic in score, higher first
	Status          ReviewItemStatus `json:"status" db:"status"`
	Decision        ReviewDecision   `json:"decision" db:"decision"`
	ReviewedBy      *string          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	Notes           *string          `json:"notes,omitempty" db:"notes"`
	DismissReason   *string          `json:"dismiss_reason,omitempty" db:"dismiss_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
}

// PriorityForScore maps a match score to a review priority. Higher scores are
// reviewed first.
func PriorityForScore(score float64) int {
	if score < 0 {
		return 0
	}
	return int(score*100 + 0.5)
}
