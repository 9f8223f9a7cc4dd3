package models

import "time"

// AccuracyMetrics is an immutable snapshot of how the detector is performing,
// derived from adjudicated review outcomes. Snapshots form a time series used
// to compare config revisions.
//
// Recall is measured against the system's own output (total generated matches)
// rather than external ground truth; no labeled dataset exists, and changing
// the denominator would break comparability with historical snapshots.
type AccuracyMetrics struct {
	ID                     string    `json:"id" db:"id"`
	TotalMatches           int       `json:"total_matches" db:"total_matches"`
	ConfirmedDuplicates    int       `json:"confirmed_duplicates" db:"confirmed_duplicates"`
	ConfirmedNonDuplicates int       `json:"confirmed_non_duplicates" db:"confirmed_non_duplicates"`
	PendingReviews         int       `json:"pending_reviews" db:"pending_reviews"`
	Precision              float64   `json:"precision" db:"precision"`
	Recall                 float64   `json:"recall" db:"recall"`
	F1                     float64   `json:"f1" db:"f1"`
	ComputedAt             time.Time `json:"computed_at" db:"computed_at"`
}
