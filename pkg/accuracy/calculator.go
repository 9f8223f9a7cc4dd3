// Package accuracy turns adjudicated review outcomes into precision/recall/F1
// used to evaluate config revisions.
package accuracy

// Counts are the raw persisted-outcome tallies a snapshot is computed from.
type Counts struct {
	TotalMatches           int // every DuplicateMatch and ReviewItem ever created
	ConfirmedDuplicates    int // same_vehicle resolutions plus directly confirmed matches
	ConfirmedNonDuplicates int // different_vehicle resolutions
	PendingReviews         int
}

// Calculator computes the derived metrics. Pure arithmetic, no I/O.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Precision is the share of adjudicated pairs that were true duplicates.
// Zero when nothing has been adjudicated yet.
func (c *Calculator) Precision(counts Counts) float64 {
	adjudicated := counts.ConfirmedDuplicates + counts.ConfirmedNonDuplicates
	if adjudicated == 0 {
		return 0
	}
	return float64(counts.ConfirmedDuplicates) / float64(adjudicated)
}

// Recall is confirmed duplicates over everything the system flagged. This is
// an approximation against the system's own output - duplicates the detector
// never surfaced are unknowable without external ground truth.
func (c *Calculator) Recall(counts Counts) float64 {
	if counts.TotalMatches == 0 {
		return 0
	}
	return float64(counts.ConfirmedDuplicates) / float64(counts.TotalMatches)
}

// F1 is the harmonic mean of precision and recall, zero when both are zero.
func (c *Calculator) F1(counts Counts) float64 {
	precision := c.Precision(counts)
	recall := c.Recall(counts)
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
