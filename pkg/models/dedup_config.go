package models

import "time"

// DeduplicationConfig holds the tunable matching parameters. Configs are
// versioned; exactly one is active at a time and the engine only ever reads
// an immutable snapshot of it per detection run. Weights need not sum to 1 -
// the engine renormalizes over the fields present on both listings.
type DeduplicationConfig struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Version  int    `json:"version" db:"version"`
	IsActive bool   `json:"is_active" db:"is_active"`

	VINWeight      float64 `json:"vin_weight" db:"vin_weight"`
	TitleWeight    float64 `json:"title_weight" db:"title_weight"`
	PriceWeight    float64 `json:"price_weight" db:"price_weight"`
	MileageWeight  float64 `json:"mileage_weight" db:"mileage_weight"`
	LocationWeight float64 `json:"location_weight" db:"location_weight"`
	ImageWeight    float64 `json:"image_weight" db:"image_weight"`

	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" db:"title_similarity_threshold"`
	ImageMaxDistance         int     `json:"image_max_distance" db:"image_max_distance"`
	PriceMaxPctDiff          float64 `json:"price_max_pct_diff" db:"price_max_pct_diff"`
	MileageMaxDiff           float64 `json:"mileage_max_diff" db:"mileage_max_diff"`
	LocationMaxDistanceKm    float64 `json:"location_max_distance_km" db:"location_max_distance_km"`

	OverallMatchThreshold float64 `json:"overall_match_threshold" db:"overall_match_threshold"`
	ReviewThreshold       float64 `json:"review_threshold" db:"review_threshold"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultDeduplicationConfig returns the baseline tuning. The VIN weight is
// deliberately large enough that an exact VIN match alone crosses the overall
// threshold after renormalization against any single weak companion field.
func DefaultDeduplicationConfig() *DeduplicationConfig {
	return &DeduplicationConfig{
		Name:     "default",
		Version:  1,
		IsActive: true,

		VINWeight:      0.40,
		TitleWeight:    0.20,
		PriceWeight:    0.12,
		MileageWeight:  0.10,
		LocationWeight: 0.10,
		ImageWeight:    0.08,

		TitleSimilarityThreshold: 0.70,
		ImageMaxDistance:         10,
		PriceMaxPctDiff:          0.10,
		MileageMaxDiff:           500,
		LocationMaxDistanceKm:    50,

		OverallMatchThreshold: 0.85,
		ReviewThreshold:       0.60,
	}
}

// FieldWeights returns the configured weight per scoring field.
func (c *DeduplicationConfig) FieldWeights() map[string]float64 {
	return map[string]float64{
		FieldVIN:      c.VINWeight,
		FieldTitle:    c.TitleWeight,
		FieldPrice:    c.PriceWeight,
		FieldMileage:  c.MileageWeight,
		FieldLocation: c.LocationWeight,
		FieldImage:    c.ImageWeight,
	}
}
