package models

// ResolveReviewRequest adjudicates a pending review item.
type ResolveReviewRequest struct {
	Decision   ReviewDecision `json:"decision" validate:"required,oneof=same_vehicle different_vehicle"`
	ReviewedBy string         `json:"reviewed_by" validate:"required"`
	Notes      string         `json:"notes"`
}

// DismissReviewRequest closes a pending review item without a decision.
type DismissReviewRequest struct {
	Reason string `json:"reason"`
}

// CreateDedupConfigRequest creates a new (inactive) config version.
type CreateDedupConfigRequest struct {
	Name    string `json:"name" validate:"required"`
	Version int    `json:"version" validate:"gte=1"`

	VINWeight      float64 `json:"vin_weight" validate:"gte=0"`
	TitleWeight    float64 `json:"title_weight" validate:"gte=0"`
	PriceWeight    float64 `json:"price_weight" validate:"gte=0"`
	MileageWeight  float64 `json:"mileage_weight" validate:"gte=0"`
	LocationWeight float64 `json:"location_weight" validate:"gte=0"`
	ImageWeight    float64 `json:"image_weight" validate:"gte=0"`

	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" validate:"gte=0,lte=1"`
	ImageMaxDistance         int     `json:"image_max_distance" validate:"gte=0,lte=64"`
	PriceMaxPctDiff          float64 `json:"price_max_pct_diff" validate:"gte=0,lte=1"`
	MileageMaxDiff           float64 `json:"mileage_max_diff" validate:"gte=0"`
	LocationMaxDistanceKm    float64 `json:"location_max_distance_km" validate:"gte=0"`

	OverallMatchThreshold float64 `json:"overall_match_threshold" validate:"required,gt=0,lte=1"`
	ReviewThreshold       float64 `json:"review_threshold" validate:"gte=0,ltefield=OverallMatchThreshold"`
}

// ToConfig converts the request into a config entity.
func (r *CreateDedupConfigRequest) ToConfig() *DeduplicationConfig {
	return &DeduplicationConfig{
		Name:                     r.Name,
		Version:                  r.Version,
		VINWeight:                r.VINWeight,
		TitleWeight:              r.TitleWeight,
		PriceWeight:              r.PriceWeight,
		MileageWeight:            r.MileageWeight,
		LocationWeight:           r.LocationWeight,
		ImageWeight:              r.ImageWeight,
		TitleSimilarityThreshold: r.TitleSimilarityThreshold,
		ImageMaxDistance:         r.ImageMaxDistance,
		PriceMaxPctDiff:          r.PriceMaxPctDiff,
		MileageMaxDiff:           r.MileageMaxDiff,
		LocationMaxDistanceKm:    r.LocationMaxDistanceKm,
		OverallMatchThreshold:    r.OverallMatchThreshold,
		ReviewThreshold:          r.ReviewThreshold,
	}
}

// BatchDetectRequest runs detection over a set of listings.
type BatchDetectRequest struct {
	ListingIDs []string `json:"listing_ids" validate:"required,min=1,max=500,dive,required"`
}
