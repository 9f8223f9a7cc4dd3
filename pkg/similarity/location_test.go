package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestHaversineKm(t *testing.T) {
	scorer := NewScorer()

	t.Run("SamePoint", func(t *testing.T) {
		assert.InDelta(t, 0.0, scorer.HaversineKm(43.6532, -79.3832, 43.6532, -79.3832), 0.001)
	})

	t.Run("TorontoToOttawa", func(t *testing.T) {
		dist := scorer.HaversineKm(43.6532, -79.3832, 45.4215, -75.6972)
		assert.InDelta(t, 352, dist, 10)
	})

	t.Run("Symmetric", func(t *testing.T) {
		d1 := scorer.HaversineKm(43.6532, -79.3832, 45.4215, -75.6972)
		d2 := scorer.HaversineKm(45.4215, -75.6972, 43.6532, -79.3832)
		assert.InDelta(t, d1, d2, 0.0001)
	})
}

func TestDistanceSimilarity(t *testing.T) {
	scorer := NewScorer()

	assert.Equal(t, 1.0, scorer.DistanceSimilarity(0, 50))
	assert.InDelta(t, 0.5, scorer.DistanceSimilarity(25, 50), 0.001)
	assert.Equal(t, 0.0, scorer.DistanceSimilarity(50, 50))
	assert.Equal(t, 0.0, scorer.DistanceSimilarity(120, 50))
}

func TestPostalCodeSimilarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("ExactFSA", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.PostalCodeSimilarity("M5V 3A8", "M5V 1K4"))
	})

	t.Run("CaseAndSpacing", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.PostalCodeSimilarity("m5v3a8", "M5V 1K4"))
	})

	t.Run("OneCharOff", func(t *testing.T) {
		assert.Equal(t, 0.5, scorer.PostalCodeSimilarity("M5V 3A8", "M4V 1K4"))
	})

	t.Run("Different", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.PostalCodeSimilarity("M5V 3A8", "K1A 0B1"))
	})

	t.Run("TooShort", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.PostalCodeSimilarity("M5", "M5V 3A8"))
	})
}

func TestLocationSimilarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("PrefersCoordinates", func(t *testing.T) {
		a := &models.ListingData{Latitude: ptr(43.6532), Longitude: ptr(-79.3832), PostalCode: "M5V 3A8"}
		b := &models.ListingData{Latitude: ptr(43.6532), Longitude: ptr(-79.3832), PostalCode: "K1A 0B1"}

		// Identical coordinates win even though FSAs disagree
		score, ok := scorer.LocationSimilarity(a, b, 50)
		assert.True(t, ok)
		assert.Equal(t, 1.0, score)
	})

	t.Run("FallsBackToPostal", func(t *testing.T) {
		a := &models.ListingData{PostalCode: "M5V 3A8"}
		b := &models.ListingData{PostalCode: "M5V 1K4"}

		score, ok := scorer.LocationSimilarity(a, b, 50)
		assert.True(t, ok)
		assert.Equal(t, 1.0, score)
	})

	t.Run("FallsBackToCityProvince", func(t *testing.T) {
		a := &models.ListingData{City: "Toronto", Province: "ON"}
		b := &models.ListingData{City: "toronto", Province: "on"}

		score, ok := scorer.LocationSimilarity(a, b, 50)
		assert.True(t, ok)
		assert.Equal(t, 1.0, score)
	})

	t.Run("DifferentCities", func(t *testing.T) {
		a := &models.ListingData{City: "Toronto", Province: "ON"}
		b := &models.ListingData{City: "Vancouver", Province: "BC"}

		score, ok := scorer.LocationSimilarity(a, b, 50)
		assert.True(t, ok)
		assert.Equal(t, 0.0, score)
	})

	t.Run("Unavailable", func(t *testing.T) {
		a := &models.ListingData{}
		b := &models.ListingData{City: "Toronto", Province: "ON"}

		_, ok := scorer.LocationSimilarity(a, b, 50)
		assert.False(t, ok)
	})
}
