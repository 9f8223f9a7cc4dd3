package similarity

import (
	"math"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// coordinate pairs.
func (s *Scorer) HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceSimilarity converts a distance to a score: 1.0 at 0 km, linear
// falloff to 0.0 at maxDistanceKm.
func (s *Scorer) DistanceSimilarity(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 {
		return 0.0
	}
	if distanceKm <= 0 {
		return 1.0
	}
	if distanceKm >= maxDistanceKm {
		return 0.0
	}
	return 1.0 - distanceKm/maxDistanceKm
}

// fsaLength is the prefix of a Canadian postal code identifying its area.
const fsaLength = 3

// PostalCodeSimilarity compares the FSA prefixes of two postal codes: 1.0 on
// exact FSA match, partial credit for a single differing character, else 0.0.
func (s *Scorer) PostalCodeSimilarity(a, b string) float64 {
	a = normalizers.NormalizePostalCode(a)
	b = normalizers.NormalizePostalCode(b)
	if len(a) < fsaLength || len(b) < fsaLength {
		return 0.0
	}

	fsaA := a[:fsaLength]
	fsaB := b[:fsaLength]
	if fsaA == fsaB {
		return 1.0
	}

	mismatches := 0
	for i := 0; i < fsaLength; i++ {
		if fsaA[i] != fsaB[i] {
			mismatches++
		}
	}
	if mismatches == 1 {
		return 0.5
	}
	return 0.0
}

// LocationSimilarity scores geographic closeness using the best available
// signal, in priority order: coordinates, postal code, exact city+province
// match. The second return is false when neither listing carries enough
// location data to compare - the field is then excluded from weighting rather
// than scored as zero.
func (s *Scorer) LocationSimilarity(a, b *models.ListingData, maxDistanceKm float64) (float64, bool) {
	if a.HasCoordinates() && b.HasCoordinates() {
		dist := s.HaversineKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
		return s.DistanceSimilarity(dist, maxDistanceKm), true
	}

	postalA := normalizers.NormalizePostalCode(a.PostalCode)
	postalB := normalizers.NormalizePostalCode(b.PostalCode)
	if len(postalA) >= fsaLength && len(postalB) >= fsaLength {
		return s.PostalCodeSimilarity(postalA, postalB), true
	}

	if a.City != "" && b.City != "" && a.Province != "" && b.Province != "" {
		if s.ExactMatch(a.City, b.City) == 1.0 && s.ExactMatch(a.Province, b.Province) == 1.0 {
			return 1.0, true
		}
		return 0.0, true
	}

	return 0.0, false
}
