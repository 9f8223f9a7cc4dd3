package similarity

import "math"

// PercentageProximity scores two values by their relative difference:
// 1.0 when equal, falling linearly to 0.0 where |v1-v2|/max(v1,v2) reaches
// maxPct, and 0.0 beyond. Used for price (default maxPct 0.10).
func (s *Scorer) PercentageProximity(v1, v2, maxPct float64) float64 {
	if v1 == v2 {
		return 1.0
	}
	if maxPct <= 0 {
		return 0.0
	}

	larger := math.Max(math.Abs(v1), math.Abs(v2))
	if larger == 0 {
		return 1.0
	}

	pctDiff := math.Abs(v1-v2) / larger
	if pctDiff >= maxPct {
		return 0.0
	}

	return 1.0 - pctDiff/maxPct
}

// AbsoluteProximity scores two values by their absolute difference: 1.0 when
// equal, linear falloff to 0.0 at maxDiff. Used for mileage (default 500).
func (s *Scorer) AbsoluteProximity(v1, v2, maxDiff float64) float64 {
	if v1 == v2 {
		return 1.0
	}
	if maxDiff <= 0 {
		return 0.0
	}

	diff := math.Abs(v1 - v2)
	if diff >= maxDiff {
		return 0.0
	}

	return 1.0 - diff/maxDiff
}
