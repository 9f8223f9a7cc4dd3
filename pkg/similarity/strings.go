// Package similarity implements the field-level comparison algorithms used by
// the fuzzy matching engine. All scores are in [0, 1] and all comparisons are
// case-insensitive over normalized input.
package similarity

import (
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Scorer provides string, numeric and geographic comparison algorithms.
// It is stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match after normalization, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string) float64 {
	if normalizers.NormalizeText(a) == normalizers.NormalizeText(b) {
		return 1.0
	}
	return 0.0
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings.
// Returns a value between 0.0 (no similarity) and 1.0 (exact match). The
// Winkler prefix bonus makes it a good fit for titles where leading tokens
// (year, make) carry the most signal.
func (s *Scorer) JaroWinkler(a, b string) float64 {
	a = normalizers.NormalizeText(a)
	b = normalizers.NormalizeText(b)
	if a == b {
		return 1.0
	}

	jaro := s.jaro(a, b)

	// Winkler modification: boost for common prefix
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] == b[i] {
			prefixLen++
		} else {
			break
		}
	}

	// Winkler scaling factor is typically 0.1
	scalingFactor := 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)
}

// jaro calculates the Jaro similarity between two normalized strings
func (s *Scorer) jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Maximum distance for character matching
	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	transpositions := 0

	// Find matches
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// Count transpositions
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// Levenshtein returns a similarity score between 0.0 and 1.0 derived from the
// edit distance: 1 - distance/max(len). Two empty strings score 1.0.
func (s *Scorer) Levenshtein(a, b string) float64 {
	a = normalizers.NormalizeText(a)
	b = normalizers.NormalizeText(b)
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
// (insert/delete/substitute, each cost 1).
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// NGram computes the Dice coefficient over character n-grams of the two
// strings. Robust to word reordering, which listing titles do constantly
// ("2019 Honda Civic LX" vs "Honda Civic 2019 LX").
func (s *Scorer) NGram(a, b string, n int) float64 {
	a = normalizers.NormalizeText(a)
	b = normalizers.NormalizeText(b)
	if a == b {
		return 1.0
	}
	if n < 1 {
		n = 2
	}
	if len(a) < n || len(b) < n {
		return 0.0
	}

	aGrams := ngrams(a, n)
	bGrams := ngrams(b, n)

	shared := 0
	for gram, count := range aGrams {
		if other, ok := bGrams[gram]; ok {
			shared += min(count, other)
		}
	}

	totalA := len(a) - n + 1
	totalB := len(b) - n + 1
	return 2.0 * float64(shared) / float64(totalA+totalB)
}

func ngrams(s string, n int) map[string]int {
	grams := make(map[string]int, len(s))
	for i := 0; i+n <= len(s); i++ {
		grams[s[i:i+n]]++
	}
	return grams
}

// TitleSimilarity scores two listing titles as the better of Jaro-Winkler and
// bigram overlap, so both prefix-aligned and reordered titles score well.
func (s *Scorer) TitleSimilarity(a, b string) float64 {
	a = normalizers.NormalizeTitle(a)
	b = normalizers.NormalizeTitle(b)
	jw := s.JaroWinkler(a, b)
	ng := s.NGram(a, b, 2)
	if ng > jw {
		return ng
	}
	return jw
}
