package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"Identical", "honda civic", "honda civic", 0},
		{"EmptyLeft", "", "civic", 5},
		{"EmptyRight", "civic", "", 5},
		{"SingleSubstitution", "civic", "civid", 1},
		{"Insertion", "civic", "civics", 1},
		{"Classic", "kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestLevenshtein_Similarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("BothEmpty", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Levenshtein("", ""))
	})

	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Levenshtein("2019 Honda Civic", "2019 Honda Civic"))
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Levenshtein("HONDA CIVIC", "honda civic"))
	})

	t.Run("CollapsesWhitespace", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Levenshtein("  honda   civic ", "honda civic"))
	})

	t.Run("Disjoint", func(t *testing.T) {
		assert.InDelta(t, 0.0, scorer.Levenshtein("abc", "xyz"), 0.001)
	})

	t.Run("Bounded", func(t *testing.T) {
		score := scorer.Levenshtein("2019 Honda Civic LX", "2018 Toyota Corolla LE")
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	})
}

func TestJaroWinkler(t *testing.T) {
	scorer := NewScorer()

	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.JaroWinkler("honda", "honda"))
	})

	t.Run("KnownValue", func(t *testing.T) {
		// Standard reference pair
		assert.InDelta(t, 0.961, scorer.JaroWinkler("martha", "marhta"), 0.001)
	})

	t.Run("PrefixBoost", func(t *testing.T) {
		// Shared prefix should score higher than the same edits elsewhere
		withPrefix := scorer.JaroWinkler("civic lx", "civic le")
		withoutPrefix := scorer.JaroWinkler("lx civic", "le civic")
		assert.Greater(t, withPrefix, withoutPrefix)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.JaroWinkler("Honda Civic", "honda civic"))
	})

	t.Run("EmptyString", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.JaroWinkler("honda", ""))
	})
}

func TestNGram(t *testing.T) {
	scorer := NewScorer()

	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.NGram("honda civic", "honda civic", 2))
	})

	t.Run("TooShort", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.NGram("a", "b", 2))
	})

	t.Run("ReorderedWords", func(t *testing.T) {
		// Bigram overlap survives word reordering far better than edit distance
		ngram := scorer.NGram("2019 honda civic lx", "honda civic 2019 lx", 2)
		lev := scorer.Levenshtein("2019 honda civic lx", "honda civic 2019 lx")
		assert.Greater(t, ngram, lev)
		assert.Greater(t, ngram, 0.7)
	})

	t.Run("Disjoint", func(t *testing.T) {
		assert.InDelta(t, 0.0, scorer.NGram("aaaa", "bbbb", 2), 0.001)
	})
}

func TestTitleSimilarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("IgnoresPunctuation", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.TitleSimilarity("2019 Honda Civic - LX", "2019 Honda Civic LX"))
	})

	t.Run("ReorderedStillHigh", func(t *testing.T) {
		score := scorer.TitleSimilarity("2019 Honda Civic LX", "Honda Civic LX 2019")
		assert.Greater(t, score, 0.7)
	})

	t.Run("DifferentVehiclesScoreLower", func(t *testing.T) {
		same := scorer.TitleSimilarity("2019 Honda Civic LX", "Honda Civic LX 2019")
		different := scorer.TitleSimilarity("2019 Honda Civic LX", "2012 Ford F-150 XLT")
		assert.Greater(t, same, different)
		assert.Less(t, different, 0.8)
	})
}
