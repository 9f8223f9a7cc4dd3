package accuracy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecision(t *testing.T) {
	calc := NewCalculator()

	t.Run("share of adjudicated pairs", func(t *testing.T) {
		counts := Counts{ConfirmedDuplicates: 8, ConfirmedNonDuplicates: 2}
		assert.InDelta(t, 0.8, calc.Precision(counts), 1e-9)
	})

	t.Run("zero when nothing adjudicated", func(t *testing.T) {
		assert.Equal(t, 0.0, calc.Precision(Counts{TotalMatches: 50}))
	})

	t.Run("all false positives", func(t *testing.T) {
		assert.Equal(t, 0.0, calc.Precision(Counts{ConfirmedNonDuplicates: 5}))
	})
}

func TestRecall(t *testing.T) {
	calc := NewCalculator()

	t.Run("confirmed over total flagged", func(t *testing.T) {
		counts := Counts{TotalMatches: 40, ConfirmedDuplicates: 8}
		assert.InDelta(t, 0.2, calc.Recall(counts), 1e-9)
	})

	t.Run("zero when nothing flagged", func(t *testing.T) {
		assert.Equal(t, 0.0, calc.Recall(Counts{ConfirmedDuplicates: 3}))
	})
}

func TestF1(t *testing.T) {
	calc := NewCalculator()

	t.Run("harmonic mean", func(t *testing.T) {
		// precision 0.8, recall 0.2 -> f1 = 2*0.8*0.2/1.0 = 0.32
		counts := Counts{TotalMatches: 40, ConfirmedDuplicates: 8, ConfirmedNonDuplicates: 2}
		assert.InDelta(t, 0.32, calc.F1(counts), 1e-9)
	})

	t.Run("zero when both components zero", func(t *testing.T) {
		assert.Equal(t, 0.0, calc.F1(Counts{}))
	})

	t.Run("perfect detector", func(t *testing.T) {
		counts := Counts{TotalMatches: 10, ConfirmedDuplicates: 10}
		assert.InDelta(t, 1.0, calc.F1(counts), 1e-9)
	})
}
