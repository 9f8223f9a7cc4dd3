// Package phash computes perceptual image hashes: fixed-length visual
// fingerprints that survive recompression and resizing. Two listings showing
// the same dealer photo hash to within a few bits of each other even when the
// sources re-encoded the image.
//
// The algorithm is the classic DCT variant: grayscale, shrink to 32x32, take
// the 2D DCT-II, keep the lowest-frequency 8x8 block minus the DC term, and
// threshold the remaining 63 coefficients against their median.
package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/bits"
	"sort"
	"strconv"

	"golang.org/x/image/draw"
)

const (
	// hashSize is the side of the retained low-frequency block.
	hashSize = 8
	// highFrequencyFactor oversizes the DCT input so the retained block is
	// genuinely low-frequency.
	highFrequencyFactor = 4
	// dctSize is the side of the grayscale grid fed to the DCT.
	dctSize = hashSize * highFrequencyFactor

	// bitCount is the number of fingerprint bits (8x8 block minus DC).
	bitCount = hashSize*hashSize - 1

	// MaxDistance is the hamming distance reported for malformed input and
	// the denominator for similarity.
	MaxDistance = 64
)

// FromBytes decodes an image (JPEG, PNG or GIF) and returns its perceptual
// hash as a fixed-width 16-digit hexadecimal string.
func FromBytes(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage computes the perceptual hash of a decoded image. The result is
// deterministic: the same pixels always produce the same hash.
func FromImage(img image.Image) string {
	gray := grayscale(img)

	coeffs := dct2d(gray)

	// Lowest-frequency 8x8 block, skipping the DC term at (0,0). The DC term
	// is overall brightness and would swamp the structural bits.
	block := make([]float64, 0, bitCount)
	for u := 0; u < hashSize; u++ {
		for v := 0; v < hashSize; v++ {
			if u == 0 && v == 0 {
				continue
			}
			block = append(block, coeffs[u][v])
		}
	}

	median := medianOf(block)

	var word uint64
	for i, c := range block {
		if c > median {
			word |= 1 << (bitCount - 1 - i)
		}
	}

	return fmt.Sprintf("%016x", word)
}

// grayscale scales the image down to dctSize x dctSize luma values.
func grayscale(img image.Image) [][]float64 {
	dst := image.NewGray(image.Rect(0, 0, dctSize, dctSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	grid := make([][]float64, dctSize)
	for y := 0; y < dctSize; y++ {
		grid[y] = make([]float64, dctSize)
		for x := 0; x < dctSize; x++ {
			grid[y][x] = float64(dst.GrayAt(x, y).Y)
		}
	}
	return grid
}

// dct2d applies an orthonormal DCT-II over the grid, rows then columns.
func dct2d(grid [][]float64) [][]float64 {
	n := len(grid)

	rows := make([][]float64, n)
	for y := 0; y < n; y++ {
		rows[y] = dct1d(grid[y])
	}

	out := make([][]float64, n)
	for u := 0; u < n; u++ {
		out[u] = make([]float64, n)
	}
	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y][x]
		}
		transformed := dct1d(col)
		for u := 0; u < n; u++ {
			out[u][x] = transformed[u]
		}
	}
	return out
}

// dct1d computes the orthonormal DCT-II of a single vector.
func dct1d(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		out[k] = sum * scale
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// parse interprets a hash string as a 64-bit word. ok is false for anything
// that is not exactly 16 hex digits.
func parse(h string) (uint64, bool) {
	if len(h) != 16 {
		return 0, false
	}
	word, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0, false
	}
	return word, true
}

// HammingDistance counts differing bits between two hashes. Malformed or
// empty hashes on either side yield MaxDistance; this never fails.
func HammingDistance(h1, h2 string) int {
	w1, ok1 := parse(h1)
	w2, ok2 := parse(h2)
	if !ok1 || !ok2 {
		return MaxDistance
	}
	return bits.OnesCount64(w1 ^ w2)
}

// Similarity converts hamming distance to a score in [0, 1].
func Similarity(h1, h2 string) float64 {
	return 1.0 - float64(HammingDistance(h1, h2))/float64(MaxDistance)
}

// AreSimilar reports whether two hashes are within maxDistance bits. With the
// default distance of 10 that corresponds to a similarity of roughly 0.84.
func AreSimilar(h1, h2 string, maxDistance int) bool {
	return HammingDistance(h1, h2) <= maxDistance
}
