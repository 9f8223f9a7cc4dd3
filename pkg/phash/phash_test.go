package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientImage builds a deterministic test image with enough structure that
// the DCT produces a non-trivial fingerprint.
func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Resolution-independent gradient + checker so scaled renders of
			// the same scene hash close together.
			v := uint8((x*255/w + y*255/h) / 2)
			if (x*8/w+y*8/h)%2 == 0 {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		img := gradientImage(64, 64)
		assert.Equal(t, FromImage(img), FromImage(img))
	})

	t.Run("FixedWidthHex", func(t *testing.T) {
		hash := FromImage(gradientImage(100, 80))
		assert.Len(t, hash, 16)
		assert.Regexp(t, "^[0-9a-f]{16}$", hash)
	})

	t.Run("TopBitUnused", func(t *testing.T) {
		// 63-bit fingerprint in a 64-bit word: the top bit is always zero
		hash := FromImage(gradientImage(64, 64))
		assert.Less(t, hash[0], byte('8'))
	})

	t.Run("RobustToResize", func(t *testing.T) {
		small := FromImage(gradientImage(64, 64))
		large := FromImage(gradientImage(256, 256))
		assert.LessOrEqual(t, HammingDistance(small, large), 10)
	})

	t.Run("DifferentImagesDiffer", func(t *testing.T) {
		a := FromImage(gradientImage(64, 64))

		flat := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				flat.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
			}
		}
		b := FromImage(flat)
		assert.Greater(t, HammingDistance(a, b), 10)
	})
}

func TestFromBytes(t *testing.T) {
	t.Run("RoundTripPNG", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, gradientImage(64, 64)))

		hash, err := FromBytes(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, FromImage(gradientImage(64, 64)), hash)
	})

	t.Run("GarbageBytes", func(t *testing.T) {
		_, err := FromBytes([]byte("not an image"))
		assert.Error(t, err)
	})
}

func TestHammingDistance(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		assert.Equal(t, 0, HammingDistance("0f0f0f0f0f0f0f0f", "0f0f0f0f0f0f0f0f"))
	})

	t.Run("Symmetric", func(t *testing.T) {
		h1 := "0f0f0f0f0f0f0f0f"
		h2 := "00ff00ff00ff00ff"
		assert.Equal(t, HammingDistance(h1, h2), HammingDistance(h2, h1))
	})

	t.Run("KnownDistance", func(t *testing.T) {
		// Single hex digit flipped from 0 to f = 4 bits
		assert.Equal(t, 4, HammingDistance("0000000000000000", "000000000000000f"))
	})

	t.Run("MalformedIsMaximal", func(t *testing.T) {
		assert.Equal(t, MaxDistance, HammingDistance("", "0f0f0f0f0f0f0f0f"))
		assert.Equal(t, MaxDistance, HammingDistance("zzzz", "0f0f0f0f0f0f0f0f"))
		assert.Equal(t, MaxDistance, HammingDistance("0f0f", "0f0f0f0f0f0f0f0f"))
		assert.Equal(t, MaxDistance, HammingDistance("", ""))
	})
}

func TestSimilarity(t *testing.T) {
	t.Run("IdentityIsOne", func(t *testing.T) {
		hash := FromImage(gradientImage(64, 64))
		assert.Equal(t, 1.0, Similarity(hash, hash))
	})

	t.Run("MalformedIsZero", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "0f0f0f0f0f0f0f0f"))
	})

	t.Run("ScalesWithDistance", func(t *testing.T) {
		// 16 bits apart out of 64
		assert.InDelta(t, 0.75, Similarity("0000000000000000", "000000000000ffff"), 0.001)
	})
}

func TestAreSimilar(t *testing.T) {
	assert.True(t, AreSimilar("0000000000000000", "0000000000000003", 10))
	assert.False(t, AreSimilar("0000000000000000", "00000000ffffffff", 10))
	assert.False(t, AreSimilar("", "0000000000000000", 10))
}
