package shade

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/config"
	"ripple/internal/input"
	"ripple/internal/wave"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r uint8
			if (x/8+y/8)%2 == 0 {
				r = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: uint8(x * 255 / w), B: uint8(y * 255 / h), A: 255})
		}
	}
	return img
}

func TestCoverFit(t *testing.T) {
	f := CoverFit(64, 48, 64, 48)
	assert.Equal(t, float32(1), f.Scale)
	assert.Zero(t, f.OffsetX)
	assert.Zero(t, f.OffsetY)

	f = CoverFit(300, 200, 100, 100)
	assert.Equal(t, float32(3), f.Scale)
	assert.Equal(t, float32(0), f.OffsetX)
	assert.Equal(t, float32(-50), f.OffsetY)

	f = CoverFit(100, 100, 200, 100)
	assert.Equal(t, float32(1), f.Scale)
	assert.Equal(t, float32(-50), f.OffsetX)
}

func TestCoverFitIdempotent(t *testing.T) {
	first := CoverFit(300, 200, 100, 100)
	w := int(first.ImageW * first.Scale)
	h := int(first.ImageH * first.Scale)
	second := CoverFit(300, 200, w, h)
	assert.Equal(t, float32(1), second.Scale)
	assert.Equal(t, first.OffsetX, second.OffsetX)
	assert.Equal(t, first.OffsetY, second.OffsetY)
}

func TestTexCoordCentreAndFlip(t *testing.T) {
	f := CoverFit(300, 200, 100, 100)
	s, tc := f.TexCoord(150, 100)
	assert.InDelta(t, 0.5, s, 1e-6)
	assert.InDelta(t, 0.5, tc, 1e-6)

	// The top of the viewport is near t = 0 (image top row).
	_, top := f.TexCoord(150, 199.5)
	assert.Less(t, top, float32(0.5))
}

func TestSampleTexelCentresAndClamp(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	assert.Equal(t, RGB{1, 0, 0}, Sample(img, 0.25, 0.5))
	assert.Equal(t, RGB{0, 0, 1}, Sample(img, 0.75, 0.5))
	assert.Equal(t, RGB{1, 0, 0}, Sample(img, -3, 0.5), "clamped left")
	assert.Equal(t, RGB{0, 0, 1}, Sample(img, 4, 7), "clamped right")

	mid := Sample(img, 0.5, 0.5)
	assert.InDelta(t, 0.5, mid[0], 1e-6)
	assert.InDelta(t, 0.5, mid[2], 1e-6)
}

func TestCompositeZeroFieldShowsImage(t *testing.T) {
	img := testImage(32, 32)
	field := wave.NewField(32, 32)
	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))
	require.NoError(t, Composite(dst, field, img, config.Default()))

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			want := img.NRGBAAt(x, y)
			got := dst.RGBAAt(x, y)
			// A flat surface still catches a faint glint.
			assert.InDelta(t, float64(want.R), float64(got.R), 2, "R at %d,%d", x, y)
			assert.InDelta(t, float64(want.G), float64(got.G), 2, "G at %d,%d", x, y)
			assert.InDelta(t, float64(want.B), float64(got.B), 2, "B at %d,%d", x, y)
			assert.Equal(t, uint8(255), got.A)
		}
	}
}

func TestCompositeAberrationDisabledIsSingleSample(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	field := wave.NewField(40, 30)
	for i := range field.Texels {
		field.Texels[i] = wave.Texel{GradX: r.Float32() - 0.5, GradY: r.Float32() - 0.5}
	}
	img := testImage(50, 20)

	off := config.Default()
	zero := config.Default()
	zero.EnableChromaticAberration = true
	zero.ChromaticAberrationStrength = 0

	a := image.NewRGBA(image.Rect(0, 0, 40, 30))
	b := image.NewRGBA(image.Rect(0, 0, 40, 30))
	require.NoError(t, Composite(a, field, img, off))
	require.NoError(t, Composite(b, field, img, zero))
	assert.Equal(t, a.Pix, b.Pix)

	on := zero
	on.ChromaticAberrationStrength = 1
	c := image.NewRGBA(image.Rect(0, 0, 40, 30))
	require.NoError(t, Composite(c, field, img, on))
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestCompositeTargetMismatch(t *testing.T) {
	err := Composite(image.NewRGBA(image.Rect(0, 0, 4, 4)), wave.NewField(4, 5), testImage(4, 4), config.Default())
	assert.Error(t, err)
}

func TestCompositeDistortionConfinedToRipple(t *testing.T) {
	const size = 256
	cfg := config.Default()
	pair := [2]*wave.Field{wave.NewField(size, size), wave.NewField(size, size)}
	press := input.Sample{X: 128, Y: 128, Active: true}
	var field *wave.Field
	for frame := uint64(0); frame < 6; frame++ {
		field = pair[(frame+1)&1]
		require.NoError(t, wave.Step(field, pair[frame&1], frame, press, cfg))
	}

	img := testImage(size, size)
	rippled := image.NewRGBA(image.Rect(0, 0, size, size))
	flat := image.NewRGBA(image.Rect(0, 0, size, size))
	require.NoError(t, Composite(rippled, field, img, cfg))
	require.NoError(t, Composite(flat, wave.NewField(size, size), img, cfg))

	changed := 0
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if rippled.RGBAAt(col, row) == flat.RGBAAt(col, row) {
				continue
			}
			changed++
			fy := size - 1 - row
			dist := math.Hypot(float64(col)+0.5-128, float64(fy)+0.5-128)
			require.LessOrEqual(t, dist, 36.0, "pixel %d,%d changed", col, row)
		}
	}
	assert.Greater(t, changed, 0)
}
