package shade

import (
	"image"
	"math"
)

// RGB is a linear colour in [0, 1] per channel before output clamping.
type RGB [3]float32

// Sample reads img at texture coordinate (s, t) with bilinear filtering and
// clamp-to-edge addressing. Row 0 of img is t = 0.
func Sample(img *image.NRGBA, s, t float32) RGB {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return RGB{}
	}
	u := s*float32(w) - 0.5
	v := t*float32(h) - 0.5
	x0f := float32(math.Floor(float64(u)))
	y0f := float32(math.Floor(float64(v)))
	fx, fy := u-x0f, v-y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := texel(img, x0, y0)
	c10 := texel(img, x0+1, y0)
	c01 := texel(img, x0, y0+1)
	c11 := texel(img, x0+1, y0+1)

	var out RGB
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bot := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bot-top)*fy
	}
	return out
}

func texel(img *image.NRGBA, x, y int) RGB {
	b := img.Bounds()
	x = clampInt(x, 0, b.Dx()-1)
	y = clampInt(y, 0, b.Dy()-1)
	o := y*img.Stride + x*4
	p := img.Pix[o : o+3 : o+3]
	return RGB{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
