// Package wave holds the host-side form of the ripple field and the reference
// integrator the GPU kernels are checked against.
package wave

import "math"

// Texel is one field sample: pressure, its velocity, and the central
// difference gradient of pressure from the previous field.
type Texel struct {
	Pressure float32
	Velocity float32
	GradX    float32
	GradY    float32
}

// Channels is the number of float components per texel.
const Channels = 4

// Field is a width x height grid of texels stored row-major with row 0 at the
// bottom of the surface.
type Field struct {
	Width, Height int
	Texels        []Texel
}

// NewField allocates a zeroed field.
func NewField(width, height int) *Field {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Field{Width: width, Height: height, Texels: make([]Texel, width*height)}
}

// Index returns the slice offset of (x, y).
func (f *Field) Index(x, y int) int { return y*f.Width + x }

// At returns the texel at (x, y).
func (f *Field) At(x, y int) Texel { return f.Texels[y*f.Width+x] }

// Set writes the texel at (x, y).
func (f *Field) Set(x, y int, t Texel) { f.Texels[y*f.Width+x] = t }

// Clamped returns the texel nearest (x, y), clamping both coordinates to the
// field edges.
func (f *Field) Clamped(x, y int) Texel {
	return f.Texels[clampCoord(y, 0, f.Height-1)*f.Width+clampCoord(x, 0, f.Width-1)]
}

// Clear zeroes every texel.
func (f *Field) Clear() {
	for i := range f.Texels {
		f.Texels[i] = Texel{}
	}
}

// Floats packs the field as interleaved float4 values, the layout of the GPU
// field buffers.
func (f *Field) Floats(dst []float32) []float32 {
	n := len(f.Texels) * Channels
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i, t := range f.Texels {
		o := i * Channels
		dst[o] = t.Pressure
		dst[o+1] = t.Velocity
		dst[o+2] = t.GradX
		dst[o+3] = t.GradY
	}
	return dst
}

// SetFloats unpacks interleaved float4 values produced by Floats.
func (f *Field) SetFloats(src []float32) {
	for i := range f.Texels {
		o := i * Channels
		if o+3 >= len(src) {
			return
		}
		f.Texels[i] = Texel{src[o], src[o+1], src[o+2], src[o+3]}
	}
}

// Quantize rounds every component through binary16, matching what a half
// precision field buffer stores.
func (f *Field) Quantize() {
	for i, t := range f.Texels {
		f.Texels[i] = Texel{
			Pressure: roundHalf(t.Pressure),
			Velocity: roundHalf(t.Velocity),
			GradX:    roundHalf(t.GradX),
			GradY:    roundHalf(t.GradY),
		}
	}
}

// MaxDiff returns the largest absolute component difference between two
// fields of the same size, or +Inf when the sizes differ.
func MaxDiff(a, b *Field) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return math.Inf(1)
	}
	var worst float64
	for i := range a.Texels {
		ta, tb := a.Texels[i], b.Texels[i]
		for _, d := range [...]float32{
			ta.Pressure - tb.Pressure,
			ta.Velocity - tb.Velocity,
			ta.GradX - tb.GradX,
			ta.GradY - tb.GradY,
		} {
			if v := math.Abs(float64(d)); v > worst {
				worst = v
			}
		}
	}
	return worst
}

func roundHalf(v float32) float32 {
	return Float16BitsToFloat32(Float32ToFloat16Bits(v))
}

// clampCoord constrains v to lie within the inclusive [min, max] range.
func clampCoord(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
