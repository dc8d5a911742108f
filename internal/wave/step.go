package wave

import (
	"fmt"
	"math"

	"ripple/internal/config"
	"ripple/internal/input"
)

// StepTexel advances one texel of src by a single integration step and applies
// forcing from in. It is the host mirror of the simulate kernel and does not
// handle frame 0.
func StepTexel(src *Field, x, y int, in input.Sample, cfg config.Config) Texel {
	d := cfg.Delta()
	here := src.At(x, y)
	p, v := here.Pressure, here.Velocity

	right := src.Clamped(x+1, y).Pressure
	left := src.Clamped(x-1, y).Pressure
	up := src.Clamped(x, y+1).Pressure
	down := src.Clamped(x, y-1).Pressure

	// Mirror the interior neighbour across each edge.
	if x == 0 {
		left = right
	}
	if x == src.Width-1 {
		right = left
	}
	if y == 0 {
		down = up
	}
	if y == src.Height-1 {
		up = down
	}

	v += d * (-2*p + right + left) / 4
	v += d * (-2*p + up + down) / 4
	p += d * v
	v -= cfg.SpringStrength * d * p
	v *= 1 - cfg.VelocityDamping*d
	p *= cfg.PressureDamping

	p += Forcing(float32(x)+0.5, float32(y)+0.5, in, cfg)

	return Texel{
		Pressure: p,
		Velocity: v,
		GradX:    (right - left) / 2,
		GradY:    (up - down) / 2,
	}
}

// Forcing returns the pressure the input adds at field position (px, py): a
// cone of height RippleStrength falling to zero at RippleSize. A non-positive
// radius disables forcing.
func Forcing(px, py float32, in input.Sample, cfg config.Config) float32 {
	if !in.Active || cfg.RippleSize <= 0 {
		return 0
	}
	dx := float64(px - in.X)
	dy := float64(py - in.Y)
	dist := float32(math.Sqrt(dx*dx + dy*dy))
	if dist > cfg.RippleSize {
		return 0
	}
	return cfg.RippleStrength * (1 - dist/cfg.RippleSize)
}

// StepRows writes rows [y0, y1) of dst from src.
func StepRows(dst, src *Field, y0, y1 int, in input.Sample, cfg config.Config) {
	for y := y0; y < y1; y++ {
		base := y * dst.Width
		for x := 0; x < dst.Width; x++ {
			dst.Texels[base+x] = StepTexel(src, x, y, in, cfg)
		}
	}
}

// Step computes frame of the simulation into dst from src. Frame 0 clears dst
// regardless of src and input.
func Step(dst, src *Field, frame uint64, in input.Sample, cfg config.Config) error {
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("field size mismatch: %dx%d into %dx%d", src.Width, src.Height, dst.Width, dst.Height)
	}
	if frame == 0 {
		dst.Clear()
		return nil
	}
	StepRows(dst, src, 0, dst.Height, in, cfg)
	return nil
}
