package wave

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/config"
	"ripple/internal/input"
)

func randomField(w, h int, seed int64) *Field {
	r := rand.New(rand.NewSource(seed))
	f := NewField(w, h)
	for i := range f.Texels {
		f.Texels[i] = Texel{r.Float32()*2 - 1, r.Float32()*2 - 1, r.Float32(), r.Float32()}
	}
	return f
}

func TestStepFrameZeroClears(t *testing.T) {
	src := randomField(17, 9, 1)
	dst := randomField(17, 9, 2)
	in := input.Sample{X: 8, Y: 4, Active: true}

	require.NoError(t, Step(dst, src, 0, in, config.Default()))
	for i, tx := range dst.Texels {
		require.Equal(t, Texel{}, tx, "texel %d", i)
	}
}

func TestStepSizeMismatch(t *testing.T) {
	err := Step(NewField(4, 4), NewField(4, 5), 1, input.Sample{}, config.Default())
	assert.Error(t, err)
}

func TestStepBoundaryDoesNotWrap(t *testing.T) {
	const w, h = 16, 8
	src := NewField(w, h)
	for y := 0; y < h; y++ {
		src.Set(0, y, Texel{Pressure: 1})
	}
	dst := NewField(w, h)
	require.NoError(t, Step(dst, src, 1, input.Sample{}, config.Default()))

	for y := 0; y < h; y++ {
		assert.Zero(t, dst.At(w-1, y).Pressure, "right edge row %d", y)
		assert.Zero(t, dst.At(w-1, y).Velocity, "right edge row %d", y)
		assert.NotZero(t, dst.At(1, y).Pressure, "neighbour of the disturbed column row %d", y)
	}
}

func TestStepBoundaryMirrorsNeighbour(t *testing.T) {
	src := NewField(3, 1)
	src.Set(1, 0, Texel{Pressure: 1})
	dst := NewField(3, 1)
	require.NoError(t, Step(dst, src, 1, input.Sample{}, config.Default()))

	// Both edges see the middle texel on both sides, so they move alike.
	assert.Equal(t, dst.At(0, 0), dst.At(2, 0))
	assert.Greater(t, dst.At(0, 0).Pressure, float32(0))
	assert.Zero(t, dst.At(0, 0).GradX)
}

func TestStepClampsWaveSpeed(t *testing.T) {
	src := randomField(12, 12, 3)
	in := input.Sample{X: 6, Y: 6, Active: true}

	fast := config.Default()
	fast.WaveSpeed = 5
	a, b := NewField(12, 12), NewField(12, 12)
	require.NoError(t, Step(a, src, 7, in, fast))
	require.NoError(t, Step(b, src, 7, in, config.Default()))
	assert.Equal(t, b.Texels, a.Texels)
}

func TestForcingFalloff(t *testing.T) {
	cfg := config.Default()
	in := input.Sample{X: 50, Y: 50, Active: true}

	assert.InDelta(t, cfg.RippleStrength, Forcing(50, 50, in, cfg), 1e-6)
	assert.InDelta(t, 0, Forcing(50+cfg.RippleSize, 50, in, cfg), 1e-6)
	assert.Zero(t, Forcing(50+cfg.RippleSize+0.5, 50, in, cfg))

	prev := Forcing(50, 50, in, cfg)
	for d := float32(1); d <= cfg.RippleSize; d++ {
		cur := Forcing(50, 50+d, in, cfg)
		assert.Less(t, cur, prev, "distance %v", d)
		prev = cur
	}
}

func TestForcingDisabled(t *testing.T) {
	cfg := config.Default()
	assert.Zero(t, Forcing(1, 1, input.Sample{X: 1, Y: 1}, cfg), "inactive input")

	cfg.RippleSize = 0
	assert.Zero(t, Forcing(1, 1, input.Sample{X: 1, Y: 1, Active: true}, cfg), "zero radius")
}

// energy is a discrete energy of the damped scheme: kinetic, spring, and
// neighbour coupling terms.
func energy(f *Field) float64 {
	var e float64
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			tx := f.At(x, y)
			p := float64(tx.Pressure)
			v := float64(tx.Velocity)
			e += v*v + 0.005*p*p
			if x+1 < f.Width {
				d := float64(f.At(x+1, y).Pressure) - p
				e += d * d / 4
			}
			if y+1 < f.Height {
				d := float64(f.At(x, y+1).Pressure) - p
				e += d * d / 4
			}
		}
	}
	return e
}

type sim struct {
	pair  [2]*Field
	frame uint64
	cfg   config.Config
}

func newSim(w, h int) *sim {
	return &sim{pair: [2]*Field{NewField(w, h), NewField(w, h)}, cfg: config.Default()}
}

func (s *sim) step(t *testing.T, in input.Sample) *Field {
	read, write := s.pair[s.frame&1], s.pair[(s.frame+1)&1]
	require.NoError(t, Step(write, read, s.frame, in, s.cfg))
	s.frame++
	return write
}

func TestPressedPointerScenario(t *testing.T) {
	const size = 256
	s := newSim(size, size)
	press := input.Sample{X: 128, Y: 128, Active: true}

	var f *Field
	for i := 0; i < 6; i++ {
		f = s.step(t, press)
	}

	// Mirror symmetry about the input point, up to summation order.
	for y := 0; y < size; y++ {
		for x := 0; x < size/2; x++ {
			a, b := f.At(x, y), f.At(size-1-x, y)
			require.InDelta(t, a.Pressure, b.Pressure, 1e-4, "x mirror at %d,%d", x, y)
			require.InDelta(t, a.GradX, -b.GradX, 1e-4, "x mirror grad at %d,%d", x, y)
			c := f.At(y, x)
			d := f.At(y, size-1-x)
			require.InDelta(t, c.Pressure, d.Pressure, 1e-4, "y mirror at %d,%d", y, x)
		}
	}

	// The bump stays near the forcing radius: one texel of spread per frame.
	limit := float64(s.cfg.RippleSize) + float64(s.frame) + 1
	var peak float32
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := f.At(x, y).Pressure
			if p > peak {
				peak = p
			}
			if p == 0 {
				continue
			}
			dist := math.Hypot(float64(x)+0.5-128, float64(y)+0.5-128)
			require.LessOrEqual(t, dist, limit, "pressure %v at %d,%d", p, x, y)
		}
	}
	assert.Greater(t, peak, float32(1))

	// After release the energy decays across 20-frame checkpoints.
	released := input.Sample{X: 128, Y: 128}
	for i := 0; i < 20; i++ {
		f = s.step(t, released)
	}
	last := energy(f)
	for checkpoint := 2; checkpoint <= 12; checkpoint++ {
		for i := 0; i < 20; i++ {
			f = s.step(t, released)
		}
		e := energy(f)
		assert.Less(t, e, last, "checkpoint %d", checkpoint)
		last = e
	}
}

func TestQuantizeMatchesHalfStorage(t *testing.T) {
	f := NewField(2, 1)
	f.Set(0, 0, Texel{Pressure: 1, Velocity: -2.5, GradX: 0.5, GradY: 65504})
	f.Set(1, 0, Texel{Pressure: 0.1, Velocity: 1e6})
	f.Quantize()

	assert.Equal(t, Texel{Pressure: 1, Velocity: -2.5, GradX: 0.5, GradY: 65504}, f.At(0, 0))
	assert.InDelta(t, 0.1, f.At(1, 0).Pressure, 1e-4)
	assert.True(t, math.IsInf(float64(f.At(1, 0).Velocity), 1))
}

func TestFloatsLayout(t *testing.T) {
	f := NewField(2, 1)
	f.Set(1, 0, Texel{1, 2, 3, 4})
	got := f.Floats(nil)
	assert.Equal(t, []float32{0, 0, 0, 0, 1, 2, 3, 4}, got)

	g := NewField(2, 1)
	g.SetFloats(got)
	assert.Zero(t, MaxDiff(f, g))
	assert.True(t, math.IsInf(MaxDiff(f, NewField(1, 1)), 1))
}
