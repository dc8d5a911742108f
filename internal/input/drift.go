package input

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// driftStep is the path parameter advance per frame.
const driftStep = 0.02

// Drift steers a Tracker along a looping path around the surface centre, for
// unattended demos. The path radius eases in from zero over the ramp.
type Drift struct {
	target        *Tracker
	t             float64
	ramp          *gween.Tween
	width, height int
}

// NewDrift returns a Drift feeding target. ramp is the ease-in time in
// seconds; zero starts at full radius.
func NewDrift(target *Tracker, ramp float32) *Drift {
	d := &Drift{target: target}
	if ramp > 0 {
		d.ramp = gween.New(0, 1, ramp, ease.OutCubic)
	}
	return d
}

// SetBounds sets the surface size the path is laid out in.
func (d *Drift) SetBounds(width, height int) {
	d.width, d.height = width, height
}

// Advance moves the scripted pointer one frame along its path and returns the
// new field-space position. dt is the frame time in seconds.
func (d *Drift) Advance(dt float32) (float32, float32) {
	d.t += driftStep
	grow := float32(1)
	if d.ramp != nil {
		grow, _ = d.ramp.Update(dt)
	}
	w, h := float64(d.width), float64(d.height)
	r := math.Min(w, h) * 0.25 * float64(grow)
	sx := w/2 + math.Cos(d.t)*r + math.Sin(d.t*0.7)*r*0.3
	sy := h/2 + math.Sin(d.t*1.3)*r + math.Cos(d.t*0.5)*r*0.3
	x, y := ScreenToField(sx, sy, 0, 0, d.height)
	d.target.Move(x, y)
	return x, y
}
