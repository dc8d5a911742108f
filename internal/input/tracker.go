package input

import (
	"math"
	"sync"
)

// MoveThreshold is how far, on either axis, a pointer must travel from the
// last accepted position before movement activates forcing.
const MoveThreshold = 1.0

// Tracker is the pointer/touch adapter. Event handlers call its methods from
// any goroutine; every call publishes a fresh Sample.
type Tracker struct {
	mu           sync.Mutex
	x, y         float32
	lastX, lastY float32
	active       bool
	seq          uint64
	width        float32
	height       float32

	out Publisher
}

// NewTracker returns an inactive tracker with unbounded document moves.
func NewTracker() *Tracker {
	return &Tracker{width: float32(math.Inf(1)), height: float32(math.Inf(1))}
}

// SetBounds records the surface size used to filter document-level moves.
func (t *Tracker) SetBounds(width, height int) {
	t.mu.Lock()
	t.width, t.height = float32(width), float32(height)
	t.mu.Unlock()
}

// Move handles pointer movement over the surface. The position always
// updates; forcing turns on only once the pointer leaves the threshold box
// around the last accepted position.
func (t *Tracker) Move(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.moveLocked(x, y)
	t.publishLocked()
}

// DocumentMove handles movement reported outside the surface's own events,
// such as a drag that started elsewhere. Positions beyond the surface are
// ignored.
func (t *Tracker) DocumentMove(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if x < 0 || x > t.width || y < 0 || y > t.height {
		return
	}
	t.moveLocked(x, y)
	t.publishLocked()
}

// TouchStart activates forcing immediately at the touch point.
func (t *Tracker) TouchStart(x, y float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.x, t.y = x, y
	t.lastX, t.lastY = x, y
	t.active = true
	t.publishLocked()
}

// Release ends forcing: button up, touch end, or the pointer leaving.
func (t *Tracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	t.publishLocked()
}

// Snapshot implements Source.
func (t *Tracker) Snapshot() Sample {
	return t.out.Snapshot()
}

func (t *Tracker) moveLocked(x, y float32) {
	t.x, t.y = x, y
	if abs32(x-t.lastX) > MoveThreshold || abs32(y-t.lastY) > MoveThreshold {
		t.active = true
		t.lastX, t.lastY = x, y
	}
}

func (t *Tracker) publishLocked() {
	t.seq++
	t.out.Publish(Sample{X: t.x, Y: t.y, Active: t.active, Seq: t.seq})
}

// ScreenToField converts a top-left-origin screen position into field space
// for a surface whose top-left corner sits at (originX, originY).
func ScreenToField(sx, sy, originX, originY float64, height int) (float32, float32) {
	return float32(sx - originX), float32(float64(height) - (sy - originY))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
