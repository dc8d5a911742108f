package frame

import (
	"go.uber.org/zap"
)

// Resizer turns a stream of observed surface sizes into at most one pending
// rebuild per tick. The first rebuild initializes and starts the driver.
type Resizer struct {
	driver *Driver
	sched  Scheduler
	images ImageSource
	log    *zap.Logger

	want        Viewport
	applied     Viewport
	handle      Handle
	initialized bool
	err         error
}

// NewResizer returns a Resizer feeding d.
func NewResizer(d *Driver, sched Scheduler, images ImageSource) *Resizer {
	return &Resizer{driver: d, sched: sched, images: images, log: d.log.Named("resize")}
}

// Observe records the latest surface size. Repeated observations before the
// next tick collapse into one rebuild at the last size. After a failure no
// further rebuilds are attempted.
func (r *Resizer) Observe(width, height int) {
	vp := Viewport{width, height}
	r.want = vp
	if r.err != nil || r.handle != 0 || (r.initialized && vp == r.applied) {
		return
	}
	r.handle = r.sched.Schedule(r.apply)
}

func (r *Resizer) apply() {
	r.handle = 0
	vp := r.want
	if !r.initialized {
		if err := r.driver.Initialize(vp, r.images); err != nil {
			r.fail(err)
			return
		}
		r.initialized = true
		r.applied = vp
		if err := r.driver.Start(); err != nil {
			r.fail(err)
		}
		return
	}
	if err := r.driver.Resize(vp.Width, vp.Height); err != nil {
		r.fail(err)
		return
	}
	r.applied = vp
}

func (r *Resizer) fail(err error) {
	r.err = err
	r.log.Error("surface setup failed", zap.Error(err))
}

// Err returns the most recent initialization or resize failure.
func (r *Resizer) Err() error { return r.err }
