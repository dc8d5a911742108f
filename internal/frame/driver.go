// Package frame drives the ripple pipeline: one simulate and one composite
// pass per display refresh over a ping-pong pair of field surfaces, with
// resize handling and lifecycle control.
package frame

import (
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"ripple/internal/config"
	"ripple/internal/gpu"
	"ripple/internal/input"
	"ripple/internal/metrics"
)

// Viewport is a drawing surface size in device pixels.
type Viewport struct {
	Width, Height int
}

// Degenerate reports whether nothing can be drawn at this size.
func (v Viewport) Degenerate() bool { return v.Width <= 0 || v.Height <= 0 }

// ImageSource supplies the source image. The generation changes whenever a
// new image should be uploaded; generation 0 is the placeholder.
type ImageSource interface {
	Latest() (*image.NRGBA, uint64)
}

// Options configures a Driver.
type Options struct {
	Device    gpu.Device
	Scheduler Scheduler
	Input     input.Source
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Collector

	// Verify compares every device step with the host integrator.
	Verify          bool
	VerifyTolerance float64
}

// ErrNotInitialized is returned by lifecycle calls made before Initialize.
var ErrNotInitialized = errors.New("driver not initialized")

// Driver owns one ripple pipeline. All methods must be called from the
// goroutine that runs the Scheduler.
type Driver struct {
	dev    gpu.Device
	sched  Scheduler
	input  input.Source
	cfg    config.Config
	log    *zap.Logger
	met    *metrics.Collector
	verify *verifier

	pl     *pipeline
	images ImageSource
	size   Viewport
	frame  uint64
	handle Handle
	err    error

	running *atomic.Bool
	stepped *atomic.Uint64
}

// New returns an Idle driver.
func New(opts Options) (*Driver, error) {
	if opts.Device == nil {
		return nil, errors.New("frame: no device")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("frame: no scheduler")
	}
	if opts.Input == nil {
		opts.Input = input.Idle{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	d := &Driver{
		dev:     opts.Device,
		sched:   opts.Scheduler,
		input:   opts.Input,
		cfg:     opts.Config,
		log:     log.Named("frame"),
		met:     opts.Metrics,
		running: atomic.NewBool(false),
		stepped: atomic.NewUint64(0),
	}
	if opts.Verify {
		d.verify = newVerifier(opts.VerifyTolerance)
	}
	return d, nil
}

// Initialize builds the programs, the surface pair and target for vp, and
// the texture for the current image. On error nothing is left allocated and
// the driver stays Idle.
func (d *Driver) Initialize(vp Viewport, images ImageSource) error {
	if d.pl != nil {
		return errors.New("frame: already initialized")
	}
	programs, err := gpu.BuildPrograms(d.dev, d.log)
	if err != nil {
		return err
	}
	pl := &pipeline{dev: d.dev, programs: programs}
	img, gen := images.Latest()
	tex, err := d.dev.NewTexture(img)
	if err != nil {
		pl.release()
		return err
	}
	pl.texture, pl.imageGen = tex, gen
	d.met.ObserveUpload()

	if !vp.Degenerate() {
		if err := d.allocate(pl, vp); err != nil {
			pl.release()
			return err
		}
	}
	d.pl = pl
	d.images = images
	d.size = vp
	d.frame = 0
	d.err = nil
	d.log.Info("driver initialized",
		zap.String("device", d.dev.Name()),
		zap.Int("width", vp.Width),
		zap.Int("height", vp.Height),
		zap.Uint64("image_generation", gen))
	return nil
}

func (d *Driver) allocate(pl *pipeline, vp Viewport) error {
	pair, err := NewSurfacePair(d.dev, vp.Width, vp.Height)
	if err != nil {
		return err
	}
	pl.pair = pair
	pl.target = image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	return nil
}

// Start enters Running and schedules the next step. Starting a running
// driver does nothing.
func (d *Driver) Start() error {
	if d.pl == nil {
		return ErrNotInitialized
	}
	if d.running.Load() {
		return nil
	}
	d.running.Store(true)
	d.scheduleNext()
	return nil
}

// Stop cancels the pending step and enters Idle. It is safe to call at any
// time, any number of times.
func (d *Driver) Stop() {
	d.cancel()
	d.running.Store(false)
}

func (d *Driver) cancel() {
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
		d.handle = 0
	}
}

func (d *Driver) scheduleNext() {
	if d.handle != 0 || d.pl == nil || d.pl.pair == nil {
		return
	}
	d.handle = d.sched.Schedule(d.step)
}

// Resize rebuilds the surfaces for a new viewport, discarding the field. The
// next frame is the quiescent frame 0; a running driver steps immediately.
// A degenerate size releases the surfaces and pauses stepping until a usable
// size arrives.
func (d *Driver) Resize(width, height int) error {
	if d.pl == nil {
		return ErrNotInitialized
	}
	vp := Viewport{width, height}
	if vp == d.size {
		return nil
	}
	d.cancel()
	d.pl.releaseSurfaces()
	d.frame = 0
	d.size = vp
	if vp.Degenerate() {
		d.log.Debug("viewport degenerate, surfaces released",
			zap.Int("width", width), zap.Int("height", height))
		return nil
	}
	if err := d.allocate(d.pl, vp); err != nil {
		d.size = Viewport{}
		d.met.ObserveResize(width, height, err)
		return fmt.Errorf("resizing to %dx%d: %w", width, height, err)
	}
	d.met.ObserveResize(width, height, nil)
	d.log.Info("surfaces rebuilt", zap.Int("width", width), zap.Int("height", height))
	if d.running.Load() {
		d.step()
	}
	return nil
}

// Close stops the loop and releases every device resource. The device itself
// belongs to the caller.
func (d *Driver) Close() {
	d.Stop()
	if d.pl != nil {
		d.pl.release()
		d.pl = nil
	}
}

func (d *Driver) step() {
	d.handle = 0
	if d.pl == nil || d.pl.pair == nil {
		return
	}
	if err := d.runFrame(); err != nil {
		d.err = err
		d.Stop()
		d.log.Error("frame loop stopped", zap.Error(err))
		return
	}
	if d.running.Load() {
		d.scheduleNext()
	}
}

func (d *Driver) runFrame() error {
	start := time.Now()
	if err := d.refreshTexture(); err != nil {
		return err
	}
	in := d.input.Snapshot()
	frame := d.frame
	if d.verify != nil {
		if err := d.verify.before(d.pl, frame); err != nil {
			return err
		}
	}
	if err := simulatePass(d.pl, frame, in, d.cfg); err != nil {
		return err
	}
	if d.verify != nil {
		diff, err := d.verify.after(d.pl, frame, in, d.cfg)
		if err != nil {
			return err
		}
		if diff > d.verify.tolerance {
			d.met.ObserveMismatch()
			d.log.Warn("device field diverged from host step",
				zap.Uint64("frame", frame),
				zap.Float64("max_diff", diff),
				zap.Float64("tolerance", d.verify.tolerance))
		}
	}
	if err := compositePass(d.pl, frame, d.cfg); err != nil {
		return err
	}
	d.frame++
	d.stepped.Inc()
	d.met.ObserveFrame(time.Since(start), in.Active)
	return nil
}

func (d *Driver) refreshTexture() error {
	img, gen := d.images.Latest()
	if gen == d.pl.imageGen {
		return nil
	}
	tex, err := d.dev.NewTexture(img)
	if err != nil {
		return err
	}
	d.pl.texture.Release()
	d.pl.texture, d.pl.imageGen = tex, gen
	d.met.ObserveUpload()
	b := img.Bounds()
	d.log.Info("texture uploaded",
		zap.Uint64("image_generation", gen),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))
	return nil
}

// Err returns the error that stopped the loop, if any.
func (d *Driver) Err() error { return d.err }

// Running reports whether the driver is in the Running state.
func (d *Driver) Running() bool { return d.running.Load() }

// Frame returns the index of the next frame to run.
func (d *Driver) Frame() uint64 { return d.frame }

// Size returns the current viewport.
func (d *Driver) Size() Viewport { return d.size }

// Target returns the composited image of the last frame, or nil when no
// surfaces exist. Its contents change on every step.
func (d *Driver) Target() *image.RGBA {
	if d.pl == nil {
		return nil
	}
	return d.pl.target
}

// Stats is a snapshot for diagnostics.
type Stats struct {
	Device          string
	Precision       gpu.Precision
	Frame           uint64
	Stepped         uint64
	Size            Viewport
	ImageGeneration uint64
	Running         bool
}

// Stats returns the current diagnostics snapshot.
func (d *Driver) Stats() Stats {
	s := Stats{
		Device:    d.dev.Name(),
		Precision: d.dev.Precision(),
		Frame:     d.frame,
		Stepped:   d.stepped.Load(),
		Size:      d.size,
		Running:   d.running.Load(),
	}
	if d.pl != nil {
		s.ImageGeneration = d.pl.imageGen
	}
	return s
}
