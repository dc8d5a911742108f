// Package reference is a host implementation of the gpu.Device contract. It
// runs the same integrator and compositor as the kernels, one band of rows
// per worker goroutine, and is the baseline kernel output is checked against.
package reference

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ripple/internal/gpu"
	"ripple/internal/shade"
	"ripple/internal/wave"
)

var errReleased = errors.New("resource already released")

// Options configures a host device.
type Options struct {
	// Workers is the number of row bands processed concurrently; zero uses
	// GOMAXPROCS.
	Workers int
	// Precision selects binary16 rounding of stored fields.
	Precision gpu.Precision
	// MaxSurfaceTexels caps a single surface allocation; zero is unlimited.
	MaxSurfaceTexels int
	Logger           *zap.Logger
}

// Device is the host device.
type Device struct {
	opts   Options
	log    *zap.Logger
	closed bool

	surfaces, textures, programs int
}

type program struct {
	dev         *Device
	name, entry string
	released    bool
}

func (p *program) Name() string { return p.name }

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.dev.programs--
}

type surface struct {
	dev      *Device
	field    *wave.Field
	released bool
}

func (s *surface) Size() (int, int) { return s.field.Width, s.field.Height }

func (s *surface) Release() {
	if s.released {
		return
	}
	s.released = true
	s.dev.surfaces--
}

type texture struct {
	dev      *Device
	img      *image.NRGBA
	released bool
}

func (t *texture) Size() (int, int) { return t.img.Rect.Dx(), t.img.Rect.Dy() }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.dev.textures--
}

// New returns a host device.
func New(opts Options) *Device {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{opts: opts, log: log.Named("reference")}
}

func (d *Device) Name() string { return "host reference" }

func (d *Device) Precision() gpu.Precision { return d.opts.Precision }

// Live reports the surfaces, textures and programs currently allocated.
func (d *Device) Live() (surfaces, textures, programs int) {
	return d.surfaces, d.textures, d.programs
}

// BuildProgram accepts any source declaring entry as a kernel the host can
// run.
func (d *Device) BuildProgram(name, source, entry string) (gpu.Program, error) {
	if d.closed {
		return nil, errors.New("device closed")
	}
	if strings.TrimSpace(source) == "" {
		return nil, &gpu.CompileError{Program: name, Log: "empty program source"}
	}
	if entry != gpu.SimulateEntry && entry != gpu.CompositeEntry {
		return nil, &gpu.LinkError{Program: name, Entry: entry, Err: errors.New("no host implementation")}
	}
	if !strings.Contains(source, "__kernel void "+entry+"(") {
		return nil, &gpu.LinkError{Program: name, Entry: entry, Err: errors.New("entry not declared")}
	}
	d.programs++
	return &program{dev: d, name: name, entry: entry}, nil
}

// NewSurface allocates a zeroed field.
func (d *Device) NewSurface(width, height int) (gpu.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, &gpu.ResourceError{Resource: "surface", Width: width, Height: height, Err: errors.New("empty size")}
	}
	if d.opts.MaxSurfaceTexels > 0 && width*height > d.opts.MaxSurfaceTexels {
		return nil, &gpu.ResourceError{Resource: "surface", Width: width, Height: height,
			Err: fmt.Errorf("exceeds %d texels", d.opts.MaxSurfaceTexels)}
	}
	d.surfaces++
	return &surface{dev: d, field: wave.NewField(width, height)}, nil
}

// NewTexture copies img into device storage.
func (d *Device) NewTexture(img *image.NRGBA) (gpu.Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, &gpu.ResourceError{Resource: "texture", Err: errors.New("empty image")}
	}
	cp := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		copy(cp.Pix[y*cp.Stride:], src)
	}
	d.textures++
	return &texture{dev: d, img: cp}, nil
}

// Simulate implements gpu.Device.
func (d *Device) Simulate(p gpu.Program, read, write gpu.Surface, u gpu.SimulateUniforms) error {
	if err := checkProgram(p, gpu.SimulateEntry); err != nil {
		return err
	}
	src, err := asSurface(read)
	if err != nil {
		return err
	}
	dst, err := asSurface(write)
	if err != nil {
		return err
	}
	if src == dst {
		return errors.New("simulate: read and write surfaces alias")
	}
	if u.Frame == 0 {
		return wave.Step(dst.field, src.field, 0, u.Input, u.Config)
	}
	if src.field.Width != dst.field.Width || src.field.Height != dst.field.Height {
		return fmt.Errorf("simulate: %dx%d into %dx%d", src.field.Width, src.field.Height, dst.field.Width, dst.field.Height)
	}
	err = d.bands(dst.field.Height, func(y0, y1 int) {
		wave.StepRows(dst.field, src.field, y0, y1, u.Input, u.Config)
	})
	if err != nil {
		return err
	}
	if d.opts.Precision == gpu.Float16 {
		dst.field.Quantize()
	}
	return nil
}

// Composite implements gpu.Device.
func (d *Device) Composite(p gpu.Program, field gpu.Surface, tex gpu.Texture, dst *image.RGBA, u gpu.CompositeUniforms) error {
	if err := checkProgram(p, gpu.CompositeEntry); err != nil {
		return err
	}
	s, err := asSurface(field)
	if err != nil {
		return err
	}
	t, ok := tex.(*texture)
	if !ok || t.released {
		return fmt.Errorf("composite: invalid texture")
	}
	if err := shade.CheckTarget(dst, s.field); err != nil {
		return err
	}
	return d.bands(s.field.Height, func(y0, y1 int) {
		shade.CompositeRows(dst, s.field, t.img, u.Config, y0, y1)
	})
}

// ReadSurface implements gpu.Device.
func (d *Device) ReadSurface(s gpu.Surface, dst *wave.Field) error {
	src, err := asSurface(s)
	if err != nil {
		return err
	}
	n := len(src.field.Texels)
	dst.Width, dst.Height = src.field.Width, src.field.Height
	if cap(dst.Texels) < n {
		dst.Texels = make([]wave.Texel, n)
	}
	dst.Texels = dst.Texels[:n]
	copy(dst.Texels, src.field.Texels)
	return nil
}

// Close implements gpu.Device.
func (d *Device) Close() error {
	d.closed = true
	return nil
}

// bands splits [0, height) into one contiguous band per worker.
func (d *Device) bands(height int, fn func(y0, y1 int)) error {
	workers := d.opts.Workers
	if workers > height {
		workers = height
	}
	if workers < 1 {
		return nil
	}
	size := (height + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < height; y0 += size {
		y1 := y0 + size
		if y1 > height {
			y1 = height
		}
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	return g.Wait()
}

func checkProgram(p gpu.Program, entry string) error {
	cp, ok := p.(*program)
	if !ok {
		return fmt.Errorf("%s: foreign program", entry)
	}
	if cp.released {
		return fmt.Errorf("%s: %w", entry, errReleased)
	}
	if cp.entry != entry {
		return fmt.Errorf("%s: program %q has entry %q", entry, cp.name, cp.entry)
	}
	return nil
}

func asSurface(s gpu.Surface) (*surface, error) {
	rs, ok := s.(*surface)
	if !ok {
		return nil, errors.New("foreign surface")
	}
	if rs.released {
		return nil, errReleased
	}
	return rs, nil
}
