//go:build opencl

// Package opencl runs the ripple kernels on an OpenCL device.
package opencl

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"go.uber.org/zap"

	"ripple/internal/gpu"
	"ripple/internal/wave"
)

// Options selects and configures the OpenCL device.
type Options struct {
	// DeviceType is "gpu" (default) or "any", which also accepts CPU devices.
	DeviceType string
	// HalfField stores field surfaces as binary16.
	HalfField bool
	Logger    *zap.Logger
}

// Device is an OpenCL context and command queue on one device.
type Device struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	device     *cl.Device
	deviceName string
	precision  gpu.Precision
	log        *zap.Logger

	scratch   []float32
	halfBits  []uint16
	targetBuf *cl.MemObject
	targetLen int
}

type program struct {
	program *cl.Program
	kernel  *cl.Kernel
	name    string
}

func (p *program) Name() string { return p.name }

func (p *program) Release() {
	if p.kernel != nil {
		p.kernel.Release()
		p.kernel = nil
	}
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
}

type surface struct {
	buf           *cl.MemObject
	width, height int
}

func (s *surface) Size() (int, int) { return s.width, s.height }

func (s *surface) Release() {
	if s.buf != nil {
		s.buf.Release()
		s.buf = nil
	}
}

type texture struct {
	buf           *cl.MemObject
	width, height int
}

func (t *texture) Size() (int, int) { return t.width, t.height }

func (t *texture) Release() {
	if t.buf != nil {
		t.buf.Release()
		t.buf = nil
	}
}

// Open selects a device, creates its context and queue, and checks that it
// can store floating-point fields.
func Open(opts Options) (*Device, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	device, err := selectDevice(opts.DeviceType)
	if err != nil {
		return nil, err
	}
	name := device.Name()

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, &gpu.CapabilityError{Device: name, Reason: "creating context", Err: err}
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, &gpu.CapabilityError{Device: name, Reason: "creating command queue", Err: err}
	}
	d := &Device{
		context:    context,
		queue:      queue,
		device:     device,
		deviceName: name,
		log:        log.Named("opencl"),
	}
	if opts.HalfField {
		d.precision = gpu.Float16
	}
	if err := d.probe(); err != nil {
		d.Close()
		return nil, err
	}
	d.log.Info("device selected",
		zap.String("device", name),
		zap.Stringer("precision", d.precision))
	return d, nil
}

func selectDevice(kind string) (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		reason := "querying platforms"
		if strings.Contains(err.Error(), "-1001") {
			reason += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, &gpu.CapabilityError{Reason: reason, Err: err}
	}
	if len(platforms) == 0 {
		return nil, &gpu.CapabilityError{Reason: "no OpenCL platforms available"}
	}
	types := []cl.DeviceType{cl.DeviceTypeGPU}
	if kind == "any" {
		types = append(types, cl.DeviceTypeCPU)
	}
	for _, dt := range types {
		for _, p := range platforms {
			devices, derr := p.GetDevices(dt)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	if kind == "any" {
		return nil, &gpu.CapabilityError{Reason: "no OpenCL devices found"}
	}
	return nil, &gpu.CapabilityError{Reason: "no OpenCL GPU found (use -device any to allow other devices)"}
}

// probe round-trips a float4 holding values outside [0, 1]. Devices that
// clamp or truncate cannot hold a signed field.
func (d *Device) probe() error {
	want := []float32{-2.5, 3.75, 0.125, -0.0625}
	buf, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, len(want)*4)
	if err != nil {
		return &gpu.CapabilityError{Device: d.deviceName, Reason: "allocating probe buffer", Err: err}
	}
	defer buf.Release()
	if _, err := d.queue.EnqueueWriteBufferFloat32(buf, true, 0, want, nil); err != nil {
		return &gpu.CapabilityError{Device: d.deviceName, Reason: "writing probe buffer", Err: err}
	}
	got := make([]float32, len(want))
	if _, err := d.queue.EnqueueReadBufferFloat32(buf, true, 0, got, nil); err != nil {
		return &gpu.CapabilityError{Device: d.deviceName, Reason: "reading probe buffer", Err: err}
	}
	for i := range want {
		if got[i] != want[i] {
			return &gpu.CapabilityError{Device: d.deviceName,
				Reason: fmt.Sprintf("float storage unsupported: wrote %v read %v", want, got)}
		}
	}
	return nil
}

func (d *Device) Name() string { return d.deviceName }

func (d *Device) Precision() gpu.Precision { return d.precision }

// BuildProgram implements gpu.Device.
func (d *Device) BuildProgram(name, source, entry string) (gpu.Program, error) {
	p, err := d.context.CreateProgramWithSource([]string{source})
	if err != nil {
		return nil, &gpu.CompileError{Program: name, Err: err}
	}
	options := ""
	if d.precision == gpu.Float16 {
		options = gpu.HalfFieldOption
	}
	if err := p.BuildProgram([]*cl.Device{d.device}, options); err != nil {
		p.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, &gpu.CompileError{Program: name, Log: string(buildErr), Err: err}
		}
		return nil, &gpu.CompileError{Program: name, Err: err}
	}
	k, err := p.CreateKernel(entry)
	if err != nil {
		p.Release()
		return nil, &gpu.LinkError{Program: name, Entry: entry, Err: err}
	}
	d.log.Debug("program built", zap.String("program", name), zap.String("entry", entry))
	return &program{program: p, kernel: k, name: name}, nil
}

func (d *Device) texelBytes() int {
	if d.precision == gpu.Float16 {
		return wave.Channels * 2
	}
	return wave.Channels * 4
}

// NewSurface implements gpu.Device.
func (d *Device) NewSurface(width, height int) (gpu.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, &gpu.ResourceError{Resource: "surface", Width: width, Height: height, Err: errors.New("empty size")}
	}
	buf, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, width*height*d.texelBytes())
	if err != nil {
		return nil, &gpu.ResourceError{Resource: "surface", Width: width, Height: height, Err: err}
	}
	return &surface{buf: buf, width: width, height: height}, nil
}

// NewTexture implements gpu.Device.
func (d *Device) NewTexture(img *image.NRGBA) (gpu.Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, &gpu.ResourceError{Resource: "texture", Err: errors.New("empty image")}
	}
	pix := img.Pix
	if img.Stride != w*4 {
		pix = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			copy(pix[y*w*4:], img.Pix[y*img.Stride:y*img.Stride+w*4])
		}
	}
	byteLen := w * h * 4
	buf, err := d.context.CreateEmptyBuffer(cl.MemReadOnly, byteLen)
	if err != nil {
		return nil, &gpu.ResourceError{Resource: "texture", Width: w, Height: h, Err: err}
	}
	if _, err := d.queue.EnqueueWriteBuffer(buf, true, 0, byteLen, unsafe.Pointer(&pix[0]), nil); err != nil {
		buf.Release()
		return nil, &gpu.ResourceError{Resource: "texture", Width: w, Height: h, Err: err}
	}
	return &texture{buf: buf, width: w, height: h}, nil
}

// Simulate implements gpu.Device.
func (d *Device) Simulate(p gpu.Program, read, write gpu.Surface, u gpu.SimulateUniforms) error {
	prog, ok := p.(*program)
	if !ok || prog.kernel == nil {
		return errors.New("simulate: invalid program")
	}
	src, ok := read.(*surface)
	if !ok || src.buf == nil {
		return errors.New("simulate: invalid read surface")
	}
	dst, ok := write.(*surface)
	if !ok || dst.buf == nil {
		return errors.New("simulate: invalid write surface")
	}
	frame := int32(1)
	if u.Frame == 0 {
		frame = 0
	}
	active := int32(0)
	if u.Input.Active {
		active = 1
	}
	cfg := u.Config
	if err := prog.kernel.SetArgs(
		int32(dst.width),
		int32(dst.height),
		frame,
		u.Input.X,
		u.Input.Y,
		active,
		cfg.RippleSize,
		cfg.RippleStrength,
		cfg.WaveSpeed,
		cfg.SpringStrength,
		cfg.VelocityDamping,
		cfg.PressureDamping,
		src.buf,
		dst.buf,
	); err != nil {
		return fmt.Errorf("setting simulate arguments: %w", err)
	}
	if _, err := d.queue.EnqueueNDRangeKernel(prog.kernel, nil, []int{dst.width, dst.height}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing simulate: %w", err)
	}
	return nil
}

// Composite implements gpu.Device. The target is read back with a blocking
// read so dst is complete on return.
func (d *Device) Composite(p gpu.Program, field gpu.Surface, tex gpu.Texture, dst *image.RGBA, u gpu.CompositeUniforms) error {
	prog, ok := p.(*program)
	if !ok || prog.kernel == nil {
		return errors.New("composite: invalid program")
	}
	s, ok := field.(*surface)
	if !ok || s.buf == nil {
		return errors.New("composite: invalid field surface")
	}
	t, ok := tex.(*texture)
	if !ok || t.buf == nil {
		return errors.New("composite: invalid texture")
	}
	b := dst.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height || dst.Stride != s.width*4 {
		return fmt.Errorf("composite: target %dx%d does not match field %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	target, err := d.ensureTarget(s.width * s.height * 4)
	if err != nil {
		return err
	}
	cfg := u.Config
	aberration := int32(0)
	if cfg.EnableChromaticAberration {
		aberration = 1
	}
	if err := prog.kernel.SetArgs(
		int32(s.width),
		int32(s.height),
		int32(t.width),
		int32(t.height),
		cfg.DistortionStrength,
		aberration,
		cfg.ChromaticAberrationStrength,
		cfg.ChromaticAberrationDispersal,
		s.buf,
		t.buf,
		target,
	); err != nil {
		return fmt.Errorf("setting composite arguments: %w", err)
	}
	if _, err := d.queue.EnqueueNDRangeKernel(prog.kernel, nil, []int{s.width, s.height}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing composite: %w", err)
	}
	if _, err := d.queue.EnqueueReadBuffer(target, true, 0, d.targetLen, unsafe.Pointer(&dst.Pix[0]), nil); err != nil {
		return fmt.Errorf("reading composite target: %w", err)
	}
	return nil
}

func (d *Device) ensureTarget(byteLen int) (*cl.MemObject, error) {
	if d.targetBuf != nil && d.targetLen == byteLen {
		return d.targetBuf, nil
	}
	if d.targetBuf != nil {
		d.targetBuf.Release()
		d.targetBuf = nil
	}
	buf, err := d.context.CreateEmptyBuffer(cl.MemWriteOnly, byteLen)
	if err != nil {
		return nil, &gpu.ResourceError{Resource: "composite target", Width: byteLen / 4, Height: 1, Err: err}
	}
	d.targetBuf, d.targetLen = buf, byteLen
	return buf, nil
}

// ReadSurface implements gpu.Device.
func (d *Device) ReadSurface(s gpu.Surface, dst *wave.Field) error {
	src, ok := s.(*surface)
	if !ok || src.buf == nil {
		return errors.New("read surface: invalid surface")
	}
	n := src.width * src.height * wave.Channels
	if cap(d.scratch) < n {
		d.scratch = make([]float32, n)
	}
	d.scratch = d.scratch[:n]
	if d.precision == gpu.Float16 {
		if cap(d.halfBits) < n {
			d.halfBits = make([]uint16, n)
		}
		d.halfBits = d.halfBits[:n]
		if _, err := d.queue.EnqueueReadBuffer(src.buf, true, 0, n*2, unsafe.Pointer(&d.halfBits[0]), nil); err != nil {
			return fmt.Errorf("reading surface: %w", err)
		}
		wave.Float16ToFloat32(d.scratch, d.halfBits)
	} else if _, err := d.queue.EnqueueReadBufferFloat32(src.buf, true, 0, d.scratch, nil); err != nil {
		return fmt.Errorf("reading surface: %w", err)
	}
	dst.Width, dst.Height = src.width, src.height
	texels := src.width * src.height
	if cap(dst.Texels) < texels {
		dst.Texels = make([]wave.Texel, texels)
	}
	dst.Texels = dst.Texels[:texels]
	dst.SetFloats(d.scratch)
	return nil
}

// Close releases the queue and context. Programs, surfaces and textures must
// be released by their owners first.
func (d *Device) Close() error {
	if d.targetBuf != nil {
		d.targetBuf.Release()
		d.targetBuf = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.context != nil {
		d.context.Release()
		d.context = nil
	}
	return nil
}
