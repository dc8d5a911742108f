// Package gpu defines the device contract the frame driver renders through:
// programs, field surfaces, image textures and the two kernel dispatches.
package gpu

import (
	"image"

	"ripple/internal/config"
	"ripple/internal/input"
	"ripple/internal/wave"
)

// Precision is the storage format of field surfaces.
type Precision int

const (
	// Float32 stores four float32 channels per texel.
	Float32 Precision = iota
	// Float16 stores four binary16 channels per texel and computes in float32.
	Float16
)

func (p Precision) String() string {
	if p == Float16 {
		return "float16"
	}
	return "float32"
}

// Program is a built kernel ready for dispatch.
type Program interface {
	Name() string
	Release()
}

// Surface is a device-resident field buffer.
type Surface interface {
	Size() (width, height int)
	Release()
}

// Texture is a device-resident copy of the source image.
type Texture interface {
	Size() (width, height int)
	Release()
}

// SimulateUniforms are the per-dispatch inputs of the simulate kernel.
type SimulateUniforms struct {
	Frame  uint64
	Input  input.Sample
	Config config.Config
}

// CompositeUniforms are the per-dispatch inputs of the composite kernel.
type CompositeUniforms struct {
	Config config.Config
}

// Device runs the ripple kernels. Calls are issued from one goroutine and
// execute in program order.
type Device interface {
	Name() string
	Precision() Precision

	// BuildProgram compiles source and resolves entry. Failures are
	// *CompileError or *LinkError.
	BuildProgram(name, source, entry string) (Program, error)
	// NewSurface allocates a field surface; failure is a *ResourceError.
	NewSurface(width, height int) (Surface, error)
	// NewTexture uploads img; failure is a *ResourceError.
	NewTexture(img *image.NRGBA) (Texture, error)

	// Simulate writes one integration step from read into write.
	Simulate(p Program, read, write Surface, u SimulateUniforms) error
	// Composite shades field over tex into dst, which must match the field size.
	Composite(p Program, field Surface, tex Texture, dst *image.RGBA, u CompositeUniforms) error
	// ReadSurface copies a surface back to the host.
	ReadSurface(s Surface, dst *wave.Field) error

	Close() error
}
