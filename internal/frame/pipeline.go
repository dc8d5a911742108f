package frame

import (
	"fmt"
	"image"

	"ripple/internal/config"
	"ripple/internal/gpu"
	"ripple/internal/input"
)

// pipeline is everything one Driver owns on the device.
type pipeline struct {
	dev      gpu.Device
	programs *gpu.Programs
	pair     *SurfacePair
	texture  gpu.Texture
	imageGen uint64
	target   *image.RGBA
}

func (pl *pipeline) releaseSurfaces() {
	if pl.pair != nil {
		pl.pair.Release()
		pl.pair = nil
	}
	pl.target = nil
}

func (pl *pipeline) release() {
	pl.releaseSurfaces()
	if pl.texture != nil {
		pl.texture.Release()
		pl.texture = nil
	}
	pl.programs.Release()
	pl.programs = nil
}

// simulatePass integrates one step into the frame's write surface.
func simulatePass(pl *pipeline, frame uint64, in input.Sample, cfg config.Config) error {
	read, write := pl.pair.Roles(frame)
	u := gpu.SimulateUniforms{Frame: frame, Input: in, Config: cfg}
	if err := pl.dev.Simulate(pl.programs.Simulate, read, write, u); err != nil {
		return fmt.Errorf("simulate frame %d: %w", frame, err)
	}
	return nil
}

// compositePass shades the surface simulatePass just wrote into the target.
func compositePass(pl *pipeline, frame uint64, cfg config.Config) error {
	_, write := pl.pair.Roles(frame)
	u := gpu.CompositeUniforms{Config: cfg}
	if err := pl.dev.Composite(pl.programs.Composite, write, pl.texture, pl.target, u); err != nil {
		return fmt.Errorf("composite frame %d: %w", frame, err)
	}
	return nil
}
