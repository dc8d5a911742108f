package frame

import (
	"fmt"

	"ripple/internal/config"
	"ripple/internal/gpu"
	"ripple/internal/input"
	"ripple/internal/wave"
)

// DefaultVerifyTolerance bounds the per-component difference between device
// and host fields.
const DefaultVerifyTolerance = 1e-3

// verifier reads the field back around each simulate pass and replays the
// step on the host.
type verifier struct {
	tolerance float64
	src       wave.Field
	device    wave.Field
	host      *wave.Field
}

func newVerifier(tolerance float64) *verifier {
	if tolerance <= 0 {
		tolerance = DefaultVerifyTolerance
	}
	return &verifier{tolerance: tolerance}
}

func (v *verifier) before(pl *pipeline, frame uint64) error {
	read, _ := pl.pair.Roles(frame)
	if err := pl.dev.ReadSurface(read, &v.src); err != nil {
		return fmt.Errorf("verify: reading frame %d input: %w", frame, err)
	}
	return nil
}

func (v *verifier) after(pl *pipeline, frame uint64, in input.Sample, cfg config.Config) (float64, error) {
	_, write := pl.pair.Roles(frame)
	if err := pl.dev.ReadSurface(write, &v.device); err != nil {
		return 0, fmt.Errorf("verify: reading frame %d output: %w", frame, err)
	}
	if v.host == nil || v.host.Width != v.src.Width || v.host.Height != v.src.Height {
		v.host = wave.NewField(v.src.Width, v.src.Height)
	}
	if err := wave.Step(v.host, &v.src, frame, in, cfg); err != nil {
		return 0, fmt.Errorf("verify: %w", err)
	}
	if pl.dev.Precision() == gpu.Float16 {
		v.host.Quantize()
	}
	return wave.MaxDiff(&v.device, v.host), nil
}
