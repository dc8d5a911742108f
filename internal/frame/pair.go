package frame

import "ripple/internal/gpu"

// SurfacePair is the ping-pong field storage. Which slot is read and which
// is written follows from the frame index alone.
type SurfacePair struct {
	slots         [2]gpu.Surface
	width, height int
}

// NewSurfacePair allocates both surfaces or neither.
func NewSurfacePair(dev gpu.Device, width, height int) (*SurfacePair, error) {
	a, err := dev.NewSurface(width, height)
	if err != nil {
		return nil, err
	}
	b, err := dev.NewSurface(width, height)
	if err != nil {
		a.Release()
		return nil, err
	}
	return &SurfacePair{slots: [2]gpu.Surface{a, b}, width: width, height: height}, nil
}

// Size returns the surface size.
func (p *SurfacePair) Size() (int, int) { return p.width, p.height }

// Roles returns the surfaces frame reads and writes: even frames read slot
// A and write slot B, odd frames the reverse.
func (p *SurfacePair) Roles(frame uint64) (read, write gpu.Surface) {
	return p.slots[frame&1], p.slots[(frame+1)&1]
}

// Latest returns the surface holding the newest state after completed
// frames have run; the other slot holds the state one frame older.
func (p *SurfacePair) Latest(completed uint64) gpu.Surface {
	return p.slots[completed&1]
}

// Release frees both surfaces.
func (p *SurfacePair) Release() {
	for i, s := range p.slots {
		if s != nil {
			s.Release()
			p.slots[i] = nil
		}
	}
}
