// Package input turns pointer and touch activity into the forcing samples the
// wave integrator consumes once per frame.
package input

import "go.uber.org/atomic"

// Sample is one forcing input in field space: origin bottom-left, Y up,
// units of field pixels.
type Sample struct {
	X, Y   float32
	Active bool
	// Seq increases with every published change.
	Seq uint64
}

// Source is anything the frame driver can take a per-frame snapshot from.
type Source interface {
	Snapshot() Sample
}

// Publisher hands complete samples from a writer goroutine to the frame loop.
// Readers always observe a whole sample, never a mix of two updates.
type Publisher struct {
	cur atomic.Pointer[Sample]
}

// Publish replaces the current sample.
func (p *Publisher) Publish(s Sample) {
	p.cur.Store(&s)
}

// Snapshot returns the most recently published sample, or the zero sample.
func (p *Publisher) Snapshot() Sample {
	if s := p.cur.Load(); s != nil {
		return *s
	}
	return Sample{}
}

// Idle is a Source that never forces the field.
type Idle struct{}

// Snapshot implements Source.
func (Idle) Snapshot() Sample { return Sample{} }
