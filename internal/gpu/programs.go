package gpu

import "go.uber.org/zap"

// Programs holds the two built stages of the ripple pipeline.
type Programs struct {
	Simulate  Program
	Composite Program
}

// BuildPrograms compiles the simulation and composite programs on dev. On
// failure nothing stays allocated.
func BuildPrograms(dev Device, log *zap.Logger) (*Programs, error) {
	sim, err := dev.BuildProgram("simulation", SharedStage+SimulationStage, SimulateEntry)
	if err != nil {
		return nil, err
	}
	comp, err := dev.BuildProgram("composite", SharedStage+CompositeStage, CompositeEntry)
	if err != nil {
		sim.Release()
		return nil, err
	}
	if log != nil {
		log.Info("programs built",
			zap.String("device", dev.Name()),
			zap.Stringer("precision", dev.Precision()))
	}
	return &Programs{Simulate: sim, Composite: comp}, nil
}

// Release frees both programs. It is safe on a nil receiver.
func (p *Programs) Release() {
	if p == nil {
		return
	}
	if p.Composite != nil {
		p.Composite.Release()
		p.Composite = nil
	}
	if p.Simulate != nil {
		p.Simulate.Release()
		p.Simulate = nil
	}
}
