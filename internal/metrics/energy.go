package metrics

import (
	"math"

	"github.com/san-kum/femsim/internal/dynamo"
)

// Energy averages the mechanical energy reported by src over all samples.
// The state passed to Observe must be the one installed in src.
type Energy struct {
	name        string
	src         dynamo.EnergyComputer
	samples     int
	totalEnergy float64
}

func NewEnergy(src dynamo.EnergyComputer) *Energy {
	return &Energy{
		name: "energy",
		src:  src,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, t float64) {
	e.totalEnergy += e.src.Energy()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation from the first sample.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	src           dynamo.EnergyComputer
}

func NewEnergyDrift(src dynamo.EnergyComputer) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		src:  src,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy := e.src.Energy()

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

type kineticSource interface {
	KineticEnergy() float64
}

// PeakKinetic is the largest kinetic energy seen.
type PeakKinetic struct {
	src  kineticSource
	peak float64
}

func NewPeakKinetic(src kineticSource) *PeakKinetic {
	return &PeakKinetic{src: src}
}

func (p *PeakKinetic) Name() string { return "peak_kinetic" }

func (p *PeakKinetic) Observe(x dynamo.State, t float64) {
	p.peak = math.Max(p.peak, p.src.KineticEnergy())
}

func (p *PeakKinetic) Value() float64 { return p.peak }
func (p *PeakKinetic) Reset()         { p.peak = 0 }
