package metrics

import (
	"math"

	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/fem"
)

// MinHeight is the lowest node y seen, read straight from the state vector.
type MinHeight struct {
	min  float64
	seen bool
}

func NewMinHeight() *MinHeight { return &MinHeight{} }

func (m *MinHeight) Name() string { return "min_height" }

func (m *MinHeight) Observe(x dynamo.State, t float64) {
	for i := 1; i < len(x); i += fem.NodeStateDim {
		if !m.seen || x[i] < m.min {
			m.min = x[i]
			m.seen = true
		}
	}
}

func (m *MinHeight) Value() float64 { return m.min }

func (m *MinHeight) Reset() {
	m.min = 0
	m.seen = false
}

// MaxSpeed is the largest node speed seen.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(x dynamo.State, t float64) {
	for i := 0; i+fem.NodeStateDim <= len(x); i += fem.NodeStateDim {
		vx, vy, vz := x[i+3], x[i+4], x[i+5]
		m.max = math.Max(m.max, math.Sqrt(vx*vx+vy*vy+vz*vz))
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

type contactSource interface {
	Contacts() int
}

// PeakContacts is the largest number of surface nodes in contact at once.
type PeakContacts struct {
	src  contactSource
	peak int
}

func NewPeakContacts(src contactSource) *PeakContacts {
	return &PeakContacts{src: src}
}

func (p *PeakContacts) Name() string { return "peak_contacts" }

func (p *PeakContacts) Observe(x dynamo.State, t float64) {
	if n := p.src.Contacts(); n > p.peak {
		p.peak = n
	}
}

func (p *PeakContacts) Value() float64 { return float64(p.peak) }
func (p *PeakContacts) Reset()         { p.peak = 0 }
