package sim

// Accumulator converts variable wall-clock frame times into a whole number
// of fixed simulation steps. Time that does not fill a step is carried to
// the next call.
type Accumulator struct {
	dt       float64
	pending  float64
	maxSteps int
	dropped  float64
}

func NewAccumulator(dt float64) *Accumulator {
	return &Accumulator{dt: dt}
}

// SetMaxSteps caps the steps returned by one Advance; time beyond the cap
// is discarded and reported by Dropped. Zero disables the cap.
func (a *Accumulator) SetMaxSteps(n int) {
	if n < 0 {
		n = 0
	}
	a.maxSteps = n
}

// Advance adds elapsed seconds and returns the number of whole steps due.
// Negative or NaN input counts as no time passing.
func (a *Accumulator) Advance(elapsed float64) int {
	if !(elapsed > 0) || !(a.dt > 0) {
		return 0
	}
	a.pending += elapsed

	n := int(a.pending / a.dt)
	a.pending -= float64(n) * a.dt

	if a.maxSteps > 0 && n > a.maxSteps {
		a.dropped += float64(n-a.maxSteps) * a.dt
		n = a.maxSteps
	}
	return n
}

func (a *Accumulator) Dt() float64        { return a.dt }
func (a *Accumulator) Remainder() float64 { return a.pending }
func (a *Accumulator) Dropped() float64   { return a.dropped }

func (a *Accumulator) Reset() {
	a.pending = 0
	a.dropped = 0
}
