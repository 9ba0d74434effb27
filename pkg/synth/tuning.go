package synth

import "math"

// Tuning maps scale degrees onto frequencies using twelve-tone equal
// temperament. It is immutable once built.
type Tuning struct {
	Base float64 // frequency of degree 0 in Hz
}

// DefaultTuning puts degree 0 on A2 (110 Hz)
var DefaultTuning = Tuning{Base: 110.0}

// Frequency converts a scale degree to Hz. Negative degrees go below Base.
func (tu Tuning) Frequency(degree int) float64 {
	return tu.Base * math.Pow(2.0, float64(degree)/12.0)
}
