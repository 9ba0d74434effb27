// Package synth implements the polyphonic synthesis core
package synth

import (
	"math"
	"math/rand"
)

// Waveform selects the shape produced by Oscillate
type Waveform uint8

const (
	Sine Waveform = iota
	Square
	Triangle
	SawAnalogue  // additive, warm
	SawOptimized // closed-form ramp, harsh
	Noise
)

// sawHarmonics is the number of partials summed by the analogue saw
const sawHarmonics = 9

var waveformNames = [...]string{"sine", "square", "triangle", "saw~", "saw", "noise"}

func (w Waveform) String() string {
	if int(w) < len(waveformNames) {
		return waveformNames[w]
	}
	return "unknown"
}

// LFO frequency-modulates an oscillator. The zero value disables vibrato.
type LFO struct {
	Rate  float64 // Hz
	Depth float64 // scaled by the carrier frequency
}

// angular converts a frequency in Hz to angular velocity
func angular(hz float64) float64 {
	return hz * 2.0 * math.Pi
}

// Oscillate returns the value of waveform w at time t for a carrier of hz,
// in the range -1.0 to 1.0. SawOptimized requires hz != 0.
func Oscillate(hz, t float64, w Waveform, lfo LFO) float64 {
	phase := angular(hz)*t + lfo.Depth*hz*math.Sin(angular(lfo.Rate)*t)

	switch w {
	case Sine:
		return math.Sin(phase)
	case Square:
		if math.Sin(phase) > 0 {
			return 1.0
		}
		return -1.0
	case Triangle:
		return math.Asin(math.Sin(phase)) * (2.0 / math.Pi)
	case SawAnalogue:
		var out float64
		for n := 1.0; n <= sawHarmonics; n++ {
			out += math.Sin(n*phase) / n
		}
		return out * (2.0 / math.Pi)
	case SawOptimized:
		return (2.0 / math.Pi) * (hz*math.Pi*math.Mod(t, 1.0/hz) - math.Pi/2.0)
	case Noise:
		return 2.0*rand.Float64() - 1.0
	default:
		return 0
	}
}
