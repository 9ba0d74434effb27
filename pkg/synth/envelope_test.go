package synth

import (
	"math"
	"testing"
)

var never = math.Inf(-1)

func TestEnvelopeAttackStartsAtZero(t *testing.T) {
	envs := []Envelope{
		Piano(DefaultTuning).Envelope,
		Bell(DefaultTuning).Envelope,
		Harmonica(DefaultTuning).Envelope,
		{Attack: 0.5, Decay: 0.5, Sustain: 0.3, Start: 0.9, Release: 1},
	}
	for _, e := range envs {
		for _, on := range []float64{0, 1.5, 100} {
			assert(t, e.Amplitude(on, on, on-1), 0.0)
			assert(t, e.Amplitude(on, on, never), 0.0)
		}
	}
}

func TestEnvelopePhases(t *testing.T) {
	e := Envelope{Attack: 0.1, Decay: 0.01, Sustain: 0.8, Start: 1.0, Release: 0.5}

	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"mid attack", 0.05, 0.5},
		{"end of attack", 0.1, 1.0},
		{"mid decay", 0.105, 0.9},
		{"sustain", 0.2, 0.8},
		{"long sustain", 60, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNear(t, e.Amplitude(tt.t, 0, never), tt.want, 1e-9)
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	e := Envelope{Attack: 0.1, Decay: 0.01, Sustain: 0.8, Start: 1.0, Release: 0.2}

	for _, off := range []float64{5, never} {
		mid := e.Amplitude(0.05, 0, off)
		if mid <= 0 || mid >= e.Start {
			t.Fatalf("off=%v: mid-attack amplitude %v not in (0, %v)", off, mid, e.Start)
		}
		assert(t, e.Amplitude(0.2, 0, off), 0.8)
	}

	// release starts from the sustain level reached at off
	assert(t, e.Amplitude(5, 0, 5), 0.8)
	assertNear(t, e.Amplitude(5.1, 0, 5), 0.4, 1e-9)
}

func TestEnvelopeContinuity(t *testing.T) {
	envs := []Envelope{
		{Attack: 0.1, Decay: 0.01, Sustain: 0.8, Start: 1.0},
		{Attack: 0.01, Decay: 1, Sustain: 0, Start: 1.0},
		{Attack: 0.3, Decay: 0.2, Sustain: 0.9, Start: 0.2},
	}
	const h = 1e-9
	for _, e := range envs {
		for _, edge := range []float64{e.Attack, e.Attack + e.Decay} {
			before := e.Amplitude(edge-h, 0, never)
			after := e.Amplitude(edge+h, 0, never)
			assertNear(t, before, after, 1e-6)
		}
	}
}

func TestEnvelopeRelease(t *testing.T) {
	e := Envelope{Attack: 0.1, Decay: 0.1, Sustain: 0.8, Start: 1.0, Release: 0.4}

	t.Run("from sustain", func(t *testing.T) {
		assertNear(t, e.Amplitude(1.0, 0, 1.0), 0.8, 1e-12)
		assertNear(t, e.Amplitude(1.1, 0, 1.0), 0.6, 1e-9)
		assertNear(t, e.Amplitude(1.2, 0, 1.0), 0.4, 1e-9)
		assert(t, e.Amplitude(1.4, 0, 1.0), 0.0)
		assert(t, e.Amplitude(9, 0, 1.0), 0.0)
	})
	t.Run("from mid attack", func(t *testing.T) {
		// released half way up the attack ramp
		assertNear(t, e.Amplitude(0.05, 0, 0.05), 0.5, 1e-12)
		assertNear(t, e.Amplitude(0.25, 0, 0.05), 0.25, 1e-9)
	})
	t.Run("from mid decay", func(t *testing.T) {
		assertNear(t, e.Amplitude(0.15, 0, 0.15), 0.9, 1e-9)
	})
	t.Run("never rises above release level", func(t *testing.T) {
		for tm := 1.0; tm < 2; tm += 0.01 {
			if a := e.Amplitude(tm, 0, 1.0); a > 0.8+1e-12 {
				t.Fatalf("amplitude %v at %v above release level", a, tm)
			}
		}
	})
}

func TestEnvelopeClampsToSilence(t *testing.T) {
	e := Envelope{Attack: 1, Decay: 1, Sustain: 0.5, Start: 1, Release: 1}

	// Silence/2 into the attack is below the threshold
	assert(t, e.Amplitude(Silence/2, 0, never), 0.0)
	// before the note was pressed
	assert(t, e.Amplitude(-1, 0, never), 0.0)
	// release ramp just before reaching zero
	assert(t, e.Amplitude(10-Silence, 0, 9), 0.0)

	if a := e.Amplitude(2*Silence, 0, never); a <= 0 {
		t.Fatalf("amplitude %v should be above silence", a)
	}
}

func TestEnvelopeZeroDurations(t *testing.T) {
	e := Envelope{Sustain: 0.7, Start: 1}

	assert(t, e.Amplitude(0, 0, never), 1.0)
	assert(t, e.Amplitude(0.001, 0, never), 0.7)
	assert(t, e.Amplitude(0.999, 0, 1), 0.7)
	assert(t, e.Amplitude(1, 0, 1), 0.0)
}
