package synth

// Silence is the amplitude at or below which an envelope reports exactly 0
const Silence = 0.0001

// Envelope describes one ADSR contour. Times are in seconds, levels 0.0-1.0.
// It carries no per-note state: the phase is derived from the note's
// trigger timestamps on every call.
type Envelope struct {
	Attack  float64
	Decay   float64
	Release float64
	Sustain float64 // level held after decay
	Start   float64 // level reached at the end of attack
}

// Amplitude returns the envelope level at time t for a note pressed at on
// and released at off. The note is sounding while on > off.
func (e Envelope) Amplitude(t, on, off float64) float64 {
	var amp float64
	switch {
	case on > off:
		amp = e.held(t - on)
	case t < off:
		// released after t, so the key was still down at t
		amp = e.held(t - on)
	default:
		level := e.held(off - on)
		amp = level * (1.0 - ramp(t-off, e.Release))
	}

	if amp <= Silence {
		return 0
	}
	return amp
}

// held is the attack/decay/sustain level after life seconds of key down
func (e Envelope) held(life float64) float64 {
	switch {
	case life <= e.Attack:
		return ramp(life, e.Attack) * e.Start
	case life <= e.Attack+e.Decay:
		return ramp(life-e.Attack, e.Decay)*(e.Sustain-e.Start) + e.Start
	default:
		return e.Sustain
	}
}

// ramp maps elapsed onto 0.0-1.0 over span seconds. A zero span is a step.
func ramp(elapsed, span float64) float64 {
	if span <= 0 {
		if elapsed < 0 {
			return 0
		}
		return 1
	}
	r := elapsed / span
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
