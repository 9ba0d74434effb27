package synth

import "math"

// Note is one registered voice. Its envelope phase is encoded only by the
// ordering of On and Off: it sounds while On > Off and releases otherwise.
type Note struct {
	Degree  int     // scale degree, unique among registered notes
	On      float64 // last press time in seconds
	Off     float64 // last release time in seconds, -Inf if never released
	Active  bool    // false once the note may be removed
	Channel Channel // instrument that renders this note
}

// NewNote creates a sounding note pressed at t
func NewNote(degree int, t float64, ch Channel) Note {
	return Note{
		Degree:  degree,
		On:      t,
		Off:     math.Inf(-1),
		Active:  true,
		Channel: ch,
	}
}

// Sounding reports whether the key is down
func (n Note) Sounding() bool {
	return n.On > n.Off
}

// Releasing reports whether the note is in its release phase
func (n Note) Releasing() bool {
	return n.Off >= n.On
}

// press re-arms a releasing note at t
func (n *Note) press(t float64) {
	if t <= n.Off {
		t = math.Nextafter(n.Off, math.Inf(1))
	}
	n.On = t
}

// release marks the note released at t
func (n *Note) release(t float64) {
	if t <= n.On {
		t = math.Nextafter(n.On, math.Inf(1))
	}
	n.Off = t
}
