package tui

import (
	"slices"
	"time"
)

// pianoKeys lays 16 semitones over the bottom two keyboard rows, starting
// on degree 0 (A)
var pianoKeys = []string{"z", "s", "x", "c", "f", "v", "g", "b", "n", "j", "m", "k", ",", "l", ".", "/"}

// keyToDegree converts a keyboard key to a scale degree
func keyToDegree(key string, octave int) (int, bool) {
	i := slices.Index(pianoKeys, key)
	if i < 0 {
		return 0, false
	}
	return octave*12 + i, true
}

// DefaultHoldTimeout covers the initial auto-repeat delay of most terminals
const DefaultHoldTimeout = 500 * time.Millisecond

// KeyTracker turns the press-only key stream of a terminal into press and
// release edges. A key counts as held while its auto-repeat keeps arriving
// and as released once none arrived for the hold timeout.
type KeyTracker struct {
	timeout  time.Duration
	lastSeen map[int]time.Time
}

// NewKeyTracker creates a tracker with the given hold timeout
func NewKeyTracker(timeout time.Duration) *KeyTracker {
	if timeout <= 0 {
		timeout = DefaultHoldTimeout
	}
	return &KeyTracker{
		timeout:  timeout,
		lastSeen: make(map[int]time.Time),
	}
}

// Press records a key press at now and reports whether it is a new press
// rather than an auto-repeat
func (k *KeyTracker) Press(degree int, now time.Time) bool {
	_, held := k.lastSeen[degree]
	k.lastSeen[degree] = now
	return !held
}

// Expire releases every key not seen since now minus the timeout and
// returns their degrees in ascending order
func (k *KeyTracker) Expire(now time.Time) []int {
	var released []int
	for degree, seen := range k.lastSeen {
		if now.Sub(seen) >= k.timeout {
			released = append(released, degree)
			delete(k.lastSeen, degree)
		}
	}
	slices.Sort(released)
	return released
}

// ReleaseAll forgets every held key and returns their degrees
func (k *KeyTracker) ReleaseAll() []int {
	held := k.Held()
	clear(k.lastSeen)
	return held
}

// Held returns the held degrees in ascending order
func (k *KeyTracker) Held() []int {
	held := make([]int, 0, len(k.lastSeen))
	for degree := range k.lastSeen {
		held = append(held, degree)
	}
	slices.Sort(held)
	return held
}
