package audio

import "sync/atomic"

// Clock counts rendered samples. Its reading is the shared timeline for the
// input and render actors: seconds of audio produced so far.
type Clock struct {
	samples    atomic.Uint64
	sampleRate float64
}

// NewClock creates a clock at zero
func NewClock(sampleRate int) *Clock {
	return &Clock{sampleRate: float64(sampleRate)}
}

// Now returns the current time in seconds
func (c *Clock) Now() float64 {
	return float64(c.samples.Load()) / c.sampleRate
}

// Samples returns the number of samples produced
func (c *Clock) Samples() uint64 {
	return c.samples.Load()
}

// Tick advances the clock by one sample and returns the time of the sample
// just produced
func (c *Clock) Tick() float64 {
	n := c.samples.Add(1) - 1
	return float64(n) / c.sampleRate
}
