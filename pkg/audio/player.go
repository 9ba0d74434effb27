// Package audio drives a sample source at a fixed rate for real-time and offline output
package audio

import "math"

// Default output format
const (
	SampleRate = 44100
	BlockSize  = 512 // samples per device buffer
)

// Source produces one sample for a point on the render clock
type Source interface {
	RenderSample(t float64) float64
}

// Player pulls samples from a Source, one per clock tick
type Player struct {
	Source     Source
	SampleRate int

	clock *Clock
}

// NewPlayer creates a player for src at sampleRate
func NewPlayer(src Source, sampleRate int) *Player {
	return &Player{
		Source:     src,
		SampleRate: sampleRate,
		clock:      NewClock(sampleRate),
	}
}

// Clock returns the player's render clock
func (p *Player) Clock() *Clock {
	return p.clock
}

// Now returns the current time on the render clock
func (p *Player) Now() float64 {
	return p.clock.Now()
}

// GenerateSamples renders len(buffer) consecutive samples
func (p *Player) GenerateSamples(buffer []float64) {
	for i := range buffer {
		buffer[i] = p.Source.RenderSample(p.clock.Tick())
	}
}

// toPCM16 clamps a sample to -1.0..1.0 and converts it to signed 16-bit
func toPCM16(sample float64) int16 {
	if math.IsNaN(sample) {
		return 0
	}
	if sample > 1.0 {
		sample = 1.0
	}
	if sample < -1.0 {
		sample = -1.0
	}
	return int16(sample * 32767)
}
