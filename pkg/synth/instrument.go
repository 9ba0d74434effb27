package synth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownChannel is returned for a channel with no instrument
var ErrUnknownChannel = errors.New("unknown instrument channel")

// Instrument renders a note into a sample. Implementations are read-only and
// may render any number of notes concurrently.
type Instrument interface {
	// Render returns the note's sample at t and whether its envelope has
	// decayed to silence.
	Render(t float64, n Note) (sample float64, finished bool)
	Name() string
}

// Partial is one weighted oscillator component of a recipe
type Partial struct {
	Ratio  float64 // multiple of the note frequency
	Weight float64
	Wave   Waveform
	LFO    LFO
}

// Recipe is an Instrument built from an envelope and a sum of partials.
// One recipe is shared by every note on its channel, so its partials can
// only be set through NewRecipe.
type Recipe struct {
	Label    string
	Envelope Envelope
	Tuning   Tuning

	partials []Partial
}

// NewRecipe creates a recipe from a copy of partials
func NewRecipe(label string, env Envelope, tu Tuning, partials ...Partial) *Recipe {
	return &Recipe{
		Label:    label,
		Envelope: env,
		Tuning:   tu,
		partials: slices.Clone(partials),
	}
}

// Partials returns a copy of the recipe's partials
func (r *Recipe) Partials() []Partial {
	return slices.Clone(r.partials)
}

// Name returns the recipe label
func (r *Recipe) Name() string {
	return r.Label
}

// Render implements Instrument
func (r *Recipe) Render(t float64, n Note) (float64, bool) {
	amp := r.Envelope.Amplitude(t, n.On, n.Off)
	if amp == 0 {
		return 0, true
	}

	hz := r.Tuning.Frequency(n.Degree)
	var out float64
	for _, p := range r.partials {
		out += p.Weight * Oscillate(hz*p.Ratio, t, p.Wave, p.LFO)
	}
	return amp * out, false
}

// vibrato used on the fundamental of bell and harmonica
var vibrato = LFO{Rate: 5.0, Depth: 0.001}

// Bell has a fast attack and a long decay to silence
func Bell(tu Tuning) *Recipe {
	return NewRecipe("bell",
		Envelope{
			Attack:  0.01,
			Decay:   1.0,
			Release: 1.0,
			Sustain: 0.0,
			Start:   1.0,
		},
		tu,
		Partial{Ratio: 1.0, Weight: 1.0, Wave: Sine, LFO: vibrato},
		Partial{Ratio: 1.5, Weight: 0.5, Wave: Sine},
		Partial{Ratio: 2.0, Weight: 0.25, Wave: Sine},
	)
}

// Harmonica is a reedy square stack with a little breath noise
func Harmonica(tu Tuning) *Recipe {
	return NewRecipe("harmonica",
		Envelope{
			Attack:  0.1,
			Decay:   0.01,
			Release: 0.2,
			Sustain: 0.8,
			Start:   1.0,
		},
		tu,
		Partial{Ratio: 1.0, Weight: 1.0, Wave: Square, LFO: vibrato},
		Partial{Ratio: 1.5, Weight: 0.5, Wave: Square},
		Partial{Ratio: 2.0, Weight: 0.25, Wave: Square},
		Partial{Ratio: 0, Weight: 0.05, Wave: Noise},
	)
}

// Piano is a short, bright sine pair
func Piano(tu Tuning) *Recipe {
	return NewRecipe("piano",
		Envelope{
			Attack:  0.01,
			Decay:   0.1,
			Release: 0.1,
			Sustain: 0.8,
			Start:   1.0,
		},
		tu,
		Partial{Ratio: 1.0, Weight: 1.0, Wave: Sine},
		Partial{Ratio: 1.5, Weight: 0.5, Wave: Sine},
	)
}

// Channel selects the instrument a note is rendered with
type Channel uint8

const (
	ChannelPiano Channel = iota
	ChannelBell
	ChannelHarmonica
	NumChannels
)

var channelNames = [NumChannels]string{"piano", "bell", "harmonica"}

func (c Channel) String() string {
	if c < NumChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// Valid reports whether c names a declared instrument
func (c Channel) Valid() bool {
	return c < NumChannels
}

// ParseChannel looks up a channel by instrument name
func ParseChannel(name string) (Channel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// Bank holds one instrument per channel
type Bank [NumChannels]Instrument

// DefaultBank returns the built-in instruments tuned to tu
func DefaultBank(tu Tuning) Bank {
	return Bank{
		ChannelPiano:     Piano(tu),
		ChannelBell:      Bell(tu),
		ChannelHarmonica: Harmonica(tu),
	}
}
