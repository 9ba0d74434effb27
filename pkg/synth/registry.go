package synth

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MasterGain keeps roughly 16 partial-rich voices below clipping
const MasterGain = 0.05

// voiceCapacity is the preallocated note slots; render never grows it
const voiceCapacity = 16

// Options configures a Registry
type Options struct {
	Bank      *Bank
	Gain      float64
	MaxVoices int // 0 = unlimited, 1 = monophonic
	Channel   Channel
	Logger    *zap.Logger
}

// Option modifies Options
type Option func(*Options)

// WithBank sets the instruments notes are rendered with
func WithBank(b Bank) Option {
	return func(o *Options) {
		o.Bank = &b
	}
}

// WithGain sets the master gain applied to the mixed output
func WithGain(g float64) Option {
	return func(o *Options) {
		o.Gain = g
	}
}

// WithMaxVoices limits the number of registered notes
func WithMaxVoices(n int) Option {
	return func(o *Options) {
		o.MaxVoices = n
	}
}

// WithChannel sets the initially selected channel
func WithChannel(c Channel) Option {
	return func(o *Options) {
		o.Channel = c
	}
}

// WithLogger sets the logger used for voice allocation messages
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Registry holds the currently relevant notes. It is shared by the input
// actor, which calls NoteEvent, and the audio callback, which calls
// RenderSample. Every access holds the same lock, and nothing allocates
// while it is held.
type Registry struct {
	bank      Bank
	gain      float64
	maxVoices int
	log       *zap.Logger

	mu       sync.Mutex
	notes    []Note
	selected Channel
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) (*Registry, error) {
	o := Options{Gain: MasterGain}
	for _, opt := range opts {
		opt(&o)
	}

	if o.Bank == nil {
		b := DefaultBank(DefaultTuning)
		o.Bank = &b
	}
	for c, inst := range o.Bank {
		if inst == nil {
			return nil, fmt.Errorf("%w: no instrument for %s", ErrUnknownChannel, Channel(c))
		}
	}
	if !o.Channel.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, o.Channel)
	}
	if o.MaxVoices < 0 {
		return nil, fmt.Errorf("max voices must not be negative, got %d", o.MaxVoices)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	capacity := voiceCapacity
	if o.MaxVoices > 0 {
		capacity = o.MaxVoices
	}

	return &Registry{
		bank:      *o.Bank,
		gain:      o.Gain,
		maxVoices: o.MaxVoices,
		log:       o.Logger,
		notes:     make([]Note, 0, capacity),
		selected:  o.Channel,
	}, nil
}

// NoteEvent applies one key transition for degree at time t
func (r *Registry) NoteEvent(degree int, pressed bool, t float64) {
	var spare []Note
	for {
		res, size := r.noteEvent(degree, pressed, t, spare)
		switch res {
		case noteDropped:
			r.log.Debug("voice limit reached, note dropped",
				zap.Int("degree", degree),
				zap.Int("maxVoices", r.maxVoices),
				zap.Float64("time", t))
		case noteNeedsRoom:
			// grow outside the lock, then retry
			spare = make([]Note, 0, 2*size)
			continue
		}
		return
	}
}

type noteResult uint8

const (
	noteApplied noteResult = iota
	noteDropped
	noteNeedsRoom
)

// noteEvent applies the transition under the lock. A press into a full
// slice moves the notes into spare when it is large enough and otherwise
// reports noteNeedsRoom with the current size, so the lock never allocates.
func (r *Registry) noteEvent(degree int, pressed bool, t float64, spare []Note) (noteResult, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(degree)
	if i < 0 {
		if !pressed {
			return noteApplied, 0
		}
		if r.maxVoices > 0 && len(r.notes) >= r.maxVoices {
			return noteDropped, 0
		}
		if len(r.notes) == cap(r.notes) {
			if cap(spare) <= len(r.notes) {
				return noteNeedsRoom, len(r.notes)
			}
			r.notes = append(spare[:0], r.notes...)
		}
		r.notes = append(r.notes, NewNote(degree, t, r.selected))
		return noteApplied, 0
	}

	n := &r.notes[i]
	switch {
	case pressed && n.Releasing():
		n.press(t)
	case !pressed && n.Sounding():
		n.release(t)
	}
	return noteApplied, 0
}

func (r *Registry) find(degree int) int {
	for i := range r.notes {
		if r.notes[i].Degree == degree {
			return i
		}
	}
	return -1
}

// RenderSample mixes every registered note at time t, retires notes that
// finished their release and returns the sum scaled by the master gain.
func (r *Registry) RenderSample(t float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mix float64
	for i := range r.notes {
		n := &r.notes[i]
		sample, finished := r.bank[n.Channel].Render(t, *n)
		mix += sample
		if finished && n.Off > n.On {
			n.Active = false
		}
	}

	kept := r.notes[:0]
	for _, n := range r.notes {
		if n.Active {
			kept = append(kept, n)
		}
	}
	r.notes = kept

	return mix * r.gain
}

// SelectChannel sets the channel assigned to newly pressed notes
func (r *Registry) SelectChannel(c Channel) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = c
	return nil
}

// Selected returns the channel assigned to newly pressed notes
func (r *Registry) Selected() Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Instrument returns the instrument bound to c
func (r *Registry) Instrument(c Channel) Instrument {
	return r.bank[c]
}

// Len returns the number of registered notes
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

// Snapshot returns a copy of the registered notes for display
func (r *Registry) Snapshot() []Note {
	return r.SnapshotInto(nil)
}

// SnapshotInto copies the registered notes into dst, reusing its storage
// when large enough, and returns the filled slice
func (r *Registry) SnapshotInto(dst []Note) []Note {
	for {
		n, ok := r.copyNotes(dst)
		if ok {
			return dst[:n]
		}
		dst = make([]Note, 0, n+voiceCapacity)
	}
}

// copyNotes copies into dst under the lock, or reports the size needed
func (r *Registry) copyNotes(dst []Note) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(dst) < len(r.notes) {
		return len(r.notes), false
	}
	return copy(dst[:len(r.notes)], r.notes), true
}
