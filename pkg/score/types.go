// Package score implements timed note sequences for offline and scripted playback
package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oisee/polysynth/pkg/synth"
)

// ErrBadNote is returned for an unparsable note name
var ErrBadNote = errors.New("bad note name")

// EventKind is the action an Event performs
type EventKind uint8

const (
	Release EventKind = iota // ordered first at equal times
	Select
	Press
)

func (k EventKind) String() string {
	switch k {
	case Release:
		return "release"
	case Select:
		return "select"
	case Press:
		return "press"
	default:
		return "unknown"
	}
}

// Event is one timed action of a score
type Event struct {
	Time    float64       // seconds on the render clock
	Kind    EventKind
	Degree  int           // Press, Release
	Channel synth.Channel // Select
}

// Score is a time-ordered list of events
type Score struct {
	Events []Event
}

// Duration returns the time of the last event
func (s *Score) Duration() float64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Time
}

// Sink receives events as a score is played
type Sink interface {
	NoteEvent(degree int, pressed bool, t float64)
	SelectChannel(c synth.Channel) error
}

// Cursor walks a score in time order
type Cursor struct {
	events []Event
	pos    int
}

// Cursor returns a cursor positioned at the start of the score
func (s *Score) Cursor() *Cursor {
	return &Cursor{events: s.Events}
}

// Advance applies every pending event with a time at or before t, stamped
// with the event's own time. It reports whether events remain.
func (c *Cursor) Advance(t float64, sink Sink) (bool, error) {
	for c.pos < len(c.events) && c.events[c.pos].Time <= t {
		ev := c.events[c.pos]
		c.pos++

		switch ev.Kind {
		case Press:
			sink.NoteEvent(ev.Degree, true, ev.Time)
		case Release:
			sink.NoteEvent(ev.Degree, false, ev.Time)
		case Select:
			if err := sink.SelectChannel(ev.Channel); err != nil {
				return !c.Done(), fmt.Errorf("select at %.3fs: %w", ev.Time, err)
			}
		}
	}
	return !c.Done(), nil
}

// Done reports whether every event has been applied
func (c *Cursor) Done() bool {
	return c.pos >= len(c.events)
}

// Degree 0 (A-2) sits at index 33 of the C-0 based note table
const degreeOffset = 2*12 + 9

var noteNames = []string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// DegreeToString converts a scale degree to a note name such as "A-2"
func DegreeToString(degree int) string {
	pitch := degree + degreeOffset
	if pitch < 0 || pitch >= 10*12 {
		return "---"
	}
	return noteNames[pitch%12] + string(rune('0'+pitch/12))
}

// StringToDegree converts a note name such as "C#3" to a scale degree
func StringToDegree(s string) (int, error) {
	s = strings.ToUpper(s)
	if len(s) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, s)
	}

	note := -1
	for i, n := range noteNames {
		if n == s[:2] {
			note = i
			break
		}
	}
	if note < 0 || s[2] < '0' || s[2] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, s)
	}

	octave := int(s[2] - '0')
	return octave*12 + note - degreeOffset, nil
}
