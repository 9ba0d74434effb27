// Package midiin feeds a hardware MIDI keyboard into the synthesizer
package midiin

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// MIDI status bytes handled by the bridge
const (
	NoteOff byte = 0x80
	NoteOn  byte = 0x90
)

// NoteA2 is the MIDI note number of scale degree 0 (110 Hz)
const NoteA2 = 45

var (
	// ErrUnsupported is returned where no MIDI backend exists
	ErrUnsupported = errors.New("MIDI input is not available on this platform")
	// ErrNoDevices is returned when no MIDI source is connected
	ErrNoDevices = errors.New("no MIDI devices found")
	// ErrInvalidDevice is returned for an out of range device index
	ErrInvalidDevice = errors.New("invalid MIDI device")
)

// Message is one raw channel message
type Message struct {
	Status   byte // command in the high nibble, channel in the low one
	Note     byte
	Velocity byte
}

// DeviceInfo describes a MIDI source
type DeviceInfo struct {
	Name         string
	Manufacturer string
	EntityName   string
}

// Client captures messages from a MIDI source
type Client interface {
	ListDevices() ([]DeviceInfo, error)
	SelectDevice(id int) error
	StartCapture(events chan<- Message) error
	Stop() error
}

// Sink receives note transitions
type Sink interface {
	NoteEvent(degree int, pressed bool, t float64)
}

// Parser splits a raw MIDI byte stream into channel messages. Running
// status carries across calls, so one Parser should serve one source.
type Parser struct {
	running byte
	sysex   bool
}

// dataLength is the number of data bytes following a channel status
func dataLength(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0: // program change, channel pressure
		return 1
	default:
		return 2
	}
}

// Parse calls emit for every complete channel message in data. System
// messages are skipped; real-time bytes may appear anywhere.
func (p *Parser) Parse(data []byte, emit func(Message)) {
	for len(data) > 0 {
		b := data[0]
		if b >= 0xF8 {
			data = data[1:]
			continue
		}
		if p.sysex {
			if b < 0x80 {
				data = data[1:]
				continue
			}
			p.sysex = false
			if b == 0xF7 {
				data = data[1:]
				continue
			}
		}

		if b >= 0x80 {
			data = data[1:]
			if b >= 0xF0 {
				// system common cancels running status; its data bytes
				// are dropped below as strays
				p.running = 0
				p.sysex = b == 0xF0
				continue
			}
			p.running = b
		}
		if p.running == 0 {
			data = data[1:]
			continue
		}

		var buf [2]byte
		n, got, i := dataLength(p.running), 0, 0
	collect:
		for ; i < len(data) && got < n; i++ {
			switch c := data[i]; {
			case c >= 0xF8:
			case c >= 0x80:
				break collect
			default:
				buf[got] = c
				got++
			}
		}
		data = data[i:]
		if got < n {
			// truncated by the end of data or by a new status byte
			continue
		}
		emit(Message{Status: p.running, Note: buf[0], Velocity: buf[1]})
	}
}

// Translate converts a message into a note transition. ok is false for
// messages other than note on and note off.
func Translate(m Message) (degree int, pressed, ok bool) {
	degree = int(m.Note) - NoteA2
	switch m.Status & 0xF0 {
	case NoteOn:
		// running status keyboards send note on with velocity 0 for release
		return degree, m.Velocity > 0, true
	case NoteOff:
		return degree, false, true
	default:
		return 0, false, false
	}
}

// Bridge forwards messages to sink, stamping them with now(), until ctx is
// done or msgs is closed
func Bridge(ctx context.Context, msgs <-chan Message, sink Sink, now func() float64, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, open := <-msgs:
			if !open {
				return
			}
			degree, pressed, ok := Translate(m)
			if !ok {
				continue
			}
			t := now()
			sink.NoteEvent(degree, pressed, t)
			log.Debug("midi note",
				zap.Int("degree", degree),
				zap.Bool("pressed", pressed),
				zap.Float64("time", t))
		}
	}
}
