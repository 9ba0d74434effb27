package midiin

import (
	"sync"

	"go.uber.org/zap"
)

// delivery parses packets from a MIDI callback into a capture channel.
// Once stop returns no further message is sent.
type delivery struct {
	log *zap.Logger

	mu      sync.Mutex
	parser  Parser
	events  chan<- Message
	stopped bool
}

func (d *delivery) start(events chan<- Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = events
}

// reset forgets running status, for a newly connected source
func (d *delivery) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parser = Parser{}
}

// deliver parses data and sends every message without blocking
func (d *delivery) deliver(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.events == nil {
		return
	}
	d.parser.Parse(data, func(msg Message) {
		select {
		case d.events <- msg:
		default:
			d.log.Warn("MIDI event buffer full, dropping message",
				zap.Uint8("status", msg.Status),
				zap.Uint8("note", msg.Note))
		}
	})
}

// stop ends delivery and reports whether this call stopped it
func (d *delivery) stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.stopped = true
	d.events = nil
	return true
}

func (d *delivery) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}
