//go:build darwin

package midiin

import (
	"fmt"
	"sync"

	"github.com/youpy/go-coremidi"
	"go.uber.org/zap"
)

type portConnection interface {
	Disconnect()
}

// CoreMIDIClient reads from CoreMIDI sources
type CoreMIDIClient struct {
	log       *zap.Logger
	client    coremidi.Client
	inputPort coremidi.InputPort

	delivery delivery

	mu       sync.Mutex
	portConn portConnection
}

// NewClient creates a CoreMIDI client named name
func NewClient(name string, log *zap.Logger) (Client, error) {
	client, err := coremidi.NewClient(name)
	if err != nil {
		return nil, fmt.Errorf("creating CoreMIDI client: %w", err)
	}
	log.Info("MIDI client created", zap.String("name", name))
	return &CoreMIDIClient{
		log:      log,
		client:   client,
		delivery: delivery{log: log},
	}, nil
}

// ListDevices returns the available MIDI sources
func (m *CoreMIDIClient) ListDevices() ([]DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, ErrNoDevices
	}

	devices := make([]DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to source id, replacing any previous connection
func (m *CoreMIDIClient) SelectDevice(id int) error {
	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("listing MIDI sources: %w", err)
	}
	if id < 0 || id >= len(sources) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidDevice, id, len(sources))
	}

	if m.delivery.isStopped() {
		return fmt.Errorf("SelectDevice: client stopped")
	}

	m.mu.Lock()
	old := m.portConn
	m.portConn = nil
	m.mu.Unlock()
	if old != nil {
		old.Disconnect()
	}

	source := sources[id]
	port, err := coremidi.NewInputPort(m.client, "polysynth input", m.handlePacket)
	if err != nil {
		return fmt.Errorf("creating input port: %w", err)
	}
	conn, err := port.Connect(source)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", source.Name(), err)
	}

	m.mu.Lock()
	m.inputPort = port
	m.portConn = conn
	m.mu.Unlock()
	m.delivery.reset()

	m.log.Info("MIDI device connected", zap.Int("device", id), zap.String("name", source.Name()))
	return nil
}

func (m *CoreMIDIClient) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	m.delivery.deliver(packet.Data)
}

// StartCapture begins delivering messages to events
func (m *CoreMIDIClient) StartCapture(events chan<- Message) error {
	if events == nil {
		return fmt.Errorf("StartCapture: nil channel")
	}
	m.delivery.start(events)
	m.log.Info("MIDI capture started")
	return nil
}

// Stop disconnects the source. No message is delivered once Stop returns.
func (m *CoreMIDIClient) Stop() error {
	if !m.delivery.stop() {
		return nil
	}

	m.mu.Lock()
	conn := m.portConn
	m.portConn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Disconnect()
	}
	m.log.Info("MIDI capture stopped")
	return nil
}
