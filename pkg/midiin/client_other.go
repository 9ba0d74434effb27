//go:build !darwin

package midiin

import "go.uber.org/zap"

// unsupportedClient stands in where no MIDI backend is built
type unsupportedClient struct {
	log *zap.Logger
}

// NewClient returns a client whose operations all fail with ErrUnsupported
func NewClient(name string, log *zap.Logger) (Client, error) {
	log.Warn("MIDI input unavailable on this platform", zap.String("name", name))
	return &unsupportedClient{log: log}, nil
}

func (c *unsupportedClient) ListDevices() ([]DeviceInfo, error) { return nil, ErrUnsupported }

func (c *unsupportedClient) SelectDevice(int) error { return ErrUnsupported }

func (c *unsupportedClient) StartCapture(chan<- Message) error { return ErrUnsupported }

func (c *unsupportedClient) Stop() error { return nil }
