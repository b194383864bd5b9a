package serial

import (
	"fmt"

	tarm "github.com/tarm/serial"
)

// NativePort wraps github.com/tarm/serial for a real UART device.
type NativePort struct {
	port *tarm.Port
	cfg  *Config
}

// Open opens the serial device described by cfg, 8N1, no parity, no
// flow control.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("serial: config cannot be nil")
	}

	tc := &tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	}

	port, err := tarm.OpenPort(tc)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	return &NativePort{port: port, cfg: cfg}, nil
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// drainIterations bounds the Input-flush drain loop so a device that
// never stops producing bytes can't hang a flush forever.
const drainIterations = 64

// Flush discards buffered bytes. tarm/serial exposes no native tcflush,
// so Input is simulated by reading and discarding until a read returns
// zero bytes (or the iteration cap is hit); Output is a no-op because
// tarm/serial.Write is a synchronous blocking write with no host-side
// write buffer to discard.
func (p *NativePort) Flush(which Direction) error {
	if which == Output {
		return nil
	}

	scratch := make([]byte, 256)
	for i := 0; i < drainIterations; i++ {
		n, err := p.port.Read(scratch)
		if err != nil || n == 0 {
			break
		}
	}

	if which == Both {
		return nil
	}
	return nil
}
