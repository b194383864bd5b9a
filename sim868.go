// Package sim868 is the public API surface: a root Handle exposing
// the five feature modules built atop the serial command broker.
// Grounded on original_source/src/lib.rs.
package sim868

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/gnss"
	"github.com/amken3d/sim868/gpio"
	"github.com/amken3d/sim868/gprs"
	"github.com/amken3d/sim868/hat"
	"github.com/amken3d/sim868/phone"
	"github.com/amken3d/sim868/serial"
	"github.com/amken3d/sim868/sms"
)

// Handle is the root object returned by New, wiring every feature
// module to a single shared Broker.
type Handle struct {
	Hat   *hat.Hat
	SMS   *sms.SMS
	GNSS  *gnss.GNSS
	GPRS  *gprs.GPRS
	Phone *phone.Phone

	broker *broker.Broker
	port   serial.Port
}

// New opens the serial device at path/baud and wires every feature
// module atop a single broker. level OFF maps to zerolog.Disabled,
// matching the original "log level OFF disables logger initialization"
// behavior.
func New(path string, baud int, level zerolog.Level) (*Handle, error) {
	cfg := serial.DefaultConfig(path)
	cfg.Baud = baud

	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("sim868: %w", err)
	}

	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(level).With().Timestamp().Logger()
	if level == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	b := broker.New(port, logger)
	gpioDriver := gpio.NewLinuxDriver()

	return &Handle{
		Hat:    hat.New(b, gpioDriver),
		SMS:    sms.New(b),
		GNSS:   gnss.New(b),
		GPRS:   gprs.New(b),
		Phone:  phone.New(b),
		broker: b,
		port:   port,
	}, nil
}

// Close releases the underlying serial port.
func (h *Handle) Close() error {
	return h.port.Close()
}
