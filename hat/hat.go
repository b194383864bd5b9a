// Package hat implements HAT power and signal operations: is-on,
// turn-on (GPIO-synchronous), turn-off, and network strength. Grounded
// on original_source/src/hat.rs.
package hat

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/gpio"
	"github.com/amken3d/sim868/modemerr"
)

// PowerTogglePin is the sole GPIO line used by this module.
const PowerTogglePin gpio.Pin = 4

const isOnTimeout = 2 * time.Second

var signalStrengthRegexp = regexp.MustCompile(`\+CSQ: (\d+)`)

// Hat drives the HAT power toggle and signal-strength queries.
type Hat struct {
	broker *broker.Broker
	driver gpio.Driver
}

func New(b *broker.Broker, driver gpio.Driver) *Hat {
	return &Hat{broker: b, driver: driver}
}

// IsOn reports whether the modem responds to a bare AT probe.
func (h *Hat) IsOn() *broker.TaskHandle[bool] {
	return broker.SpawnTask(h.broker, broker.Normal, "", isOn, struct{}{})
}

func isOn(b *broker.Broker, id broker.TaskId, _ struct{}) (bool, error) {
	// ERROR falls through to NotResolved/timeout here, same as
	// original_source/src/hat.rs's is_on: a bare AT probe answered with
	// ERROR is not a terminal failure, only the absence of OK is.
	resolver := func(text string) (bool, error) {
		if broker.AckMatch(text) {
			return true, nil
		}
		return false, modemerr.NotResolved
	}
	return broker.Process(b, id, "AT\n", resolver, isOnTimeout)
}

// NetworkStrength returns the modem's reported CSQ signal value.
func (h *Hat) NetworkStrength() *broker.TaskHandle[int] {
	return broker.SpawnTask(h.broker, broker.Normal, "", networkStrength, struct{}{})
}

func networkStrength(b *broker.Broker, id broker.TaskId, _ struct{}) (int, error) {
	resolver := func(text string) (int, error) {
		if broker.ErrorMatch(text) {
			return 0, modemerr.New(modemerr.KindUart)
		}
		m := signalStrengthRegexp.FindStringSubmatch(text)
		if m == nil {
			return 0, modemerr.NotResolved
		}
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, modemerr.NotResolved
		}
		return value, nil
	}
	return broker.Process(b, id, "AT+CSQ\n", resolver, broker.DefaultTimeout)
}

// TurnOn is synchronous because it drives a GPIO line, not the UART.
// It awaits IsOn first: HatAlreadyOn if the modem already responds,
// otherwise pulses the power-toggle pin.
func (h *Hat) TurnOn(ctx context.Context) error {
	on, err := h.IsOn().Await(ctx)
	if err == nil && on {
		return modemerr.New(modemerr.KindHatAlreadyOn)
	}
	if !modemerr.Is(err, modemerr.KindNotResolved) {
		return err
	}

	return gpio.PowerPulse(h.driver, PowerTogglePin, gpio.PowerPulseDuration)
}

// TurnOff checks on-ness inline within the same HIGH-priority task (so
// no other task can interleave between the check and the power-down
// write), then fires AT+CPOWD=0 without waiting for a reply.
func (h *Hat) TurnOff() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(h.broker, broker.High, "turning sim868 hat off", turnOff, struct{}{})
}

func turnOff(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
	on, err := isOn(b, id, struct{}{})
	if err == nil && on {
		if werr := broker.Write(b, id, "AT+CPOWD=0\n"); werr != nil {
			return struct{}{}, werr
		}
		return struct{}{}, nil
	}
	if modemerr.Is(err, modemerr.KindNotResolved) {
		return struct{}{}, modemerr.New(modemerr.KindHatAlreadyOff)
	}
	return struct{}{}, err
}
