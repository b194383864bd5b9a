// Package gpio provides the host GPIO line used by the HAT power
// toggle. The Driver interface shape is adapted from the teacher's
// GPIODriver (core/gpio_hal.go), trimmed to output-only since no
// input/PWM/timer concern exists in this domain.
package gpio

import "time"

// Pin is a GPIO line number (e.g. 4 for the SIM868 power-toggle pin).
type Pin uint

// Driver configures and drives a single GPIO output line.
type Driver interface {
	ConfigureOutput(pin Pin) error
	SetPin(pin Pin, high bool) error
}

// PowerPulseDuration is how long the power-toggle pin is driven low to
// initiate a HAT power-on pulse.
const PowerPulseDuration = 4 * time.Second

// PowerPulse drives pin low for duration then high, the SIM868 HAT
// power-toggle sequence. Callers use PowerPulseDuration; tests pass a
// shorter duration.
func PowerPulse(d Driver, pin Pin, duration time.Duration) error {
	if err := d.ConfigureOutput(pin); err != nil {
		return err
	}
	if err := d.SetPin(pin, false); err != nil {
		return err
	}
	time.Sleep(duration)
	return d.SetPin(pin, true)
}
