//go:build !linux

package gpio

import "fmt"

// LinuxDriver is unavailable on non-Linux hosts; the SIM868 HAT is a
// Raspberry Pi accessory and sysfs GPIO is Linux-only.
type LinuxDriver struct{}

func NewLinuxDriver() *LinuxDriver {
	return &LinuxDriver{}
}

func (d *LinuxDriver) ConfigureOutput(pin Pin) error {
	return fmt.Errorf("gpio: sysfs GPIO is only supported on linux")
}

func (d *LinuxDriver) SetPin(pin Pin, high bool) error {
	return fmt.Errorf("gpio: sysfs GPIO is only supported on linux")
}
