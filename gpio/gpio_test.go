package gpio

import (
	"testing"
	"time"
)

type fakeDriver struct {
	configured []Pin
	values     []bool
}

func (d *fakeDriver) ConfigureOutput(pin Pin) error {
	d.configured = append(d.configured, pin)
	return nil
}

func (d *fakeDriver) SetPin(pin Pin, high bool) error {
	d.values = append(d.values, high)
	return nil
}

func TestPowerPulseSequence(t *testing.T) {
	d := &fakeDriver{}
	if err := PowerPulse(d, 4, time.Millisecond); err != nil {
		t.Fatalf("PowerPulse() error = %v", err)
	}

	if len(d.configured) != 1 || d.configured[0] != 4 {
		t.Errorf("configured = %v, want [4]", d.configured)
	}
	if len(d.values) != 2 || d.values[0] != false || d.values[1] != true {
		t.Errorf("values = %v, want [false true]", d.values)
	}
}
