package broker

import (
	"errors"
	"testing"

	"github.com/amken3d/sim868/modemerr"
)

func TestAckMatch(t *testing.T) {
	if !AckMatch("+CSQ: 17\r\n\r\nOK\r\n") {
		t.Errorf("AckMatch() = false, want true")
	}
	if AckMatch("\r\nERROR\r\n") {
		t.Errorf("AckMatch() = true on error-only text, want false")
	}
}

func TestErrorMatch(t *testing.T) {
	if !ErrorMatch("\r\nERROR\r\n") {
		t.Errorf("ErrorMatch() = false, want true")
	}
	if ErrorMatch("\r\nOK\r\n") {
		t.Errorf("ErrorMatch() = true on ok-only text, want false")
	}
}

func TestGenericResolver(t *testing.T) {
	errOnError := errors.New("boom")

	cases := []struct {
		name string
		text string
		want error
	}{
		{"error wins", "garbage\r\nERROR\r\n", errOnError},
		{"ack without error", "garbage\r\nOK\r\n", nil},
		{"neither yet", "still reading", modemerr.NotResolved},
	}

	for _, c := range cases {
		got := Generic(c.text, errOnError)
		if c.want == nil {
			if got != nil {
				t.Errorf("%s: Generic() = %v, want nil", c.name, got)
			}
			continue
		}
		if c.want == modemerr.NotResolved {
			if !modemerr.Is(got, modemerr.KindNotResolved) {
				t.Errorf("%s: Generic() = %v, want NotResolved", c.name, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("%s: Generic() = %v, want %v", c.name, got, c.want)
		}
	}
}
