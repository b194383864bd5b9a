package hat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
	"github.com/amken3d/sim868/serial"
)

type fakePort struct {
	chunks [][]byte
	writes []string
}

func (p *fakePort) queue(s string) { p.chunks = append(p.chunks, []byte(s)) }

func (p *fakePort) Read(buf []byte) (int, error) {
	if len(p.chunks) == 0 {
		return 0, nil
	}
	c := p.chunks[0]
	p.chunks = p.chunks[1:]
	return copy(buf, c), nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *fakePort) Close() error                       { return nil }
func (p *fakePort) Flush(which serial.Direction) error { return nil }

func TestNetworkStrengthParsesCSQ(t *testing.T) {
	port := &fakePort{}
	port.queue("+CSQ: 17,99\r\n\r\nOK\r\n")
	b := broker.New(port, zerolog.Nop())
	h := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := h.NetworkStrength().Await(ctx)
	if err != nil {
		t.Fatalf("NetworkStrength() error = %v", err)
	}
	if got != 17 {
		t.Errorf("NetworkStrength() = %d, want 17", got)
	}
}

func TestIsOnNotResolvedWhenNoResponse(t *testing.T) {
	port := &fakePort{} // never responds
	b := broker.New(port, zerolog.Nop())
	h := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := h.IsOn().Await(ctx)
	if !modemerr.Is(err, modemerr.KindNotResolved) {
		t.Fatalf("IsOn() error = %v, want NotResolved", err)
	}
}

func TestIsOnErrorResponseFallsThroughToNotResolved(t *testing.T) {
	port := &fakePort{}
	port.queue("\r\nERROR\r\n") // a bare AT probe answered with ERROR is not terminal
	b := broker.New(port, zerolog.Nop())
	h := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := h.IsOn().Await(ctx)
	if !modemerr.Is(err, modemerr.KindNotResolved) {
		t.Fatalf("IsOn() error = %v, want NotResolved", err)
	}
}

func TestTurnOffWhenAlreadyOffReturnsHatAlreadyOff(t *testing.T) {
	port := &fakePort{} // AT probe never acked -> NotResolved -> HatAlreadyOff
	b := broker.New(port, zerolog.Nop())
	h := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.TurnOff().Await(ctx)
	if !modemerr.Is(err, modemerr.KindHatAlreadyOff) {
		t.Fatalf("TurnOff() error = %v, want HatAlreadyOff", err)
	}
}

func TestTurnOffWritesPowerDownWhenOn(t *testing.T) {
	port := &fakePort{}
	port.queue("\r\nOK\r\n") // isOn probe
	b := broker.New(port, zerolog.Nop())
	h := New(b, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := h.TurnOff().Await(ctx); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}

	found := false
	for _, w := range port.writes {
		if w == "AT+CPOWD=0\n" {
			found = true
		}
	}
	if !found {
		t.Errorf("writes = %v, want to contain AT+CPOWD=0", port.writes)
	}
}
