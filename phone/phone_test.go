package phone

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868/broker"
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

func TestGetIncomingCallParsesCallerID(t *testing.T) {
	port := &fakePort{}
	port.queue("\r\n+CLIP: \"+15551234567\",145,\"\",0,\"\",0\r\n")

	b := broker.New(port, zerolog.Nop())
	p := New(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := p.GetIncomingCall().Await(ctx)
	if err != nil {
		t.Fatalf("GetIncomingCall() error = %v", err)
	}
	if got.CallerID != "+15551234567" {
		t.Errorf("CallerID = %q, want +15551234567", got.CallerID)
	}
}

func TestAnswerWritesATA(t *testing.T) {
	port := &fakePort{}
	port.queue("\r\nOK\r\n")

	b := broker.New(port, zerolog.Nop())
	p := New(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := p.Answer().Await(ctx); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(port.writes) != 1 || port.writes[0] != "ATA\n" {
		t.Errorf("writes = %v, want [ATA\\n]", port.writes)
	}
}
