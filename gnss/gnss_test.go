package gnss

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
	"github.com/amken3d/sim868/serial"
)

type fakePort struct{ chunks [][]byte }

func (p *fakePort) queue(s string) { p.chunks = append(p.chunks, []byte(s)) }

func (p *fakePort) Read(buf []byte) (int, error) {
	if len(p.chunks) == 0 {
		return 0, nil
	}
	c := p.chunks[0]
	p.chunks = p.chunks[1:]
	return copy(buf, c), nil
}

func (p *fakePort) Write(b []byte) (int, error)       { return len(b), nil }
func (p *fakePort) Close() error                       { return nil }
func (p *fakePort) Flush(which serial.Direction) error { return nil }

func TestGetDataParsesFix(t *testing.T) {
	port := &fakePort{}
	port.queue("+CGNSINF: 1,1,20240115120000.000,50.0647,19.9450,237.1,0.0,0.0,1,,,,,1.1,0.8,0.8,,10,8,,,24,,\r\n\r\nOK\r\n")

	b := broker.New(port, zerolog.Nop())
	g := New(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := g.GetData().Await(ctx)
	if err != nil {
		t.Fatalf("GetData() error = %v", err)
	}

	if got.Lat != 50.0647 || got.Lon != 19.9450 || got.Alt != 237.1 {
		t.Errorf("lat/lon/alt = %v/%v/%v, want 50.0647/19.9450/237.1", got.Lat, got.Lon, got.Alt)
	}
	if got.SatsInView != 10 || got.SatsInUse != 8 {
		t.Errorf("sats in view/use = %d/%d, want 10/8", got.SatsInView, got.SatsInUse)
	}
	want := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if !got.UTCDateTime.Equal(want) {
		t.Errorf("UTCDateTime = %v, want %v", got.UTCDateTime, want)
	}
}

func TestGetDataNotFixed(t *testing.T) {
	port := &fakePort{}
	port.queue("+CGNSINF: 1,0,,,,,,,,,,,,,,,,,,,,,\r\n\r\nOK\r\n")

	b := broker.New(port, zerolog.Nop())
	g := New(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := g.GetData().Await(ctx)
	if !modemerr.Is(err, modemerr.KindGnssNotFixed) {
		t.Fatalf("GetData() error = %v, want GnssNotFixed", err)
	}
}

func TestGetDataModuleOff(t *testing.T) {
	port := &fakePort{}
	port.queue("+CGNSINF: 0,0,,,,,,,,,,,,,,,,,,,,,\r\n\r\nOK\r\n")

	b := broker.New(port, zerolog.Nop())
	g := New(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := g.GetData().Await(ctx)
	if !modemerr.Is(err, modemerr.KindGnssModuleOff) {
		t.Fatalf("GetData() error = %v, want GnssModuleOff", err)
	}
}
