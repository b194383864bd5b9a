package broker

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/amken3d/sim868/modemerr"
	"github.com/amken3d/sim868/serial"
)

// DefaultTimeout is used by feature modules that don't need a
// command-specific override.
const DefaultTimeout = 1 * time.Second

// Broker owns the UART and the task queue. It is the only path by
// which any feature module touches the serial port. Grounded on
// original_source/src/serial_port.rs's SerialPort.
type Broker struct {
	port   serial.Port
	uartMu sync.Mutex

	queue  *TaskQueue
	logger zerolog.Logger
}

func New(port serial.Port, logger zerolog.Logger) *Broker {
	return &Broker{
		port:   port,
		queue:  NewTaskQueue(),
		logger: logger,
	}
}

func (b *Broker) Queue() *TaskQueue { return b.queue }

func (b *Broker) Logger() *zerolog.Logger { return &b.logger }

// Write flushes the input queue and writes cmd with no read and no
// resolver. Used for fire-and-forget commands such as power-down.
func Write(b *Broker, id TaskId, cmd string) error {
	b.uartMu.Lock()
	defer b.uartMu.Unlock()

	b.logger.Debug().Str("task_id", id.String()).Str("cmd", cmd).Msg("uart write")

	if err := b.port.Flush(serial.Input); err != nil {
		return modemerr.Wrap(modemerr.KindUart, err)
	}
	if _, err := b.port.Write([]byte(cmd)); err != nil {
		return modemerr.Wrap(modemerr.KindUart, err)
	}
	return nil
}

// Read polls the UART, accumulating bytes into a growing buffer and
// invoking resolver with the whole buffer decoded as UTF-8 (lossy
// fallback to empty string on invalid sequences) on every iteration,
// until resolver returns a terminal result or timeout elapses.
func Read[T any](b *Broker, id TaskId, resolver Resolver[T], timeout time.Duration) (T, error) {
	b.uartMu.Lock()
	defer b.uartMu.Unlock()

	return readLocked(b, id, resolver, timeout)
}

// Process is flush(Both) + write(cmd) + the Read loop, all under one
// UART lock acquisition. This is the normal command path; Write and
// Read exist separately only for HTTP data upload and passive
// incoming-call listening.
func Process[T any](b *Broker, id TaskId, cmd string, resolver Resolver[T], timeout time.Duration) (T, error) {
	b.uartMu.Lock()
	defer b.uartMu.Unlock()

	var zero T

	b.logger.Debug().Str("task_id", id.String()).Str("cmd", cmd).Msg("uart process")

	if err := b.port.Flush(serial.Both); err != nil {
		return zero, modemerr.Wrap(modemerr.KindUart, err)
	}
	if _, err := b.port.Write([]byte(cmd)); err != nil {
		return zero, modemerr.Wrap(modemerr.KindUart, err)
	}

	return readLocked(b, id, resolver, timeout)
}

// readLocked must be called with b.uartMu held.
func readLocked[T any](b *Broker, id TaskId, resolver Resolver[T], timeout time.Duration) (T, error) {
	var zero T

	start := time.Now()
	var accumulated []byte
	scratch := make([]byte, 256)

	for {
		n, err := b.port.Read(scratch)
		if err != nil {
			return zero, modemerr.Wrap(modemerr.KindUart, err)
		}
		if n > 0 {
			accumulated = append(accumulated, scratch[:n]...)
		}

		text := ""
		if utf8.Valid(accumulated) {
			text = string(accumulated)
		}

		result, rerr := resolver(text)
		if rerr == nil {
			b.logger.Debug().Str("task_id", id.String()).Msg("uart resolved")
			return result, nil
		}
		if !modemerr.Is(rerr, modemerr.KindNotResolved) {
			return zero, rerr
		}

		if time.Since(start) > timeout {
			return zero, modemerr.NotResolved
		}
	}
}
