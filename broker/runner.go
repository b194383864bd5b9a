package broker

import (
	"context"
	"sync"
	"time"
)

// headOfQueuePoll is the sleep interval between peeks while a task
// waits to reach the head of the queue. This is the only suspension
// point in a task's lifetime before it begins UART work.
const headOfQueuePoll = 100 * time.Millisecond

// running holds one *sync.Mutex per *Broker, locked by the task that is
// currently executing. A task that becomes the queue top while another
// task is still running waits until that task has dequeued.
var running sync.Map

// TaskFn is the body of a spawned task: synchronous broker-using code
// that runs once the task reaches the head of the queue.
type TaskFn[T any, A any] func(b *Broker, id TaskId, args A) (T, error)

// TaskHandle is the awaitable result of a spawned task.
type TaskHandle[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Await blocks until the task completes or ctx is done, whichever
// comes first. A context error is distinct from the task's own
// application error.
func (h *TaskHandle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// SpawnTask runs fn concurrently: it enqueues a fresh TaskId at the
// given priority, waits for head-of-queue, runs fn, dequeues, and
// completes the returned handle. Grounded on
// original_source/src/serial_port.rs's spawn_task.
func SpawnTask[T any, A any](b *Broker, priority Priority, label string, fn TaskFn[T, A], args A) *TaskHandle[T] {
	h := &TaskHandle[T]{done: make(chan struct{})}

	go func() {
		id := b.queue.Push(priority)
		b.logger.Debug().Str("task_id", id.String()).Str("priority", priority.String()).Msg("task enqueued")
		if label != "" {
			b.logger.Info().Str("task_id", id.String()).Msg(label)
		}

		mu := awaitHeadOfQueue(b, id)

		h.result, h.err = fn(b, id, args)

		b.queue.Remove(id)
		mu.Unlock()
		close(h.done)
	}()

	return h
}

func awaitHeadOfQueue(b *Broker, id TaskId) *sync.Mutex {
	v, _ := running.LoadOrStore(b, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	for {
		topID, _, ok := b.queue.Peek()
		if ok && topID == id && mu.TryLock() {
			return mu
		}
		time.Sleep(headOfQueuePoll)
	}
}
