package broker

import (
	"container/heap"
	"sync"

	"github.com/google/uuid"
)

// TaskId uniquely identifies a spawned task for the lifetime of the
// process.
type TaskId uuid.UUID

func newTaskId() TaskId {
	return TaskId(uuid.New())
}

func (id TaskId) String() string {
	return uuid.UUID(id).String()
}

// queueItem is one pending task in the heap. seq breaks ties between
// equal priorities in FIFO order.
type queueItem struct {
	id    TaskId
	pri   Priority
	seq   uint64
	index int
}

// itemHeap implements container/heap.Interface ordered by (priority
// desc, seq asc) so Pop/item 0 is always the next task to run.
type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].pri != h[j].pri {
		return h[i].pri > h[j].pri
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// TaskQueue is the priority-ordered FIFO of pending task identifiers.
// Grounded on jangala-dev-devicecode-go's pollHeap, adapted from
// time-keyed due-dates to a two-level priority with FIFO tie-break.
type TaskQueue struct {
	mu      sync.RWMutex
	heap    itemHeap
	byID    map[TaskId]*queueItem
	nextSeq uint64
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		byID: make(map[TaskId]*queueItem),
	}
}

// Push mints a fresh TaskId, enqueues it at the given priority, and
// returns the new id.
func (q *TaskQueue) Push(pri Priority) TaskId {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := newTaskId()
	item := &queueItem{id: id, pri: pri, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.heap, item)
	q.byID[id] = item
	return id
}

// Peek returns the id and priority of the highest-priority,
// earliest-pushed entry. ok is false if the queue is empty.
func (q *TaskQueue) Peek() (id TaskId, pri Priority, ok bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.heap) == 0 {
		return TaskId{}, Normal, false
	}
	top := q.heap[0]
	return top.id, top.pri, true
}

// Remove drops id from the queue. It is a no-op if id is not present.
func (q *TaskQueue) Remove(id TaskId) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.byID[id]
	if !ok {
		return
	}
	heap.Remove(&q.heap, item.index)
	delete(q.byID, id)
}

// Contains reports whether id is currently enqueued.
func (q *TaskQueue) Contains(id TaskId) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	_, ok := q.byID[id]
	return ok
}

// Len returns the number of pending entries.
func (q *TaskQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.heap)
}
