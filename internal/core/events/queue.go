package events

import "sync"

// DefaultCapacity bounds the queue when the host does not configure one.
const DefaultCapacity = 4096

// Queue is a bounded FIFO between the tick engine (producer) and the host
// (single consumer, once per frame). Pushes never block: when the queue is
// full the oldest events are dropped and counted, so a stalled host costs
// late presentation, never corrupted state. FIFO order is preserved, which
// keeps an attack ahead of its damage or death outcome.
type Queue struct {
	mx      sync.Mutex
	buf     []Event
	head    int // index of the oldest event
	size    int
	dropped uint64
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: make([]Event, capacity)}
}

// PushMany appends evs in order, dropping the oldest queued events when
// space runs out.
func (q *Queue) PushMany(evs []Event) {
	if len(evs) == 0 {
		return
	}
	q.mx.Lock()
	defer q.mx.Unlock()

	for _, e := range evs {
		if q.size == len(q.buf) {
			// Full: overwrite the oldest slot.
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.dropped++
		}
		q.buf[(q.head+q.size)%len(q.buf)] = e
		q.size++
	}
}

// Push appends a single event.
func (q *Queue) Push(e Event) { q.PushMany([]Event{e}) }

// DrainAll removes and returns every queued event in FIFO order.
// Returns nil when the queue is empty.
func (q *Queue) DrainAll() []Event {
	q.mx.Lock()
	defer q.mx.Unlock()

	if q.size == 0 {
		return nil
	}
	out := make([]Event, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.head = 0
	q.size = 0
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.size
}

// Dropped returns how many events have been discarded to the oldest-drop
// policy since creation.
func (q *Queue) Dropped() uint64 {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.dropped
}
