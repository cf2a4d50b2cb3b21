// Package events provides the message queues the pipeline phases communicate through.
//
// A Queue keeps every message for the cycle it was sent in and the one after it, so a
// reader that runs earlier in the cycle than the sender still sees the message once.
// Each Reader owns a cursor and never sees the same message twice.
package events

// Queue is a double-buffered, single-goroutine message queue.
type Queue[T any] struct {
	entries  []entry[T]
	next     uint64
	boundary uint64 // id of the first message sent in the current cycle
}

type entry[T any] struct {
	id    uint64
	value T
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Send appends a message and returns its id.
func (q *Queue[T]) Send(value T) uint64 {
	id := q.next
	q.entries = append(q.entries, entry[T]{id: id, value: value})
	q.next++
	return id
}

// Len reports how many messages are still buffered.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// SentThisCycle reports how many messages were sent since the last Update.
func (q *Queue[T]) SentThisCycle() int {
	return int(q.next - q.boundary)
}

// Update closes the current cycle. Messages sent before the previous Update are dropped.
func (q *Queue[T]) Update() {
	cut := 0
	for cut < len(q.entries) && q.entries[cut].id < q.boundary {
		cut++
	}
	if cut > 0 {
		q.entries = append(q.entries[:0], q.entries[cut:]...)
	}
	q.boundary = q.next
}

// Reader returns a new reader positioned at the oldest buffered message.
func (q *Queue[T]) Reader() *Reader[T] {
	r := &Reader[T]{queue: q, cursor: q.next}
	if len(q.entries) > 0 {
		r.cursor = q.entries[0].id
	}
	return r
}

// Reader consumes messages from a Queue with its own cursor.
type Reader[T any] struct {
	queue  *Queue[T]
	cursor uint64
}

// Read returns every message the reader has not seen yet, oldest first.
// Messages that were dropped before the reader got to them are skipped.
func (r *Reader[T]) Read() []T {
	var out []T
	for _, e := range r.queue.entries {
		if e.id >= r.cursor {
			out = append(out, e.value)
		}
	}
	r.cursor = r.queue.next
	return out
}

// Len reports how many buffered messages are unread.
func (r *Reader[T]) Len() int {
	n := 0
	for _, e := range r.queue.entries {
		if e.id >= r.cursor {
			n++
		}
	}
	return n
}

// IsEmpty reports whether Read would return nothing.
func (r *Reader[T]) IsEmpty() bool {
	return r.Len() == 0
}

// Clear marks every buffered message as read.
func (r *Reader[T]) Clear() {
	r.cursor = r.queue.next
}
