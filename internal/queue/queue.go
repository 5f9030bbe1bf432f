// Package queue provides the owned FIFO container behind the engine's
// telemetry and twin queues.
package queue

// Queue is an unbounded FIFO of owned records.
//
// Queue is not safe for concurrent use. The engine that owns it is
// single-threaded by contract, so every mutation happens on the caller's
// goroutine inside a setter or DoWork.
type Queue[T any] struct {
	items []T
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: make([]T, 0, 16)}
}

// PushBack appends v at the tail.
func (q *Queue[T]) PushBack(v T) {
	q.items = append(q.items, v)
}

// Front returns the head without removing it.
func (q *Queue[T]) Front() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// PopFront removes and returns the head.
// Returns (zero, false) if the queue is empty.
func (q *Queue[T]) PopFront() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]

	// Clear the slot so the backing array does not pin the record.
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return v, true
}

// RemoveFirst removes the first record matching pred and returns it.
// Records after it keep their relative order.
func (q *Queue[T]) RemoveFirst(pred func(T) bool) (T, bool) {
	var zero T
	for i, v := range q.items {
		if !pred(v) {
			continue
		}
		copy(q.items[i:], q.items[i+1:])
		q.items[len(q.items)-1] = zero
		q.items = q.items[:len(q.items)-1]
		return v, true
	}
	return zero, false
}

// Extract removes every record matching pred, preserving the order of both
// the removed records and the ones that stay.
func (q *Queue[T]) Extract(pred func(T) bool) []T {
	var removed []T
	kept := q.items[:0]
	for _, v := range q.items {
		if pred(v) {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	var zero T
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = kept
	return removed
}

// Drain empties the queue and returns its records in FIFO order.
func (q *Queue[T]) Drain() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
	return out
}

// Each calls fn for every record head-to-tail.
func (q *Queue[T]) Each(fn func(T)) {
	for _, v := range q.items {
		fn(v)
	}
}

// Len returns the current queue length.
func (q *Queue[T]) Len() int {
	return len(q.items)
}
