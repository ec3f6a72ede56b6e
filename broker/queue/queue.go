package queue

// An array-based FIFO queue, growing when it is full. The broker uses it to keep
// the addresses of idle workers in the order in which they became available.

type Queue[T any] struct {
	// tracking the length separately in l, because calculating it from (front, back)
	// is difficult in some cases (especially rollover)
	front, back, l int
	queue          []T
}

const minCapacity = 8

// Returns an empty queue with room for capacity elements before the first grow.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < minCapacity {
		capacity = minCapacity
	}
	return &Queue[T]{queue: make([]T, capacity)}
}

func (q *Queue[T]) Len() int {
	return q.l
}

// Append to the back. Pushing an element that is already queued is allowed and
// results in two entries.
func (q *Queue[T]) Push(e T) {
	if q.l == len(q.queue) {
		q.grow()
	}
	q.queue[q.back] = e
	q.back = (q.back + 1) % len(q.queue)
	q.l++
}

// Get from the front. ok is false if the queue is empty.
func (q *Queue[T]) Pop() (e T, ok bool) {
	if q.l == 0 {
		return e, false
	}
	var zero T
	e = q.queue[q.front]
	q.queue[q.front] = zero
	q.front = (q.front + 1) % len(q.queue)
	q.l--
	return e, true
}

// Returns the front element without removing it.
func (q *Queue[T]) Peek() (e T, ok bool) {
	if q.l == 0 {
		return e, false
	}
	return q.queue[q.front], true
}

// Copies the elements, front first.
func (q *Queue[T]) Slice() []T {
	out := make([]T, 0, q.l)
	for i := 0; i < q.l; i++ {
		out = append(out, q.queue[(q.front+i)%len(q.queue)])
	}
	return out
}

// Only called on a full queue, where front == back.
func (q *Queue[T]) grow() {
	if len(q.queue) == 0 {
		q.queue = make([]T, minCapacity)
		return
	}
	queue := make([]T, 2*len(q.queue))
	n := copy(queue, q.queue[q.front:])
	copy(queue[n:], q.queue[:q.front])
	q.front, q.back = 0, q.l
	q.queue = queue
}
