package ingest

import "sync"

// deliveryQueue is a thread-safe unbounded FIFO of deliveries.
//
// Feeds and HTTP handlers may enqueue from any goroutine while the Runner's
// loop dequeues. The signal channel lets the loop wait with a context.
type deliveryQueue struct {
	mu         sync.Mutex
	deliveries []Delivery
	closed     bool
	signal     chan struct{} // buffered, size 1
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{
		deliveries: make([]Delivery, 0, 64),
		signal:     make(chan struct{}, 1),
	}
}

// Enqueue adds a delivery to the back of the queue.
// Returns false if the queue is closed.
func (q *deliveryQueue) Enqueue(d Delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.deliveries = append(q.deliveries, d)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front delivery without blocking.
func (q *deliveryQueue) TryDequeue() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.deliveries) == 0 {
		return Delivery{}, false
	}

	d := q.deliveries[0]
	// Release the word slices held by the backing array.
	q.deliveries[0] = Delivery{}

	if len(q.deliveries) == 1 {
		q.deliveries = q.deliveries[:0]
	} else {
		q.deliveries = q.deliveries[1:]
	}

	return d, true
}

// Wait returns a channel that signals when deliveries may be available.
// It is closed once the queue is closed.
func (q *deliveryQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *deliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deliveries)
}

// Close stops further enqueues and wakes the waiter.
func (q *deliveryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// closedAndEmpty reports whether the queue is closed with nothing left.
func (q *deliveryQueue) closedAndEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.deliveries) == 0
}
