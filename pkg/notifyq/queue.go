// Package notifyq is a bounded in-memory queue that takes notification
// writes off the request path. Chat handlers enqueue; a single worker
// drains into the store. Overflow drops the notification rather than
// blocking a send.
package notifyq

import (
	"fmt"
	"sync"
	"sync/atomic"

	"lostfound/pkg/models"
)

const defaultCapacity = 1024

var (
	ErrQueueFull   = fmt.Errorf("notification queue full")
	ErrQueueClosed = fmt.Errorf("notification queue closed")
)

// Op is one pending notification write.
type Op struct {
	UserID       int64
	Notification models.Notification
}

// Queue is a threadsafe, fixed-size queue of notification ops.
type Queue struct {
	ch        chan Op
	closed    int32
	closeOnce sync.Once

	enqueued uint64
	dropped  uint64
}

// New creates a bounded Queue of given capacity (>0).
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{ch: make(chan Op, capacity)}
}

// TryEnqueue enqueues an op without blocking; returns ErrQueueFull when
// the queue is saturated.
func (q *Queue) TryEnqueue(op Op) error {
	if atomic.LoadInt32(&q.closed) == 1 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- op:
		atomic.AddUint64(&q.enqueued, 1)
		return nil
	default:
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// RunWorker dequeues ops and calls handler for each. Exits when stop
// fires or the queue closes.
func (q *Queue) RunWorker(stop <-chan struct{}, handler func(Op) error) {
	for {
		select {
		case op, ok := <-q.ch:
			if !ok {
				return
			}
			_ = handler(op)
		case <-stop:
			return
		}
	}
}

// Close marks the queue closed. Pending ops may still be drained.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		atomic.StoreInt32(&q.closed, 1)
		close(q.ch)
	})
}

// Stats returns enqueue and drop counters.
func (q *Queue) Stats() (enqueued, dropped uint64) {
	return atomic.LoadUint64(&q.enqueued), atomic.LoadUint64(&q.dropped)
}
