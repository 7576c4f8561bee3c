package stream

import (
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO. Send blocks while the queue is full unless the
// queue was built with DropOldest, and returns as soon as the consumer
// releases its side.
type Queue[T any] struct {
	items   chan T
	done    chan struct{}
	discard func(T)

	dropOldest bool
	drops      atomic.Uint64

	sendOnce sync.Once
	recvOnce sync.Once
}

// NewQueue returns a blocking queue holding up to capacity values.
func NewQueue[T any](capacity int, discard func(T)) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		items:   make(chan T, capacity),
		done:    make(chan struct{}),
		discard: discardFunc(discard),
	}
}

func (q *Queue[T]) Send(v T) error {
	select {
	case <-q.done:
		q.discard(v)
		return ErrReceiverClosed
	default:
	}

	if q.dropOldest {
		return q.sendDropOldest(v)
	}

	select {
	case q.items <- v:
		return nil
	case <-q.done:
		q.discard(v)
		return ErrReceiverClosed
	}
}

func (q *Queue[T]) sendDropOldest(v T) error {
	for {
		select {
		case q.items <- v:
			return nil
		case <-q.done:
			q.discard(v)
			return ErrReceiverClosed
		default:
		}

		// full: make room by evicting the oldest value
		select {
		case old := <-q.items:
			q.discard(old)
			q.drops.Add(1)
		default:
		}
	}
}

func (q *Queue[T]) CloseSend() {
	q.sendOnce.Do(func() { close(q.items) })
}

func (q *Queue[T]) TryRecv() (T, error) {
	var zero T
	select {
	case <-q.done:
		return zero, ErrClosed
	default:
	}

	select {
	case v, ok := <-q.items:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	default:
		return zero, ErrEmpty
	}
}

// CloseRecv releases the consumer side. Values still buffered, and any value
// racing in before the producer notices, are discarded by a drain goroutine
// that exits once the producer calls CloseSend.
func (q *Queue[T]) CloseRecv() {
	q.recvOnce.Do(func() {
		close(q.done)
		go func() {
			for v := range q.items {
				q.discard(v)
			}
		}()
	})
}

func (q *Queue[T]) Drops() uint64 { return q.drops.Load() }

// Len reports how many values are buffered
func (q *Queue[T]) Len() int { return len(q.items) }
