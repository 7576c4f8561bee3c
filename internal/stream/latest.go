package stream

import "sync"

// Latest is a single-slot channel. Send never blocks: a value the consumer
// has not received yet is replaced (and discarded) by the newer one, so
// TryRecv always hands out the most recent write.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	fresh   bool
	sendEnd bool
	recvEnd bool
	drops   uint64
	discard func(T)
}

// NewLatest returns an empty latest-value channel.
func NewLatest[T any](discard func(T)) *Latest[T] {
	return &Latest[T]{discard: discardFunc(discard)}
}

func (l *Latest[T]) Send(v T) error {
	l.mu.Lock()
	if l.recvEnd {
		l.mu.Unlock()
		l.discard(v)
		return ErrReceiverClosed
	}

	old, replaced := l.value, l.fresh
	l.value = v
	l.fresh = true
	if replaced {
		l.drops++
	}
	l.mu.Unlock()

	if replaced {
		l.discard(old)
	}
	return nil
}

func (l *Latest[T]) CloseSend() {
	l.mu.Lock()
	l.sendEnd = true
	l.mu.Unlock()
}

func (l *Latest[T]) TryRecv() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if l.fresh && !l.recvEnd {
		v := l.value
		l.value = zero
		l.fresh = false
		return v, nil
	}
	if l.sendEnd || l.recvEnd {
		return zero, ErrClosed
	}
	return zero, ErrEmpty
}

func (l *Latest[T]) CloseRecv() {
	l.mu.Lock()
	if l.recvEnd {
		l.mu.Unlock()
		return
	}
	l.recvEnd = true
	pending, ok := l.value, l.fresh
	var zero T
	l.value = zero
	l.fresh = false
	l.mu.Unlock()

	if ok {
		l.discard(pending)
	}
}

func (l *Latest[T]) Drops() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drops
}
