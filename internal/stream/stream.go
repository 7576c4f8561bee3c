// Package stream carries values from one producer goroutine to one
// consumer that must never block.
//
// Two flavours exist: Queue, a small bounded FIFO whose Send blocks while it
// is full, and Latest, a single slot where every Send overwrites the value
// the consumer has not picked up yet. Both report the end of the stream the
// same way: once the producer called CloseSend and everything buffered was
// received, TryRecv returns ErrClosed forever.
package stream

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty means nothing new is available right now.
	ErrEmpty = errors.New("stream: no value available")
	// ErrClosed means the producer is gone and no value will ever arrive again.
	ErrClosed = errors.New("stream: closed")
	// ErrReceiverClosed is returned to the producer once the consumer went away.
	ErrReceiverClosed = errors.New("stream: receiver closed")
)

// Sender is the producer half.
type Sender[T any] interface {
	// Send publishes v. It fails with ErrReceiverClosed when the consumer
	// has released its side, in which case v has been discarded.
	Send(v T) error
	// CloseSend signals that no more values will be sent. Send must not be
	// called afterwards.
	CloseSend()
}

// Receiver is the consumer half. TryRecv never blocks.
type Receiver[T any] interface {
	TryRecv() (T, error)
	// CloseRecv releases the consumer side; pending and future values are
	// discarded and the producer's next Send fails.
	CloseRecv()
}

// Channel is both halves of a stream.
type Channel[T any] interface {
	Sender[T]
	Receiver[T]
	// Drops counts values discarded because a newer one replaced them.
	Drops() uint64
}

// Kind selects a Channel implementation.
type Kind string

const (
	KindQueue  Kind = "queue"
	KindLatest Kind = "latest"
)

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindQueue, "":
		return KindQueue, nil
	case KindLatest:
		return KindLatest, nil
	}
	return "", fmt.Errorf("unknown stream kind %q", s)
}

// Options configure New.
type Options[T any] struct {
	Kind     Kind
	Capacity int
	// DropOldest makes a full Queue evict its oldest value instead of
	// blocking the producer.
	DropOldest bool
	// Discard releases values the consumer will never see. May be nil.
	Discard func(T)
}

// New builds the Channel described by opts.
func New[T any](opts Options[T]) (Channel[T], error) {
	switch opts.Kind {
	case KindLatest:
		return NewLatest(opts.Discard), nil
	case KindQueue, "":
		if opts.Capacity < 1 {
			return nil, fmt.Errorf("queue capacity must be at least 1, got %d", opts.Capacity)
		}
		q := NewQueue(opts.Capacity, opts.Discard)
		q.dropOldest = opts.DropOldest
		return q, nil
	}
	return nil, fmt.Errorf("unknown stream kind %q", opts.Kind)
}

func discardFunc[T any](fn func(T)) func(T) {
	if fn == nil {
		return func(T) {}
	}
	return fn
}
