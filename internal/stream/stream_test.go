package stream

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindQueue, false},
		{"queue", KindQueue, false},
		{" Latest ", KindLatest, false},
		{"ring", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewRejectsZeroCapacityQueue(t *testing.T) {
	_, err := New(Options[int]{Kind: KindQueue, Capacity: 0})
	assert.Error(t, err)

	ch, err := New(Options[int]{Kind: KindLatest})
	require.NoError(t, err)
	assert.IsType(t, &Latest[int]{}, ch)
}

func TestQueueFIFOAndEmpty(t *testing.T) {
	q := NewQueue[int](2, nil)

	_, err := q.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))
	assert.Equal(t, 2, q.Len())

	v, err := q.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = q.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQueueSendBlocksWhenFull(t *testing.T) {
	q := NewQueue[int](1, nil)
	require.NoError(t, q.Send(1))

	sent := make(chan error, 1)
	go func() { sent <- q.Send(2) }()

	select {
	case <-sent:
		t.Fatal("Send returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := q.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Send did not resume after a receive")
	}
}

func TestQueueDropOldest(t *testing.T) {
	var discarded []int
	ch, err := New(Options[int]{
		Kind:       KindQueue,
		Capacity:   2,
		DropOldest: true,
		Discard:    func(v int) { discarded = append(discarded, v) },
	})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, ch.Send(i))
	}

	assert.Equal(t, []int{1, 2}, discarded)
	assert.Equal(t, uint64(2), ch.Drops())

	v, _ := ch.TryRecv()
	assert.Equal(t, 3, v)
	v, _ = ch.TryRecv()
	assert.Equal(t, 4, v)
}

func TestQueueCloseSendDrainsThenClosed(t *testing.T) {
	q := NewQueue[int](2, nil)
	require.NoError(t, q.Send(7))
	q.CloseSend()

	v, err := q.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	for i := 0; i < 5; i++ {
		_, err = q.TryRecv()
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestQueueCloseRecvUnblocksProducer(t *testing.T) {
	var discarded atomic.Int32
	q := NewQueue[int](1, func(int) { discarded.Add(1) })
	require.NoError(t, q.Send(1))

	sent := make(chan error, 1)
	go func() { sent <- q.Send(2) }()

	time.Sleep(10 * time.Millisecond)
	q.CloseRecv()

	select {
	case err := <-sent:
		// the drain goroutine may have accepted the value before the
		// producer saw the closed receiver; either way it was discarded
		if err != nil {
			assert.ErrorIs(t, err, ErrReceiverClosed)
		}
	case <-time.After(time.Second):
		t.Fatal("producer stayed blocked after CloseRecv")
	}

	assert.ErrorIs(t, q.Send(3), ErrReceiverClosed)
	q.CloseSend()

	assert.Eventually(t, func() bool { return discarded.Load() == 3 }, time.Second, time.Millisecond)
}

func TestLatestOverwrites(t *testing.T) {
	var discarded []int
	l := NewLatest(func(v int) { discarded = append(discarded, v) })

	_, err := l.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, l.Send(1))
	require.NoError(t, l.Send(2))
	require.NoError(t, l.Send(3))

	v, err := l.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{1, 2}, discarded)
	assert.Equal(t, uint64(2), l.Drops())

	_, err = l.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLatestCloseSend(t *testing.T) {
	l := NewLatest[int](nil)
	require.NoError(t, l.Send(5))
	l.CloseSend()

	v, err := l.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	for i := 0; i < 5; i++ {
		_, err = l.TryRecv()
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestLatestCloseRecv(t *testing.T) {
	var discarded []int
	l := NewLatest(func(v int) { discarded = append(discarded, v) })
	require.NoError(t, l.Send(1))

	l.CloseRecv()
	l.CloseRecv()

	assert.ErrorIs(t, l.Send(2), ErrReceiverClosed)
	assert.Equal(t, []int{1, 2}, discarded)
}

// After the producer stops, the consumer sees every value sent before the
// stop and then only ErrClosed, for both flavours.
func TestNoValueAfterProducerStops(t *testing.T) {
	for _, kind := range []Kind{KindQueue, KindLatest} {
		t.Run(string(kind), func(t *testing.T) {
			ch, err := New(Options[int]{Kind: kind, Capacity: 2})
			require.NoError(t, err)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer ch.CloseSend()
				for i := 1; i <= 100; i++ {
					if ch.Send(i) != nil {
						return
					}
				}
			}()

			last := 0
			deadline := time.After(5 * time.Second)
			for {
				v, err := ch.TryRecv()
				if err == ErrClosed {
					break
				}
				if err == nil {
					require.Greater(t, v, last)
					last = v
				}
				select {
				case <-deadline:
					t.Fatal("stream never reported closed")
				default:
				}
			}
			wg.Wait()

			assert.Equal(t, 100, last)
			for i := 0; i < 10; i++ {
				_, err := ch.TryRecv()
				assert.ErrorIs(t, err, ErrClosed)
			}
		})
	}
}
