package gui

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"camlab/internal/core"
	"camlab/internal/filter"
	"camlab/internal/stream"
)

func newFrame(seq uint64, fps float64) *core.Frame {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 6, 8, gocv.MatTypeCV8UC3)
	f := core.NewFrame(mat)
	f.Seq = seq
	f.FPS = fps
	return f
}

func quietEntry() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestParseEndPolicy(t *testing.T) {
	p, err := ParseEndPolicy("")
	require.NoError(t, err)
	assert.Equal(t, EndHold, p)

	p, err = ParseEndPolicy("EXIT")
	require.NoError(t, err)
	assert.Equal(t, EndExit, p)

	_, err = ParseEndPolicy("restart")
	assert.Error(t, err)
}

func TestLoopShowsPlaceholderUntilFirstFrame(t *testing.T) {
	q := stream.NewQueue[*core.Frame](2, func(f *core.Frame) { f.Close() })
	loop := NewLoop(q, filter.NewCell(filter.Native()), EndHold, quietEntry())
	defer loop.Close()

	assert.False(t, loop.Poll())
	assert.Equal(t, StatusNoImage, loop.Status())
	assert.Nil(t, loop.Latest())
	assert.Zero(t, loop.FPS())

	require.NoError(t, q.Send(newFrame(1, 29.5)))
	assert.True(t, loop.Poll())
	assert.Equal(t, "", loop.Status())
	assert.Equal(t, uint64(1), loop.Latest().Seq)
	assert.Equal(t, 29.5, loop.FPS())

	// nothing new: the previous frame stays on display
	assert.False(t, loop.Poll())
	assert.Equal(t, uint64(1), loop.Latest().Seq)
}

func TestLoopKeepsNewestFrame(t *testing.T) {
	q := stream.NewQueue[*core.Frame](2, nil)
	loop := NewLoop(q, filter.NewCell(filter.Native()), EndHold, quietEntry())
	defer loop.Close()

	require.NoError(t, q.Send(newFrame(1, 0)))
	require.NoError(t, q.Send(newFrame(2, 0)))

	require.True(t, loop.Poll())
	require.True(t, loop.Poll())
	assert.Equal(t, uint64(2), loop.Latest().Seq)
	assert.Equal(t, uint64(2), loop.Received())
}

func TestLoopHoldsAfterStreamEnds(t *testing.T) {
	q := stream.NewQueue[*core.Frame](2, nil)
	loop := NewLoop(q, filter.NewCell(filter.Native()), EndHold, quietEntry())
	defer loop.Close()

	require.NoError(t, q.Send(newFrame(1, 0)))
	q.CloseSend()

	assert.True(t, loop.Poll())
	assert.False(t, loop.Ended())
	assert.False(t, loop.Poll())
	assert.True(t, loop.Ended())

	for i := 0; i < 3; i++ {
		assert.False(t, loop.Poll())
		assert.Equal(t, StatusStreamEnded, loop.Status())
	}
	assert.False(t, loop.ShouldExit())
	assert.NotNil(t, loop.Latest(), "last frame stays visible")
}

func TestLoopExitPolicy(t *testing.T) {
	l := stream.NewLatest[*core.Frame](nil)
	loop := NewLoop(l, filter.NewCell(filter.Native()), EndExit, quietEntry())
	defer loop.Close()

	l.CloseSend()
	loop.Poll()

	assert.True(t, loop.Ended())
	assert.True(t, loop.ShouldExit())
	assert.Equal(t, StatusStreamEnded, loop.Status())
}

func TestLoopCommitWritesWholeSnapshot(t *testing.T) {
	cell := filter.NewCell(filter.Native())
	loop := NewLoop(stream.NewLatest[*core.Frame](nil), cell, "", quietEntry())
	defer loop.Close()

	s := loop.Settings()
	s.CannyLow = 7
	s.Flip = true
	loop.Commit(s)

	assert.Equal(t, s, cell.Load())
	assert.Equal(t, uint64(1), loop.Commits())
}

func TestLoopCloseReleasesReceiver(t *testing.T) {
	q := stream.NewQueue[*core.Frame](1, func(f *core.Frame) { f.Close() })
	loop := NewLoop(q, filter.NewCell(filter.Native()), EndHold, quietEntry())

	require.NoError(t, q.Send(newFrame(1, 0)))
	require.True(t, loop.Poll())
	loop.Close()

	assert.Nil(t, loop.Latest())
	assert.ErrorIs(t, q.Send(newFrame(2, 0)), stream.ErrReceiverClosed)
	q.CloseSend()
}

func TestIsQuitKey(t *testing.T) {
	for _, key := range []int{'q', 'Q', 27, 0x100000 | 'q'} {
		assert.True(t, isQuitKey(key), "key %d", key)
	}
	for _, key := range []int{-1, 0, 255, ' ', 'a', 13} {
		assert.False(t, isQuitKey(key), "key %d", key)
	}
}
