// Temporal moving average over raw frames
package algorithms

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by Average before anything was pushed
var ErrNoFrames = errors.New("moving average has no frames")

// MovingAverage keeps the last Size frames and averages them pixel-wise.
// It is not safe for concurrent use; the capture goroutine owns it.
type MovingAverage struct {
	size   int
	buffer []gocv.Mat
}

// NewMovingAverage creates an average over at most size frames
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{
		size:   size,
		buffer: make([]gocv.Mat, 0, size),
	}
}

// Size returns the window length
func (m *MovingAverage) Size() int { return m.size }

// Len returns how many frames are currently buffered
func (m *MovingAverage) Len() int { return len(m.buffer) }

// Resize changes the window length, dropping the oldest frames if needed
func (m *MovingAverage) Resize(size int) {
	if size < 1 {
		size = 1
	}
	m.size = size
	for len(m.buffer) > m.size {
		m.popOldest()
	}
}

// Push adds a copy of mat, evicting the oldest frame when the window is
// full. A frame whose geometry or type differs from the buffered ones
// restarts the average.
func (m *MovingAverage) Push(mat gocv.Mat) {
	if len(m.buffer) > 0 && !sameGeometry(m.buffer[0], mat) {
		m.Reset()
	}
	if len(m.buffer) == m.size {
		m.popOldest()
	}
	m.buffer = append(m.buffer, mat.Clone())
}

// Average returns the mean of the buffered frames in the input type.
// It divides by the current occupancy, so it is defined before the
// window fills.
func (m *MovingAverage) Average() (gocv.Mat, error) {
	if len(m.buffer) == 0 {
		return gocv.NewMat(), ErrNoFrames
	}

	first := m.buffer[0]
	if len(m.buffer) == 1 {
		return first.Clone(), nil
	}

	sum := gocv.NewMat()
	defer sum.Close()
	if err := first.ConvertTo(&sum, gocv.MatTypeCV32F); err != nil {
		return gocv.NewMat(), fmt.Errorf("convert frame to float: %w", err)
	}

	sample := gocv.NewMat()
	defer sample.Close()
	for _, frame := range m.buffer[1:] {
		if err := frame.ConvertTo(&sample, gocv.MatTypeCV32F); err != nil {
			return gocv.NewMat(), fmt.Errorf("convert frame to float: %w", err)
		}
		if err := gocv.Add(sum, sample, &sum); err != nil {
			return gocv.NewMat(), fmt.Errorf("accumulate frame: %w", err)
		}
	}

	sum.DivideFloat(float32(len(m.buffer)))

	out := gocv.NewMat()
	if err := sum.ConvertTo(&out, first.Type()); err != nil {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("convert average back to %v: %w", first.Type(), err)
	}
	if out.Empty() {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("convert average back to %v", first.Type())
	}
	return out, nil
}

// Reset drops every buffered frame
func (m *MovingAverage) Reset() {
	for _, mat := range m.buffer {
		mat.Close()
	}
	m.buffer = m.buffer[:0]
}

// Close releases the buffered frames
func (m *MovingAverage) Close() {
	m.Reset()
}

func (m *MovingAverage) popOldest() {
	m.buffer[0].Close()
	copy(m.buffer, m.buffer[1:])
	m.buffer[len(m.buffer)-1] = gocv.Mat{}
	m.buffer = m.buffer[:len(m.buffer)-1]
}

func sameGeometry(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Type() == b.Type()
}
