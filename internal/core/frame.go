// Frame container shared by the capture, filter and display stages
package core

import (
	"errors"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a frame carries no pixel data.
var ErrEmptyFrame = errors.New("frame is empty")

// maxDimension guards against absurd frame sizes reported by broken drivers.
const maxDimension = 16384

// Frame is one decoded image travelling through the pipeline.
//
// A Frame owns its Mat. Whoever holds the frame last must call Close;
// handing a frame to the next stage hands over that duty as well.
type Frame struct {
	Mat      gocv.Mat
	Seq      uint64
	Captured time.Time
	FPS      float64
	TraceID  string
}

// Transform turns a captured frame into the frame to publish.
//
// It receives ownership of the input. Returning (nil, nil) skips the frame;
// an error skips it too and is logged by the caller.
type Transform func(*Frame) (*Frame, error)

// NewFrame wraps mat in a Frame. The frame takes ownership of mat.
func NewFrame(mat gocv.Mat) *Frame {
	return &Frame{Mat: mat, Captured: time.Now()}
}

// Width returns the frame width in pixels
func (f *Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels
func (f *Frame) Height() int { return f.Mat.Rows() }

// Channels returns 3 for colour frames and 1 for intensity frames
func (f *Frame) Channels() int { return f.Mat.Channels() }

// Empty reports whether the frame has no pixel data
func (f *Frame) Empty() bool {
	return f == nil || f.Mat.Empty()
}

// WithMat returns a new frame carrying mat and the metadata of f.
// The caller keeps ownership of f.
func (f *Frame) WithMat(mat gocv.Mat) *Frame {
	return &Frame{
		Mat:      mat,
		Seq:      f.Seq,
		Captured: f.Captured,
		FPS:      f.FPS,
		TraceID:  f.TraceID,
	}
}

// Age returns how long ago the frame was captured
func (f *Frame) Age() time.Duration {
	return time.Since(f.Captured)
}

// ToImage converts the frame for display. BGR frames come out as RGBA,
// single channel frames as *image.Gray.
func (f *Frame) ToImage() (image.Image, error) {
	if f.Empty() {
		return nil, ErrEmptyFrame
	}
	img, err := f.Mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame %d: %w", f.Seq, err)
	}
	return img, nil
}

// Close releases the underlying Mat. Closing a nil frame is a no-op.
func (f *Frame) Close() {
	if f == nil {
		return
	}
	f.Mat.Close()
}

// String describes the frame geometry for logs
func (f *Frame) String() string {
	if f.Empty() {
		return "frame(empty)"
	}
	return fmt.Sprintf("frame(%d %dx%dx%d)", f.Seq, f.Width(), f.Height(), f.Channels())
}

// ValidateFrame checks that a Mat is usable as an 8-bit 1 or 3 channel frame
func ValidateFrame(mat gocv.Mat) error {
	if mat.Empty() {
		return ErrEmptyFrame
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels != 1 && channels != 3 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("frame too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
