// Frame devices: webcams through GoCV and a synthetic pattern generator
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrDeviceOpen is returned when a capture device cannot be opened
var ErrDeviceOpen = errors.New("cannot open capture device")

// Device delivers raw BGR frames. Read blocks until a frame is available
// and reports false when no frame could be decoded.
type Device interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// Camera is a webcam opened through OpenCV
type Camera struct {
	index   int
	capture *gocv.VideoCapture
}

// OpenCamera opens the webcam at index and requests fps frames per
// second. Drivers are free to ignore the request.
func OpenCamera(index int, fps float64) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %v", ErrDeviceOpen, index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: camera %d is not opened", ErrDeviceOpen, index)
	}
	if fps > 0 {
		capture.Set(gocv.VideoCaptureFPS, fps)
	}
	return &Camera{index: index, capture: capture}, nil
}

func (c *Camera) Read(dst *gocv.Mat) bool {
	return c.capture.Read(dst) && !dst.Empty()
}

func (c *Camera) Close() error {
	return c.capture.Close()
}

// Info describes what the driver actually negotiated
func (c *Camera) Info() string {
	return fmt.Sprintf("camera %d %.0fx%.0f @ %.1f fps",
		c.index,
		c.capture.Get(gocv.VideoCaptureFrameWidth),
		c.capture.Get(gocv.VideoCaptureFrameHeight),
		c.capture.Get(gocv.VideoCaptureFPS))
}

// Synthetic renders a bright square sliding over a dark background. It
// stands in for a webcam on machines without one.
type Synthetic struct {
	Width  int
	Height int
	FPS    float64
	// Limit stops delivering frames after that many reads when positive,
	// after which every Read fails.
	Limit int

	mu     sync.Mutex
	frames int
	last   time.Time
	closed bool
}

// NewSynthetic creates a width x height pattern source paced at fps
func NewSynthetic(width, height int, fps float64) *Synthetic {
	return &Synthetic{Width: width, Height: height, FPS: fps}
}

func (s *Synthetic) Read(dst *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (s.Limit > 0 && s.frames >= s.Limit) {
		return false
	}
	s.pace()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 30, 20, 0), s.Height, s.Width, gocv.MatTypeCV8UC3)
	defer frame.Close()

	side := s.Height / 3
	travel := s.Width - side
	x := 0
	if travel > 0 {
		x = (s.frames * 4) % travel
	}
	y := (s.Height - side) / 2
	gocv.Rectangle(&frame, image.Rect(x, y, x+side, y+side), color.RGBA{R: 230, G: 200, B: 60, A: 255}, -1)

	if err := frame.CopyTo(dst); err != nil {
		return false
	}
	s.frames++
	return true
}

func (s *Synthetic) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Synthetic) pace() {
	if s.FPS <= 0 {
		return
	}
	interval := time.Duration(float64(time.Second) / s.FPS)
	if !s.last.IsZero() {
		if wait := interval - time.Since(s.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	s.last = time.Now()
}
