package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"camlab/internal/core"
	"camlab/internal/metrics"
	"camlab/internal/stream"
)

// ErrFailureLimit is reported when the device failed too many times in a row
var ErrFailureLimit = errors.New("exceeded consecutive read failure limit")

// DefaultFailureLimit is the number of consecutive failed reads tolerated
const DefaultFailureLimit = 30

// Config selects and tunes the frame device
type Config struct {
	Device       int
	FPS          float64
	FailureLimit int
	Synthetic    bool
	Width        int
	Height       int
}

// Opener creates the device described by a Config
type Opener func(Config) (Device, error)

// DefaultOpener opens a webcam, or the synthetic pattern when asked to
func DefaultOpener(cfg Config) (Device, error) {
	if cfg.Synthetic {
		return NewSynthetic(cfg.Width, cfg.Height, cfg.FPS), nil
	}
	return OpenCamera(cfg.Device, cfg.FPS)
}

// Stats counts what a Source did so far
type Stats struct {
	Published uint64
	Skipped   uint64
	Failures  uint64
}

// Source owns a device and the goroutine that reads it
type Source struct {
	id     string
	cfg    Config
	device Device
	logger *logrus.Entry

	started   atomic.Bool
	done      chan struct{}
	err       error
	published atomic.Uint64
	skipped   atomic.Uint64
	failures  atomic.Uint64
	closeOnce sync.Once
}

// Open opens the device described by cfg. Failing to open the device is
// returned to the caller; nothing is started yet.
func Open(cfg Config, opener Opener, logger *logrus.Entry) (*Source, error) {
	if opener == nil {
		opener = DefaultOpener
	}
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = DefaultFailureLimit
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	device, err := opener(cfg)
	if err != nil {
		if !errors.Is(err, ErrDeviceOpen) {
			err = fmt.Errorf("%w: %v", ErrDeviceOpen, err)
		}
		return nil, err
	}

	id := uuid.New().String()
	s := &Source{
		id:     id,
		cfg:    cfg,
		device: device,
		logger: logger.WithFields(logrus.Fields{"component": "capture", "source_id": id}),
		done:   make(chan struct{}),
	}

	fields := logrus.Fields{"device": cfg.Device, "synthetic": cfg.Synthetic}
	if camera, ok := device.(*Camera); ok {
		fields["info"] = camera.Info()
	}
	s.logger.WithFields(fields).Debug("Opened capture device")

	return s, nil
}

// ID identifies the source in logs
func (s *Source) ID() string { return s.id }

// Start launches the capture goroutine. Every frame goes through
// transform (nil means publish the raw frame) and then to out. When the
// goroutine stops it closes the device and out, so the receiving side
// observes the end of the stream.
func (s *Source) Start(transform core.Transform, out stream.Sender[*core.Frame]) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("source %s already started", s.id)
	}
	go s.run(transform, out)
	return nil
}

// Done is closed once the capture goroutine has exited
func (s *Source) Done() <-chan struct{} { return s.done }

// Err reports why the goroutine stopped. It returns nil while running and
// after a clean stop caused by the receiver going away.
func (s *Source) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stats returns the current counters
func (s *Source) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Skipped:   s.skipped.Load(),
		Failures:  s.failures.Load(),
	}
}

// Close releases the device of a source that was never started
func (s *Source) Close() error {
	if s.started.Load() {
		return nil
	}
	return s.closeDevice()
}

func (s *Source) closeDevice() error {
	var err error
	s.closeOnce.Do(func() { err = s.device.Close() })
	return err
}

func (s *Source) run(transform core.Transform, out stream.Sender[*core.Frame]) {
	started := time.Now()
	defer func() {
		if err := s.closeDevice(); err != nil {
			s.logger.WithError(err).Warn("Failed to close capture device")
		}
		out.CloseSend()

		s.logger.WithFields(logrus.Fields{
			"published": s.published.Load(),
			"skipped":   s.skipped.Load(),
			"failures":  s.failures.Load(),
			"duration":  time.Since(started).Round(time.Millisecond),
			"error":     s.err,
		}).Debug("End of capture loop")
		close(s.done)
	}()

	rate := metrics.NewFrameRate(metrics.DefaultRateWindow)
	buffer := gocv.NewMat()
	defer buffer.Close()

	consecutive := 0
	var seq uint64
	for {
		if !s.device.Read(&buffer) || buffer.Empty() {
			consecutive++
			s.failures.Add(1)
			s.logger.WithField("fails", consecutive).Error("Failed to read frame")
			if consecutive >= s.cfg.FailureLimit {
				s.logger.WithField("limit", s.cfg.FailureLimit).Error("Exceeded error limit")
				s.err = fmt.Errorf("%w: %d consecutive failures", ErrFailureLimit, consecutive)
				return
			}
			continue
		}
		consecutive = 0

		seq++
		now := time.Now()
		frame := core.NewFrame(buffer.Clone())
		frame.Seq = seq
		frame.Captured = now
		frame.FPS = rate.Tick(now)
		frame.TraceID = uuid.New().String()

		result := frame
		if transform != nil {
			var err error
			result, err = transform(frame)
			if err != nil {
				s.skipped.Add(1)
				s.logger.WithError(err).WithField("seq", seq).Warn("Frame transform failed")
				continue
			}
		}
		if result.Empty() {
			s.skipped.Add(1)
			result.Close()
			continue
		}

		// the channel owns result from here on, delivered or discarded
		if err := out.Send(result); err != nil {
			if errors.Is(err, stream.ErrReceiverClosed) {
				s.logger.Debug("Image receiver dropped")
				return
			}
			s.err = fmt.Errorf("publish frame %d: %w", seq, err)
			return
		}
		s.published.Add(1)
	}
}
