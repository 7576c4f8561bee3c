package gui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"camlab/internal/core"
	"camlab/internal/filter"
	"camlab/internal/stream"
)

// Placeholder texts shown instead of, or on top of, the image
const (
	StatusNoImage     = "no image received from processing pipeline"
	StatusStreamEnded = "stream ended"
)

// EndPolicy decides what the display does once the frame source stops
type EndPolicy string

const (
	// EndHold keeps the window open with a persistent message
	EndHold EndPolicy = "hold"
	// EndExit closes the window
	EndExit EndPolicy = "exit"
)

// ParseEndPolicy maps a configuration value to an EndPolicy. An empty
// string selects EndHold.
func ParseEndPolicy(value string) (EndPolicy, error) {
	switch EndPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", EndHold:
		return EndHold, nil
	case EndExit:
		return EndExit, nil
	default:
		return "", fmt.Errorf("unknown stream end policy: %s", value)
	}
}

// Loop is the toolkit independent part of a display: it pulls frames from
// the channel, remembers the latest one and writes settings back to the
// cell. A Loop belongs to the UI goroutine.
type Loop struct {
	rx     stream.Receiver[*core.Frame]
	cell   *filter.Cell
	policy EndPolicy
	logger *logrus.Entry

	latest   *core.Frame
	ended    bool
	received uint64
	commits  uint64
}

// NewLoop creates a display loop reading rx and writing cell
func NewLoop(rx stream.Receiver[*core.Frame], cell *filter.Cell, policy EndPolicy, logger *logrus.Entry) *Loop {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if policy == "" {
		policy = EndHold
	}
	return &Loop{
		rx:     rx,
		cell:   cell,
		policy: policy,
		logger: logger.WithField("component", "display"),
	}
}

// Poll performs one non-blocking receive. It reports whether a new frame
// replaced the previous one; the previous frame is released.
func (l *Loop) Poll() bool {
	if l.ended {
		return false
	}

	frame, err := l.rx.TryRecv()
	switch {
	case err == nil:
		if frame.Empty() {
			frame.Close()
			return false
		}
		l.latest.Close()
		l.latest = frame
		l.received++
		return true
	case errors.Is(err, stream.ErrEmpty):
		return false
	case errors.Is(err, stream.ErrClosed):
		l.ended = true
		l.logger.WithFields(logrus.Fields{
			"received": l.received,
			"policy":   l.policy,
		}).Warn("Frame stream ended")
		return false
	default:
		l.logger.WithError(err).Error("Unexpected receive error")
		return false
	}
}

// Latest returns the frame currently on display, or nil. The loop keeps
// ownership.
func (l *Loop) Latest() *core.Frame { return l.latest }

// Ended reports whether the frame source has stopped
func (l *Loop) Ended() bool { return l.ended }

// ShouldExit reports whether the display should close now
func (l *Loop) ShouldExit() bool {
	return l.ended && l.policy == EndExit
}

// Status returns the placeholder text, or "" when a live image is shown
func (l *Loop) Status() string {
	switch {
	case l.ended:
		return StatusStreamEnded
	case l.latest == nil:
		return StatusNoImage
	default:
		return ""
	}
}

// FPS returns the producer frame rate carried by the latest frame
func (l *Loop) FPS() float64 {
	if l.latest == nil {
		return 0
	}
	return l.latest.FPS
}

// Received counts frames taken from the channel
func (l *Loop) Received() uint64 { return l.received }

// Commits counts settings snapshots written by this loop
func (l *Loop) Commits() uint64 { return l.commits }

// Settings returns the current snapshot from the cell
func (l *Loop) Settings() filter.Settings { return l.cell.Load() }

// Commit installs s as the whole new snapshot. The capture goroutine picks
// it up with its next frame.
func (l *Loop) Commit(s filter.Settings) {
	l.cell.Store(s)
	l.commits++
	l.logger.WithField("settings", s.String()).Debug("Changing configuration")
}

// Close releases the receiving side and the frame on display
func (l *Loop) Close() {
	l.rx.CloseRecv()
	l.latest.Close()
	l.latest = nil
}
