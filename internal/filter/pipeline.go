// Frame pipeline driven by a Settings snapshot
package filter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"camlab/internal/algorithms"
	"camlab/internal/core"
)

// Pipeline applies Settings to frames. It keeps the moving-average history
// between frames, so one Pipeline serves exactly one frame source and must
// only be used from that source's goroutine.
type Pipeline struct {
	logger  *logrus.Entry
	average *algorithms.MovingAverage
	last    *Settings
}

// NewPipeline creates an empty pipeline
func NewPipeline(logger *logrus.Entry) *Pipeline {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		logger:  logger.WithField("component", "pipeline"),
		average: algorithms.NewMovingAverage(1),
	}
}

// Stages returns the per-frame stages selected by s, in execution order.
// The moving average is not part of the list because it keeps state.
func Stages(s Settings) []algorithms.Stage {
	var stages []algorithms.Stage

	resize := algorithms.NewResize(s.Scale, s.Interpolation)
	switch {
	case !s.Grayscale:
		stages = append(stages, resize)
	case s.GrayBeforeScale:
		stages = append(stages, algorithms.NewGrayscale(), resize)
	default:
		stages = append(stages, resize, algorithms.NewGrayscale())
	}

	if s.BlurEnabled {
		stages = append(stages, algorithms.NewGaussianBlur(s.BlurSigma, s.BlurKernel))
	}
	if s.BilateralEnabled {
		stages = append(stages, algorithms.NewBilateral(s.BilateralDiameter, s.BilateralSigmaColor, s.BilateralSigmaSpace))
	}
	if s.CannyEnabled {
		stages = append(stages, algorithms.NewCanny(s.CannyLow, s.CannyHigh))
	}
	if s.Flip {
		stages = append(stages, algorithms.NewFlip())
	}
	return stages
}

// Process runs frame through the stages selected by s and returns a new
// frame with the same metadata. The caller keeps ownership of frame.
func (p *Pipeline) Process(frame *core.Frame, s Settings) (*core.Frame, error) {
	if frame == nil {
		return nil, core.ErrEmptyFrame
	}
	if err := core.ValidateFrame(frame.Mat); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.Seq, err)
	}

	p.observe(s)

	source := frame.Mat
	if s.AverageEnabled() {
		p.average.Push(frame.Mat)
		averaged, err := p.average.Average()
		if err != nil {
			averaged.Close()
			return nil, fmt.Errorf("average frame %d: %w", frame.Seq, err)
		}
		defer averaged.Close()
		source = averaged
	}

	out, err := algorithms.Chain(source, Stages(s)...)
	if err != nil {
		return nil, fmt.Errorf("process frame %d: %w", frame.Seq, err)
	}
	return frame.WithMat(out), nil
}

// Transform returns the function the frame source applies to every
// captured frame. The cell is read once per frame, so a change from the
// control panel takes effect on the next captured frame.
func (p *Pipeline) Transform(cell *Cell) core.Transform {
	return func(frame *core.Frame) (*core.Frame, error) {
		defer frame.Close()
		return p.Process(frame, cell.Load())
	}
}

// Close releases the moving-average history
func (p *Pipeline) Close() {
	p.average.Close()
}

// observe adjusts the moving average to s and logs configuration changes
func (p *Pipeline) observe(s Settings) {
	if p.last != nil && *p.last == s {
		return
	}

	window := s.AverageWindow
	if window < 1 {
		window = 1
	}
	if p.last == nil || p.last.AverageWindow != s.AverageWindow {
		p.average.Reset()
		p.average.Resize(window)
	}

	p.logger.WithFields(logrus.Fields{
		"settings": s.String(),
		"stages":   stageNames(Stages(s)),
	}).Debug("Pipeline configuration changed")

	p.last = &s
}

func stageNames(stages []algorithms.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.Name())
	}
	return names
}
