// Image filter stages built on GoCV
package algorithms

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Stage is one step of a frame pipeline.
//
// Apply never modifies or closes its input; it returns a new Mat that the
// caller owns.
type Stage interface {
	Name() string
	Apply(input gocv.Mat) (gocv.Mat, error)
}

// StageFunc adapts a plain function to Stage
type StageFunc struct {
	name string
	fn   func(gocv.Mat) (gocv.Mat, error)
}

func NewStageFunc(name string, fn func(gocv.Mat) (gocv.Mat, error)) StageFunc {
	return StageFunc{name: name, fn: fn}
}

func (s StageFunc) Name() string { return s.name }

func (s StageFunc) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("%s: input image is empty", s.name)
	}
	return s.fn(input)
}

// Interpolation names a resize filter
type Interpolation string

const (
	Nearest  Interpolation = "nearest"
	Linear   Interpolation = "linear"
	Cubic    Interpolation = "cubic"
	Area     Interpolation = "area"
	Lanczos4 Interpolation = "lanczos4"
)

// Interpolations lists the supported resize filters in UI order
func Interpolations() []Interpolation {
	return []Interpolation{Nearest, Linear, Cubic, Area, Lanczos4}
}

// ParseInterpolation maps a name to an Interpolation
func ParseInterpolation(name string) (Interpolation, error) {
	in := Interpolation(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Interpolations() {
		if in == known {
			return in, nil
		}
	}
	return "", fmt.Errorf("unknown interpolation: %s", name)
}

func (i Interpolation) flags() gocv.InterpolationFlags {
	switch i {
	case Linear:
		return gocv.InterpolationLinear
	case Cubic:
		return gocv.InterpolationCubic
	case Area:
		return gocv.InterpolationArea
	case Lanczos4:
		return gocv.InterpolationLanczos4
	default:
		return gocv.InterpolationNearestNeighbor
	}
}

// Chain applies stages in order, closing every intermediate result.
func Chain(input gocv.Mat, stages ...Stage) (gocv.Mat, error) {
	current := input.Clone()
	for _, stage := range stages {
		if stage == nil {
			continue
		}
		result, err := stage.Apply(current)
		current.Close()
		if err != nil {
			result.Close()
			return gocv.NewMat(), fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		if result.Empty() {
			result.Close()
			return gocv.NewMat(), fmt.Errorf("stage %s returned empty result", stage.Name())
		}
		current = result
	}
	return current, nil
}
