// Per-frame filters: resize, grayscale, blur, bilateral, Canny, flip
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ScaledSize returns the frame size after dividing both sides by scale.
// A scale of 1 or less keeps the size.
func ScaledSize(cols, rows int, scale float64) image.Point {
	if scale <= 1 {
		return image.Point{X: cols, Y: rows}
	}
	w := int(float64(cols)/scale + 1e-9)
	h := int(float64(rows)/scale + 1e-9)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Point{X: w, Y: h}
}

// NewResize shrinks frames by the integer or fractional divisor scale
func NewResize(scale float64, interpolation Interpolation) Stage {
	return NewStageFunc("resize", func(input gocv.Mat) (gocv.Mat, error) {
		size := ScaledSize(input.Cols(), input.Rows(), scale)
		if size.X == input.Cols() && size.Y == input.Rows() {
			return input.Clone(), nil
		}

		output := gocv.NewMat()
		if err := gocv.Resize(input, &output, size, 0, 0, interpolation.flags()); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("resize to %dx%d: %w", size.X, size.Y, err)
		}
		return output, nil
	})
}

// NewGrayscale converts BGR frames to a single intensity channel.
// Frames that already have one channel pass through unchanged.
func NewGrayscale() Stage {
	return NewStageFunc("grayscale", func(input gocv.Mat) (gocv.Mat, error) {
		if input.Channels() == 1 {
			return input.Clone(), nil
		}

		output := gocv.NewMat()
		if err := gocv.CvtColor(input, &output, gocv.ColorBGRToGray); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("convert to gray: %w", err)
		}
		return output, nil
	})
}

// NewGaussianBlur blurs with the given sigma. A kernel of 0 lets OpenCV
// derive the kernel size from sigma; any other value is forced odd.
func NewGaussianBlur(sigma float64, kernel int) Stage {
	if kernel > 0 && kernel%2 == 0 {
		kernel++
	}
	return NewStageFunc("gaussian_blur", func(input gocv.Mat) (gocv.Mat, error) {
		output := gocv.NewMat()
		ksize := image.Point{X: kernel, Y: kernel}
		if err := gocv.GaussianBlur(input, &output, ksize, sigma, sigma, gocv.BorderDefault); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("gaussian blur sigma %.2f: %w", sigma, err)
		}
		return output, nil
	})
}

// NewBilateral applies an edge-preserving bilateral filter
func NewBilateral(diameter int, sigmaColor, sigmaSpace float64) Stage {
	return NewStageFunc("bilateral", func(input gocv.Mat) (gocv.Mat, error) {
		output := gocv.NewMat()
		if err := gocv.BilateralFilter(input, &output, diameter, sigmaColor, sigmaSpace); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("bilateral filter: %w", err)
		}
		return output, nil
	})
}

// NewCanny detects edges with the hysteresis thresholds low and high.
// The result is a single channel mask of 0 and 255.
// Callers keep low <= high.
func NewCanny(low, high float64) Stage {
	return NewStageFunc("canny", func(input gocv.Mat) (gocv.Mat, error) {
		output := gocv.NewMat()
		if err := gocv.Canny(input, &output, float32(low), float32(high)); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("canny %.1f/%.1f: %w", low, high, err)
		}
		if output.Empty() {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("canny %.1f/%.1f produced no output", low, high)
		}
		return output, nil
	})
}

// NewFlip mirrors frames horizontally
func NewFlip() Stage {
	return NewStageFunc("flip", func(input gocv.Mat) (gocv.Mat, error) {
		output := gocv.NewMat()
		if err := gocv.Flip(input, &output, 1); err != nil {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("flip: %w", err)
		}
		if output.Empty() {
			output.Close()
			return gocv.NewMat(), fmt.Errorf("flip produced no output")
		}
		return output, nil
	})
}
