// Filter settings shared between the control panel and the capture goroutine
package filter

import (
	"fmt"
	"sort"
	"strings"

	"camlab/internal/algorithms"
)

// Settings is one immutable snapshot of the pipeline configuration.
// Stages run in a fixed order: moving average, resize and grayscale (in
// the order chosen by GrayBeforeScale), Gaussian blur, bilateral, Canny
// and flip.
type Settings struct {
	Scale           float64                  `toml:"scale" yaml:"scale"`
	Interpolation   algorithms.Interpolation `toml:"interpolation" yaml:"interpolation"`
	Grayscale       bool                     `toml:"grayscale" yaml:"grayscale"`
	GrayBeforeScale bool                     `toml:"gray_before_scale" yaml:"gray_before_scale"`

	BlurEnabled bool    `toml:"blur" yaml:"blur"`
	BlurSigma   float64 `toml:"blur_sigma" yaml:"blur_sigma"`
	BlurKernel  int     `toml:"blur_kernel" yaml:"blur_kernel"`

	BilateralEnabled    bool    `toml:"bilateral" yaml:"bilateral"`
	BilateralDiameter   int     `toml:"bilateral_diameter" yaml:"bilateral_diameter"`
	BilateralSigmaColor float64 `toml:"bilateral_sigma_color" yaml:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `toml:"bilateral_sigma_space" yaml:"bilateral_sigma_space"`

	CannyEnabled bool    `toml:"canny" yaml:"canny"`
	CannyLow     float64 `toml:"canny_low" yaml:"canny_low"`
	CannyHigh    float64 `toml:"canny_high" yaml:"canny_high"`

	Flip bool `toml:"flip" yaml:"flip"`

	// AverageWindow of 0 or 1 disables the temporal average
	AverageWindow int `toml:"average_window" yaml:"average_window"`
}

// Control ranges offered by the preview panel. Validate uses the same bounds.
const (
	ScaleMin        = 1.0
	ScaleMax        = 8.0
	BlurSigmaMin    = 1.0
	BlurSigmaMax    = 20.0
	CannyMin        = 1.0
	CannyMax        = 50.0
	BilateralMaxD   = 20
	BilateralMaxSig = 200.0
	AverageMax      = 10
)

// Native is the pure resize/grayscale/blur/Canny lab: a quarter-size
// intensity edge map.
func Native() Settings {
	return Settings{
		Scale:         4,
		Interpolation: algorithms.Nearest,
		Grayscale:     true,
		BlurEnabled:   true,
		BlurSigma:     4,
		CannyEnabled:  true,
		CannyLow:      5,
		CannyHigh:     15,
	}
}

// OpenCV is the full-resolution colour blur and Canny lab
func OpenCV() Settings {
	return Settings{
		Scale:         1,
		Interpolation: algorithms.Nearest,
		BlurEnabled:   true,
		BlurSigma:     1,
		CannyEnabled:  true,
		CannyLow:      10,
		CannyHigh:     15,
	}
}

// HighGUI is the fixed chain shown in the OpenCV window
func HighGUI() Settings {
	return Settings{
		Scale:               1,
		Interpolation:       algorithms.Nearest,
		BlurEnabled:         true,
		BlurSigma:           4,
		BlurKernel:          5,
		BilateralEnabled:    true,
		BilateralDiameter:   10,
		BilateralSigmaColor: 100,
		BilateralSigmaSpace: 100,
		CannyEnabled:        true,
		CannyLow:            10,
		CannyHigh:           15,
		Flip:                true,
		AverageWindow:       5,
	}
}

// Basic only shrinks the colour frame to 30% of its size
func Basic() Settings {
	return Settings{
		Scale:         10.0 / 3.0,
		Interpolation: algorithms.Nearest,
	}
}

var presets = map[string]func() Settings{
	"native":  Native,
	"opencv":  OpenCV,
	"highgui": HighGUI,
	"basic":   Basic,
}

// Preset returns the named settings
func Preset(name string) (Settings, error) {
	fn, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Settings{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return fn(), nil
}

// PresetNames lists the presets alphabetically
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AverageEnabled reports whether frames are averaged over time
func (s Settings) AverageEnabled() bool {
	return s.AverageWindow > 1
}

// ClampCanny returns s with CannyLow and CannyHigh pulled into range and
// ordered. The control panel calls it on every slider move.
func (s Settings) ClampCanny() Settings {
	s.CannyLow = clamp(s.CannyLow, CannyMin, CannyMax)
	s.CannyHigh = clamp(s.CannyHigh, CannyMin, CannyMax)
	if s.CannyLow > s.CannyHigh {
		s.CannyLow = s.CannyHigh
	}
	return s
}

// Validate lists everything wrong with s. An empty result means the
// settings can be handed to a Pipeline.
func (s Settings) Validate() []string {
	var problems []string

	if s.Scale < ScaleMin || s.Scale > ScaleMax {
		problems = append(problems, fmt.Sprintf("scale %.2f outside [%.0f, %.0f]", s.Scale, ScaleMin, ScaleMax))
	}
	if _, err := algorithms.ParseInterpolation(string(s.Interpolation)); err != nil {
		problems = append(problems, err.Error())
	}
	if s.BlurEnabled && (s.BlurSigma < BlurSigmaMin || s.BlurSigma > BlurSigmaMax) {
		problems = append(problems, fmt.Sprintf("blur sigma %.2f outside [%.0f, %.0f]", s.BlurSigma, BlurSigmaMin, BlurSigmaMax))
	}
	if s.BlurKernel < 0 {
		problems = append(problems, fmt.Sprintf("blur kernel %d is negative", s.BlurKernel))
	}
	if s.BilateralEnabled {
		if s.BilateralDiameter < 1 || s.BilateralDiameter > BilateralMaxD {
			problems = append(problems, fmt.Sprintf("bilateral diameter %d outside [1, %d]", s.BilateralDiameter, BilateralMaxD))
		}
		if s.BilateralSigmaColor <= 0 || s.BilateralSigmaColor > BilateralMaxSig {
			problems = append(problems, fmt.Sprintf("bilateral sigma color %.1f outside (0, %.0f]", s.BilateralSigmaColor, BilateralMaxSig))
		}
		if s.BilateralSigmaSpace <= 0 || s.BilateralSigmaSpace > BilateralMaxSig {
			problems = append(problems, fmt.Sprintf("bilateral sigma space %.1f outside (0, %.0f]", s.BilateralSigmaSpace, BilateralMaxSig))
		}
	}
	if s.CannyEnabled {
		if s.CannyLow < CannyMin || s.CannyHigh > CannyMax {
			problems = append(problems, fmt.Sprintf("canny thresholds %.1f/%.1f outside [%.0f, %.0f]", s.CannyLow, s.CannyHigh, CannyMin, CannyMax))
		}
		if s.CannyLow > s.CannyHigh {
			problems = append(problems, fmt.Sprintf("canny low %.1f above high %.1f", s.CannyLow, s.CannyHigh))
		}
	}
	if s.AverageWindow < 0 || s.AverageWindow > AverageMax {
		problems = append(problems, fmt.Sprintf("average window %d outside [0, %d]", s.AverageWindow, AverageMax))
	}

	return problems
}

// String is used when logging configuration changes
func (s Settings) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scale=%.2f/%s gray=%t gray_first=%t", s.Scale, s.Interpolation, s.Grayscale, s.GrayBeforeScale)
	if s.AverageEnabled() {
		fmt.Fprintf(&b, " avg=%d", s.AverageWindow)
	}
	if s.BlurEnabled {
		fmt.Fprintf(&b, " blur=%.1f", s.BlurSigma)
	}
	if s.BilateralEnabled {
		fmt.Fprintf(&b, " bilateral=%d/%.0f/%.0f", s.BilateralDiameter, s.BilateralSigmaColor, s.BilateralSigmaSpace)
	}
	if s.CannyEnabled {
		fmt.Fprintf(&b, " canny=%.0f/%.0f", s.CannyLow, s.CannyHigh)
	}
	if s.Flip {
		b.WriteString(" flip")
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
