// internal/gui/controls.go
// Side panel with one control per filter setting
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"camlab/internal/algorithms"
	"camlab/internal/filter"
)

// ControlPanel edits a filter.Settings value. Any user change produces a
// complete snapshot which is passed to onChange.
type ControlPanel struct {
	container fyne.CanvasObject

	settings filter.Settings
	onChange func(filter.Settings)
	// syncing suppresses onChange while widgets are set programmatically
	syncing bool

	scale         *widget.Slider
	scaleLabel    *widget.Label
	interpolation *widget.Select
	grayscale     *widget.Check
	grayFirst     *widget.Check

	average      *widget.Slider
	averageLabel *widget.Label

	blur      *widget.Check
	blurSigma *widget.Slider
	blurLabel *widget.Label

	bilateral      *widget.Check
	bilateralD     *widget.Slider
	bilateralColor *widget.Slider
	bilateralSpace *widget.Slider
	bilateralLabel *widget.Label

	canny      *widget.Check
	cannyLow   *widget.Slider
	cannyHigh  *widget.Slider
	cannyLabel *widget.Label

	flip *widget.Check

	fpsLabel *widget.Label
}

// NewControlPanel builds the panel showing initial
func NewControlPanel(initial filter.Settings, onChange func(filter.Settings)) *ControlPanel {
	cp := &ControlPanel{
		settings: initial,
		onChange: onChange,
	}
	cp.initializeUI()
	cp.SetSettings(initial)
	return cp
}

func (cp *ControlPanel) initializeUI() {
	cp.scale = slider(filter.ScaleMin, filter.ScaleMax, 1)
	cp.scaleLabel = widget.NewLabel("")
	cp.scale.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.Scale = v })
	}

	names := make([]string, 0, len(algorithms.Interpolations()))
	for _, in := range algorithms.Interpolations() {
		names = append(names, string(in))
	}
	cp.interpolation = widget.NewSelect(names, func(selected string) {
		cp.update(func(s *filter.Settings) { s.Interpolation = algorithms.Interpolation(selected) })
	})

	cp.grayscale = widget.NewCheck("grayscale", func(checked bool) {
		cp.update(func(s *filter.Settings) { s.Grayscale = checked })
	})
	cp.grayFirst = widget.NewCheck("gray before scale", func(checked bool) {
		cp.update(func(s *filter.Settings) { s.GrayBeforeScale = checked })
	})

	cp.average = slider(0, filter.AverageMax, 1)
	cp.averageLabel = widget.NewLabel("")
	cp.average.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.AverageWindow = int(v) })
	}

	cp.blur = widget.NewCheck("gaussian blur", func(checked bool) {
		cp.update(func(s *filter.Settings) { s.BlurEnabled = checked })
	})
	cp.blurSigma = slider(filter.BlurSigmaMin, filter.BlurSigmaMax, 1)
	cp.blurLabel = widget.NewLabel("")
	cp.blurSigma.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.BlurSigma = v })
	}

	cp.bilateral = widget.NewCheck("bilateral", func(checked bool) {
		cp.update(func(s *filter.Settings) {
			s.BilateralEnabled = checked
			if checked && s.BilateralDiameter == 0 {
				hg := filter.HighGUI()
				s.BilateralDiameter = hg.BilateralDiameter
				s.BilateralSigmaColor = hg.BilateralSigmaColor
				s.BilateralSigmaSpace = hg.BilateralSigmaSpace
			}
		})
	})
	cp.bilateralD = slider(1, filter.BilateralMaxD, 1)
	cp.bilateralD.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.BilateralDiameter = int(v) })
	}
	cp.bilateralColor = slider(1, filter.BilateralMaxSig, 1)
	cp.bilateralColor.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.BilateralSigmaColor = v })
	}
	cp.bilateralSpace = slider(1, filter.BilateralMaxSig, 1)
	cp.bilateralSpace.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.BilateralSigmaSpace = v })
	}
	cp.bilateralLabel = widget.NewLabel("")

	cp.canny = widget.NewCheck("canny", func(checked bool) {
		cp.update(func(s *filter.Settings) { s.CannyEnabled = checked })
	})
	cp.cannyLow = slider(filter.CannyMin, filter.CannyMax, 1)
	cp.cannyLow.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.CannyLow = v })
	}
	cp.cannyHigh = slider(filter.CannyMin, filter.CannyMax, 1)
	cp.cannyHigh.OnChanged = func(v float64) {
		cp.update(func(s *filter.Settings) { s.CannyHigh = v })
	}
	cp.cannyLabel = widget.NewLabel("")

	cp.flip = widget.NewCheck("flip", func(checked bool) {
		cp.update(func(s *filter.Settings) { s.Flip = checked })
	})

	cp.fpsLabel = widget.NewLabelWithStyle("0.0", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})

	content := container.NewVBox(
		widget.NewCard("Scale", "", container.NewVBox(
			cp.grayFirst,
			cp.grayscale,
			container.NewBorder(nil, nil, nil, cp.scaleLabel, cp.scale),
			cp.interpolation,
		)),
		widget.NewCard("Average", "", container.NewBorder(nil, nil, nil, cp.averageLabel, cp.average)),
		widget.NewCard("Blur", "", container.NewVBox(
			cp.blur,
			container.NewBorder(nil, nil, nil, cp.blurLabel, cp.blurSigma),
		)),
		widget.NewCard("Bilateral", "", container.NewVBox(
			cp.bilateral,
			cp.bilateralD,
			cp.bilateralColor,
			cp.bilateralSpace,
			cp.bilateralLabel,
		)),
		widget.NewCard("Edges", "", container.NewVBox(
			cp.canny,
			cp.cannyLow,
			cp.cannyHigh,
			cp.cannyLabel,
		)),
		cp.flip,
		widget.NewSeparator(),
		cp.fpsLabel,
	)

	cp.container = container.NewVScroll(content)
}

func slider(min, max, step float64) *widget.Slider {
	s := widget.NewSlider(min, max)
	s.Step = step
	return s
}

// update applies edit to the current snapshot and reports the result
func (cp *ControlPanel) update(edit func(*filter.Settings)) {
	if cp.syncing {
		return
	}

	next := cp.settings
	edit(&next)
	next = next.ClampCanny()
	if next == cp.settings {
		return
	}

	cp.settings = next
	cp.refresh()
	if cp.onChange != nil {
		cp.onChange(next)
	}
}

// SetSettings shows s without reporting a change
func (cp *ControlPanel) SetSettings(s filter.Settings) {
	cp.settings = s.ClampCanny()
	cp.refresh()
}

// Settings returns the snapshot currently shown
func (cp *ControlPanel) Settings() filter.Settings { return cp.settings }

// refresh copies cp.settings into the widgets
func (cp *ControlPanel) refresh() {
	cp.syncing = true
	defer func() { cp.syncing = false }()

	s := cp.settings

	cp.scale.SetValue(s.Scale)
	cp.scaleLabel.SetText(fmt.Sprintf("1/%.2g", s.Scale))
	cp.interpolation.SetSelected(string(s.Interpolation))
	cp.grayscale.SetChecked(s.Grayscale)
	cp.grayFirst.SetChecked(s.GrayBeforeScale)
	setEnabled(cp.grayFirst, s.Grayscale)

	cp.average.SetValue(float64(s.AverageWindow))
	if s.AverageEnabled() {
		cp.averageLabel.SetText(fmt.Sprintf("%d", s.AverageWindow))
	} else {
		cp.averageLabel.SetText("off")
	}

	cp.blur.SetChecked(s.BlurEnabled)
	cp.blurSigma.SetValue(s.BlurSigma)
	cp.blurLabel.SetText(fmt.Sprintf("σ %.0f", s.BlurSigma))
	setEnabled(cp.blurSigma, s.BlurEnabled)

	cp.bilateral.SetChecked(s.BilateralEnabled)
	cp.bilateralD.SetValue(float64(s.BilateralDiameter))
	cp.bilateralColor.SetValue(s.BilateralSigmaColor)
	cp.bilateralSpace.SetValue(s.BilateralSigmaSpace)
	cp.bilateralLabel.SetText(fmt.Sprintf("d %d  color %.0f  space %.0f",
		s.BilateralDiameter, s.BilateralSigmaColor, s.BilateralSigmaSpace))
	for _, w := range []*widget.Slider{cp.bilateralD, cp.bilateralColor, cp.bilateralSpace} {
		setEnabled(w, s.BilateralEnabled)
	}

	// the low slider never goes past high and vice versa; each keeps at
	// least one step of range
	cp.canny.SetChecked(s.CannyEnabled)
	cp.cannyLow.Max = max(s.CannyHigh, filter.CannyMin+1)
	cp.cannyHigh.Min = min(s.CannyLow, filter.CannyMax-1)
	cp.cannyLow.SetValue(s.CannyLow)
	cp.cannyHigh.SetValue(s.CannyHigh)
	cp.cannyLow.Refresh()
	cp.cannyHigh.Refresh()
	cp.cannyLabel.SetText(fmt.Sprintf("lo %.0f  hi %.0f", s.CannyLow, s.CannyHigh))
	setEnabled(cp.cannyLow, s.CannyEnabled)
	setEnabled(cp.cannyHigh, s.CannyEnabled)

	cp.flip.SetChecked(s.Flip)
}

// SetFPS updates the frame rate readout
func (cp *ControlPanel) SetFPS(fps float64) {
	cp.fpsLabel.SetText(fmt.Sprintf("%.1f fps", fps))
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}
