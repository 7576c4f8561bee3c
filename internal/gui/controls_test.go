package gui

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camlab/internal/algorithms"
	"camlab/internal/filter"
)

func TestControlPanelReportsWholeSnapshot(t *testing.T) {
	test.NewApp()

	var got []filter.Settings
	cp := NewControlPanel(filter.Native(), func(s filter.Settings) { got = append(got, s) })
	assert.Empty(t, got, "building the panel is not a change")

	test.Tap(cp.flip)
	require.Len(t, got, 1)
	want := filter.Native()
	want.Flip = true
	assert.Equal(t, want, got[0])

	cp.interpolation.SetSelected(string(algorithms.Area))
	require.Len(t, got, 2)
	want.Interpolation = algorithms.Area
	assert.Equal(t, want, got[1])
	assert.Equal(t, want, cp.Settings())
}

func TestControlPanelKeepsCannyOrdered(t *testing.T) {
	test.NewApp()

	var last filter.Settings
	cp := NewControlPanel(filter.Native(), func(s filter.Settings) { last = s })

	cp.cannyLow.OnChanged(40)
	assert.LessOrEqual(t, last.CannyLow, last.CannyHigh)
	assert.Equal(t, 15.0, last.CannyHigh)

	cp.cannyHigh.OnChanged(3)
	assert.LessOrEqual(t, last.CannyLow, last.CannyHigh)
	assert.Equal(t, last.CannyHigh, cp.cannyLow.Max)
	assert.Equal(t, last.CannyLow, cp.cannyHigh.Min)
}

func TestControlPanelSetSettingsIsSilent(t *testing.T) {
	test.NewApp()

	calls := 0
	cp := NewControlPanel(filter.Native(), func(filter.Settings) { calls++ })

	cp.SetSettings(filter.HighGUI())
	assert.Zero(t, calls)
	assert.Equal(t, filter.HighGUI(), cp.Settings())
	assert.True(t, cp.flip.Checked)
	assert.Equal(t, 5.0, cp.average.Value)
}

func TestControlPanelCannySlidersKeepRange(t *testing.T) {
	test.NewApp()

	cp := NewControlPanel(filter.Native(), func(filter.Settings) {})

	s := filter.Native()
	s.CannyLow, s.CannyHigh = filter.CannyMin, filter.CannyMin
	cp.SetSettings(s)
	assert.Greater(t, cp.cannyLow.Max, cp.cannyLow.Min)
	assert.Greater(t, cp.cannyHigh.Max, cp.cannyHigh.Min)

	s.CannyLow, s.CannyHigh = filter.CannyMax, filter.CannyMax
	cp.SetSettings(s)
	assert.Greater(t, cp.cannyLow.Max, cp.cannyLow.Min)
	assert.Greater(t, cp.cannyHigh.Max, cp.cannyHigh.Min)
	assert.Equal(t, s, cp.Settings())
}
