package gui

import (
	"errors"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camlab/internal/core"
	"camlab/internal/filter"
	"camlab/internal/stream"
)

func TestToolbarPresetAndReset(t *testing.T) {
	test.NewApp()
	w := test.NewWindow(nil)
	defer w.Close()

	var picked []filter.Settings
	resets := 0
	tb := NewToolbar(w, quietEntry())
	tb.SetCallbacks(func(s filter.Settings) { picked = append(picked, s) }, func() { resets++ }, nil)

	tb.presetSelect.SetSelected("highgui")
	require.Len(t, picked, 1)
	assert.Equal(t, filter.HighGUI(), picked[0])

	test.Tap(tb.resetBtn)
	assert.Equal(t, 1, resets)
	assert.Equal(t, "", tb.presetSelect.Selected)
	assert.Len(t, picked, 1, "clearing the picker is not a preset change")
}

func TestToolbarSave(t *testing.T) {
	test.NewApp()
	w := test.NewWindow(nil)
	defer w.Close()

	tb := NewToolbar(w, quietEntry())
	assert.True(t, tb.saveBtn.Disabled())
	tb.SetCanSave(true)
	assert.False(t, tb.saveBtn.Disabled())

	var saved string
	tb.SetCallbacks(nil, nil, func(path string) error {
		saved = path
		return nil
	})
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, tb.saveTo(path))
	assert.Equal(t, path, saved)
	assert.Equal(t, "Saved shot.png", tb.savedLabel.Text)

	boom := errors.New("disk full")
	tb.SetCallbacks(nil, nil, func(string) error { return boom })
	assert.ErrorIs(t, tb.saveTo(path), boom)
	assert.Equal(t, "Saved shot.png", tb.savedLabel.Text)
}

func TestApplicationTick(t *testing.T) {
	q := stream.NewQueue[*core.Frame](2, func(f *core.Frame) { f.Close() })
	cell := filter.NewCell(filter.Native())
	loop := NewLoop(q, cell, EndExit, quietEntry())
	defer loop.Close()

	a := NewApplication(test.NewApp(), loop, DisplayOptions{}, quietEntry())
	assert.Equal(t, StatusNoImage, a.status.Text)
	assert.True(t, a.toolbar.saveBtn.Disabled())

	require.NoError(t, q.Send(newFrame(1, 30)))
	a.tick()
	assert.Equal(t, "", a.status.Text)
	assert.False(t, a.toolbar.saveBtn.Disabled())
	assert.Equal(t, 8, a.preview.Image.Bounds().Dx())

	path := filepath.Join(t.TempDir(), "latest.png")
	require.NoError(t, a.saveLatest(path))
	assert.FileExists(t, path)

	a.ApplySettings(filter.HighGUI())
	assert.Equal(t, filter.HighGUI(), cell.Load())
	a.toolbar.onReset()
	assert.Equal(t, filter.Native(), cell.Load())

	q.CloseSend()
	a.tick()
	assert.Equal(t, StatusStreamEnded, a.status.Text)
	assert.Equal(t, 1, a.exitCode)
	assert.True(t, a.stopped)
}
