package gui

import (
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camlab/internal/core"
	"camlab/internal/filter"
)

// Toolbar sits above the preview: preset picker, reset and frame snapshot
type Toolbar struct {
	window fyne.Window
	logger *logrus.Entry

	container *fyne.Container

	presetSelect *widget.Select
	resetBtn     *widget.Button
	saveBtn      *widget.Button
	savedLabel   *widget.Label

	onPreset func(filter.Settings)
	onReset  func()
	onSave   func(path string) error
}

func NewToolbar(window fyne.Window, logger *logrus.Entry) *Toolbar {
	tb := &Toolbar{
		window: window,
		logger: logger,
	}

	tb.initializeUI()
	return tb
}

func (tb *Toolbar) initializeUI() {
	titleLabel := widget.NewLabelWithStyle("camlab", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	tb.presetSelect = widget.NewSelect(filter.PresetNames(), tb.selectPreset)
	tb.presetSelect.PlaceHolder = "Preset"

	tb.resetBtn = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() {
		tb.presetSelect.ClearSelected()
		if tb.onReset != nil {
			tb.onReset()
		}
	})

	tb.saveBtn = widget.NewButtonWithIcon("SAVE FRAME", theme.DocumentSaveIcon(), tb.saveFrame)
	tb.saveBtn.Importance = widget.HighImportance
	tb.saveBtn.Disable()

	tb.savedLabel = widget.NewLabel("")
	tb.savedLabel.Truncation = fyne.TextTruncateEllipsis

	leftSection := container.NewHBox(
		titleLabel,
		widget.NewSeparator(),
		tb.presetSelect,
		tb.resetBtn,
	)

	tb.container = container.NewBorder(nil, nil, leftSection, tb.saveBtn, tb.savedLabel)
}

func (tb *Toolbar) selectPreset(name string) {
	if name == "" {
		return
	}
	settings, err := filter.Preset(name)
	if err != nil {
		tb.logger.WithError(err).Warn("Unknown preset")
		return
	}
	tb.logger.WithField("preset", name).Info("Preset selected")
	if tb.onPreset != nil {
		tb.onPreset(settings)
	}
}

func (tb *Toolbar) saveFrame() {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, tb.window)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		// IMWrite opens the file itself
		writer.Close()

		if err := tb.saveTo(path); err != nil {
			dialog.ShowError(err, tb.window)
		}
	}, tb.window)

	fileDialog.SetFileName(fmt.Sprintf("camlab-%s.png", time.Now().Format("20060102-150405")))
	fileDialog.SetFilter(storage.NewExtensionFileFilter(core.SnapshotExtensions))
	fileDialog.Show()
}

func (tb *Toolbar) saveTo(path string) error {
	if tb.onSave == nil {
		return nil
	}
	if err := tb.onSave(path); err != nil {
		tb.logger.WithError(err).WithField("path", path).Error("Failed to save frame")
		return err
	}
	tb.logger.WithField("path", path).Info("Frame saved")
	tb.savedLabel.SetText("Saved " + filepath.Base(path))
	return nil
}

// SetCanSave enables the snapshot button once a frame is on screen
func (tb *Toolbar) SetCanSave(ok bool) {
	if ok == !tb.saveBtn.Disabled() {
		return
	}
	if ok {
		tb.saveBtn.Enable()
	} else {
		tb.saveBtn.Disable()
	}
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}

func (tb *Toolbar) SetCallbacks(
	onPreset func(filter.Settings),
	onReset func(),
	onSave func(path string) error,
) {
	tb.onPreset = onPreset
	tb.onReset = onReset
	tb.onSave = onSave
}
