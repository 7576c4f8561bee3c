// Live preview window: controls on the left, processed frames in the centre
package gui

import (
	"image"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camlab/internal/core"
	"camlab/internal/filter"
)

// DisplayOptions tunes the preview window
type DisplayOptions struct {
	Title  string
	Width  float32
	Height float32
	TickHz float64
}

// Application is the fyne preview of a frame stream
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Entry
	opts   DisplayOptions

	loop     *Loop
	controls *ControlPanel
	toolbar  *Toolbar
	initial  filter.Settings

	preview *canvas.Image
	status  *widget.Label

	stop     chan struct{}
	stopped  bool
	exitCode int
}

func NewApplication(app fyne.App, loop *Loop, opts DisplayOptions, logger *logrus.Entry) *Application {
	if opts.TickHz <= 0 {
		opts.TickHz = 60
	}
	if opts.Title == "" {
		opts.Title = "camlab"
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	window := app.NewWindow(opts.Title)
	if opts.Width > 0 && opts.Height > 0 {
		window.Resize(fyne.NewSize(opts.Width, opts.Height))
	}

	a := &Application{
		app:    app,
		window: window,
		logger: logger.WithField("component", "preview"),
		opts:   opts,
		loop:   loop,
		stop:   make(chan struct{}),
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a
}

func (a *Application) initializeGUI() {
	a.initial = a.loop.Settings()
	a.controls = NewControlPanel(a.initial, func(s filter.Settings) {
		a.loop.Commit(s)
	})

	a.toolbar = NewToolbar(a.window, a.logger)
	a.toolbar.SetCallbacks(
		a.ApplySettings,
		func() { a.ApplySettings(a.initial) },
		a.saveLatest,
	)

	placeholder := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := range placeholder.Pix {
		placeholder.Pix[i] = 0x20
	}
	a.preview = canvas.NewImageFromImage(placeholder)
	a.preview.FillMode = canvas.ImageFillContain
	a.preview.ScaleMode = canvas.ImageScalePixels
	a.preview.SetMinSize(fyne.NewSize(320, 240))

	a.status = widget.NewLabelWithStyle(a.loop.Status(), fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	a.status.Importance = widget.DangerImportance
}

func (a *Application) setupLayout() {
	backdrop := canvas.NewRectangle(color.Black)
	center := container.NewStack(
		backdrop,
		a.preview,
		container.NewCenter(a.status),
	)

	a.window.SetContent(container.NewBorder(a.toolbar.GetContainer(), nil, a.controls.GetContainer(), nil, center))
}

func (a *Application) setupCallbacks() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyQ, fyne.KeyEscape:
			a.logger.WithField("key", ev.Name).Info("Quit requested")
			a.quit()
		}
	})

	a.window.SetCloseIntercept(func() {
		a.quit()
	})
}

// ApplySettings replaces the current settings, as if the user had changed
// every control at once. It must run on the UI goroutine; use fyne.Do from
// elsewhere.
func (a *Application) ApplySettings(s filter.Settings) {
	a.controls.SetSettings(s)
	a.loop.Commit(a.controls.Settings())
}

// saveLatest writes the frame currently on screen
func (a *Application) saveLatest(path string) error {
	return core.SaveFrame(a.loop.Latest(), path)
}

// ShowAndRun shows the window and blocks until it is closed. The returned
// code is non-zero when the window closed because the stream ended under
// the exit policy.
func (a *Application) ShowAndRun() int {
	a.logger.WithField("tick_hz", a.opts.TickHz).Info("Showing preview window")

	go a.ticker()
	a.window.ShowAndRun()

	a.stopTicker()
	a.loop.Close()
	return a.exitCode
}

func (a *Application) ticker() {
	interval := time.Duration(float64(time.Second) / a.opts.TickHz)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-t.C:
			fyne.Do(a.tick)
		}
	}
}

// tick runs on the UI goroutine once per display refresh
func (a *Application) tick() {
	if a.stopped {
		return
	}

	if a.loop.Poll() {
		frame := a.loop.Latest()
		img, err := frame.ToImage()
		if err != nil {
			a.logger.WithError(err).WithField("seq", frame.Seq).Warn("Cannot display frame")
		} else {
			a.preview.Image = img
			a.preview.Refresh()
		}
		a.controls.SetFPS(a.loop.FPS())
		a.toolbar.SetCanSave(true)
	}

	if text := a.loop.Status(); text != a.status.Text {
		a.status.SetText(text)
	}

	if a.loop.ShouldExit() {
		a.exitCode = 1
		a.quit()
	}
}

func (a *Application) quit() {
	a.stopTicker()
	a.app.Quit()
}

func (a *Application) stopTicker() {
	if a.stopped {
		return
	}
	a.stopped = true
	close(a.stop)
}
