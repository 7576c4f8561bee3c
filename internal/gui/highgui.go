package gui

import (
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// HighGUIRefreshHz is how often the OpenCV window polls for frames and keys
const HighGUIRefreshHz = 60

// RunHighGUI shows the stream in an OpenCV window until Q or Escape is
// pressed, or until the stream ends under EndExit. It returns a non-zero
// code in the latter case.
func RunHighGUI(title string, loop *Loop, logger *logrus.Entry) int {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("component", "highgui")

	window := gocv.NewWindow(title)
	defer window.Close()
	defer loop.Close()

	waitMs := 1000 / HighGUIRefreshHz
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer blank.Close()

	logger.WithField("wait_ms", waitMs).Info("Showing HighGUI window")
	for {
		updated := loop.Poll()
		if status := loop.Status(); status != "" {
			showStatus(window, loop, blank, status)
		} else if updated {
			window.IMShow(loop.Latest().Mat)
		}

		if loop.ShouldExit() {
			logger.Info("Closing window after end of stream")
			return 1
		}

		key := window.WaitKey(waitMs)
		if isQuitKey(key) {
			logger.WithField("key", key).Info("Quit requested")
			return 0
		}
	}
}

// isQuitKey matches the WaitKey codes of q, Q and Escape
func isQuitKey(key int) bool {
	switch key & 0xff {
	case 'q', 'Q', 27:
		return key >= 0
	}
	return false
}

// showStatus draws text over the last frame, or over a blank image when
// nothing was received yet
func showStatus(window *gocv.Window, loop *Loop, blank gocv.Mat, text string) {
	base := blank
	if latest := loop.Latest(); latest != nil {
		base = latest.Mat
	}
	canvas := base.Clone()
	defer canvas.Close()

	gocv.PutText(&canvas, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.6, color.RGBA{R: 255, G: 64, B: 64, A: 255}, 2)
	window.IMShow(canvas)
}
