// Frame rate estimation for the capture loop
package metrics

import (
	"sync"
	"time"
)

// DefaultRateWindow is the number of inter-frame intervals averaged
const DefaultRateWindow = 5

// FrameRate is a simple moving average of the instantaneous frame rate
// over the last few frames.
type FrameRate struct {
	mu       sync.Mutex
	window   int
	samples  []float64
	next     int
	sum      float64
	previous time.Time
}

// NewFrameRate creates an estimator averaging window samples
func NewFrameRate(window int) *FrameRate {
	if window < 1 {
		window = DefaultRateWindow
	}
	return &FrameRate{
		window:  window,
		samples: make([]float64, 0, window),
	}
}

// Tick records a frame observed at now and returns the smoothed rate.
// The first tick has no interval to measure and returns 0.
func (r *FrameRate) Tick(now time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.previous.IsZero() {
		r.previous = now
		return 0
	}
	elapsed := now.Sub(r.previous)
	r.previous = now
	if elapsed <= 0 {
		return r.averageUnsafe()
	}

	r.addUnsafe(1 / elapsed.Seconds())
	return r.averageUnsafe()
}

// Average returns the current smoothed rate
func (r *FrameRate) Average() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.averageUnsafe()
}

// Reset forgets all samples
func (r *FrameRate) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = r.samples[:0]
	r.next = 0
	r.sum = 0
	r.previous = time.Time{}
}

func (r *FrameRate) addUnsafe(sample float64) {
	if len(r.samples) < r.window {
		r.samples = append(r.samples, sample)
		r.sum += sample
		return
	}
	r.sum += sample - r.samples[r.next]
	r.samples[r.next] = sample
	r.next = (r.next + 1) % r.window
}

func (r *FrameRate) averageUnsafe() float64 {
	if len(r.samples) == 0 {
		return 0
	}
	return r.sum / float64(len(r.samples))
}
