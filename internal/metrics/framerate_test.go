package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameRateFirstTickIsZero(t *testing.T) {
	r := NewFrameRate(5)
	assert.Equal(t, 0.0, r.Tick(time.Now()))
	assert.Equal(t, 0.0, r.Average())
}

func TestFrameRateSteady(t *testing.T) {
	r := NewFrameRate(5)
	start := time.Unix(0, 0)
	var fps float64
	for i := 0; i <= 10; i++ {
		fps = r.Tick(start.Add(time.Duration(i) * 20 * time.Millisecond))
	}
	assert.InDelta(t, 50.0, fps, 1e-6)
}

func TestFrameRateWindowForgetsOldSamples(t *testing.T) {
	r := NewFrameRate(2)
	now := time.Unix(0, 0)
	r.Tick(now)
	now = now.Add(time.Second) // 1 fps
	r.Tick(now)
	now = now.Add(100 * time.Millisecond) // 10 fps
	r.Tick(now)
	now = now.Add(100 * time.Millisecond) // 10 fps
	fps := r.Tick(now)

	assert.InDelta(t, 10.0, fps, 1e-6)
}

func TestFrameRateReset(t *testing.T) {
	r := NewFrameRate(0)
	now := time.Unix(0, 0)
	r.Tick(now)
	r.Tick(now.Add(time.Second))
	r.Reset()
	assert.Equal(t, 0.0, r.Average())
	assert.Equal(t, 0.0, r.Tick(now.Add(2*time.Second)))
}
