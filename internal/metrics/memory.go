package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// MemorySnapshot is one reading of process and OpenCV memory use.
// Mats is only counted when built with the matprofile tag and is -1
// otherwise.
type MemorySnapshot struct {
	AllocMB    float64
	SysMB      float64
	NumGC      uint32
	Goroutines int
	Mats       int
}

// ReadMemory takes a snapshot without forcing a collection
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemorySnapshot{
		AllocMB:    float64(m.Alloc) / 1024 / 1024,
		SysMB:      float64(m.Sys) / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Mats:       liveMats(),
	}
}

// Fields renders the snapshot for structured logging
func (s MemorySnapshot) Fields() logrus.Fields {
	return logrus.Fields{
		"alloc_mb":   s.AllocMB,
		"sys_mb":     s.SysMB,
		"num_gc":     s.NumGC,
		"goroutines": s.Goroutines,
		"mats":       s.Mats,
	}
}

// ReportMemory logs a snapshot at debug level every interval until ctx is
// done. A growing mat count points at frames that are never closed.
func ReportMemory(ctx context.Context, logger *logrus.Entry, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WithFields(ReadMemory().Fields()).Debug("Final memory stats")
			return
		case <-t.C:
			logger.WithFields(ReadMemory().Fields()).Debug("Memory")
		}
	}
}
