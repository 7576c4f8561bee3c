package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestReadMemory(t *testing.T) {
	s := ReadMemory()
	assert.Greater(t, s.SysMB, 0.0)
	assert.GreaterOrEqual(t, s.Goroutines, 1)
	assert.Contains(t, s.Fields(), "mats")
}

func TestReportMemoryStopsWithContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ReportMemory(ctx, logrus.NewEntry(logger), 5*time.Millisecond)
	}()

	assert.Eventually(t, func() bool { return len(hook.AllEntries()) >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReportMemory did not return")
	}
	assert.Equal(t, "Final memory stats", hook.LastEntry().Message)
}
