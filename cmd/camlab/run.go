package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"camlab/internal/capture"
	"camlab/internal/config"
	"camlab/internal/core"
	"camlab/internal/filter"
	"camlab/internal/gui"
	"camlab/internal/metrics"
	"camlab/internal/stream"
)

// shutdownTimeout bounds the wait for the capture goroutine, which may be
// stuck in a blocking device read
const shutdownTimeout = 2 * time.Second

const memoryReportInterval = 5 * time.Second

// session wires a frame source, the filter pipeline and a display loop
type session struct {
	source   *capture.Source
	pipeline *filter.Pipeline
	cell     *filter.Cell
	loop     *gui.Loop
	logger   *logrus.Entry

	stopReport context.CancelFunc
}

func startSession(settings filter.Settings) (*session, error) {
	entry := logrus.NewEntry(logger)

	kind, err := stream.ParseKind(cfg.Stream.Kind)
	if err != nil {
		return nil, err
	}
	policy, err := gui.ParseEndPolicy(cfg.Display.OnStreamEnd)
	if err != nil {
		return nil, err
	}

	frames, err := stream.New(stream.Options[*core.Frame]{
		Kind:       kind,
		Capacity:   cfg.Stream.Capacity,
		DropOldest: cfg.Stream.DropOldest,
		Discard:    func(f *core.Frame) { f.Close() },
	})
	if err != nil {
		return nil, err
	}

	source, err := capture.Open(cfg.Camera.Capture(), nil, entry)
	if err != nil {
		return nil, err
	}

	s := &session{
		source:   source,
		pipeline: filter.NewPipeline(entry),
		cell:     filter.NewCell(settings),
		logger:   entry.WithField("source_id", source.ID()),
	}
	s.loop = gui.NewLoop(frames, s.cell, policy, entry)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopReport = cancel
	if debugMode {
		go metrics.ReportMemory(ctx, s.logger, memoryReportInterval)
	}

	if err := source.Start(s.pipeline.Transform(s.cell), frames); err != nil {
		cancel()
		source.Close()
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"channel":  kind,
		"settings": settings.String(),
	}).Info("Capture started")

	return s, nil
}

// finish waits for the capture goroutine after the display has closed and
// turns its outcome into an error
func (s *session) finish() error {
	defer s.stopReport()

	select {
	case <-s.source.Done():
		s.pipeline.Close()
	case <-time.After(shutdownTimeout):
		s.logger.Warn("Capture goroutine still blocked on the device, leaving it behind")
		return nil
	}

	stats := s.source.Stats()
	s.logger.WithFields(logrus.Fields{
		"published": stats.Published,
		"skipped":   stats.Skipped,
		"failures":  stats.Failures,
		"displayed": s.loop.Received(),
	}).Info("Capture stopped")

	if err := s.source.Err(); err != nil {
		if errors.Is(err, capture.ErrFailureLimit) {
			return fmt.Errorf("camera stopped delivering frames: %w", err)
		}
		return err
	}
	return nil
}

func runPreview() error {
	s, err := startSession(cfg.Filter.Settings)
	if err != nil {
		return err
	}

	fyneApp := app.NewWithID(AppID)
	preview := gui.NewApplication(fyneApp, s.loop, gui.DisplayOptions{
		Title:  AppName,
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		TickHz: cfg.Display.TickHz,
	}, s.logger)

	if configPath != "" && watchConfig {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// the preview stays the only writer of the settings cell
		err := config.Watch(ctx, configPath, s.logger, func(c *config.Config) {
			fyne.Do(func() { preview.ApplySettings(c.Filter.Settings) })
		})
		if err != nil {
			s.logger.WithError(err).Warn("Config hot reload disabled")
		}
	}

	exitCode = preview.ShowAndRun()
	logger.Info("Application shutting down gracefully")

	return s.finish()
}

func runHighGUI(title string, settings filter.Settings) error {
	s, err := startSession(settings)
	if err != nil {
		return err
	}

	exitCode = gui.RunHighGUI(title, s.loop, s.logger)

	return s.finish()
}
