package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/stepresponse"
	"github.com/roman-kulish/blackbox-analyzer/internal/storage"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

const (
	maxBatchSize = 100
	pollInterval = 16 * time.Millisecond
)

// WithMaxBatchSize sets the maximum number of chunks stored within a single
// database transaction.
func WithMaxBatchSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.maxBatchSize = size
	}
}

// WithSettings sets the spectrogram settings used for every series.
func WithSettings(s spectrogram.Settings) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.settings = s
	}
}

// WithSeries sets the vector series to analyze.
func WithSeries(series ...string) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.series = series
	}
}

// WithStepResponse enables step response estimation.
func WithStepResponse(enabled bool) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.stepResponse = enabled
	}
}

// WithExporter sets the exporter writing images of finished results.
func WithExporter(e *Exporter) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.exporter = e
	}
}

// WithPollInterval sets how often background results are collected.
func WithPollInterval(d time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

// Orchestrator runs the spectrogram of every configured series component and
// the step response of every axis, storing results as they are collected.
type Orchestrator struct {
	logger   *slog.Logger
	store    storage.Store
	exporter *Exporter

	settings     spectrogram.Settings
	series       []string
	stepResponse bool
	maxBatchSize int
	pollInterval time.Duration
}

// axisState tracks how much of an Axis has been stored.
type axisState struct {
	axis     *spectrogram.Axis
	series   string
	index    int
	stored   int
	finished bool
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(store storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		logger:       logger,
		store:        store,
		settings:     spectrogram.DefaultSettings(),
		series:       []string{telemetry.SeriesGyro},
		stepResponse: true,
		maxBatchSize: maxBatchSize,
		pollInterval: pollInterval,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run analyzes flight into a new session and returns its identifier once
// every result is stored.
func (o *Orchestrator) Run(ctx context.Context, flight *telemetry.Flight) (int64, error) {
	sessionID, err := o.store.CreateSession(ctx, flight.Name, flight.SampleRate, o.settings)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}

	logger := o.logger.With(slog.Int64("session", sessionID))

	var states []*axisState
	for _, series := range o.series {
		for index := range telemetry.Axes {
			a := spectrogram.NewAxis(series, index,
				spectrogram.WithLogger(logger),
				spectrogram.WithSettings(o.settings))
			a.SetFlight(flight)
			states = append(states, &axisState{axis: a, series: series, index: index})
		}
	}
	defer func() {
		for _, s := range states {
			s.axis.SetFlight(nil)
		}
	}()

	var tracker *stepresponse.Tracker
	if o.stepResponse {
		tracker = stepresponse.NewTracker(stepresponse.WithLogger(logger))
		tracker.SetFlight(flight)
		defer tracker.SetFlight(nil)
	}

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	curvesStored := tracker == nil
	for {
		pending := 0
		for _, s := range states {
			if s.finished {
				continue
			}
			if err = o.collect(ctx, sessionID, s, logger); err != nil {
				return sessionID, err
			}
			if !s.finished {
				pending++
			}
		}

		if !curvesStored {
			tracker.Update()
			if !tracker.Busy() {
				if err = o.storeCurves(ctx, sessionID, flight, tracker, logger); err != nil {
					return sessionID, err
				}
				curvesStored = true
			}
		}

		if pending == 0 && curvesStored {
			logger.Info("analysis complete")
			return sessionID, nil
		}

		select {
		case <-ctx.Done():
			return sessionID, ctx.Err()
		case <-ticker.C:
		}
	}
}

// collect stores the chunks an Axis gathered since the previous call and
// exports its images once it is done.
func (o *Orchestrator) collect(ctx context.Context, sessionID int64, s *axisState, logger *slog.Logger) error {
	s.axis.Update()

	chunks := s.axis.Chunks()
	for batch := range slices.Chunk(chunks[s.stored:], o.maxBatchSize) {
		if err := o.store.StoreChunks(ctx, sessionID, s.series, s.index, batch); err != nil {
			return fmt.Errorf("storing chunks of %s: %w", s.axis.Name(), err)
		}
	}
	s.stored = len(chunks)

	if !s.axis.Done() {
		return nil
	}
	s.finished = true

	if s.stored == 0 {
		logger.Warn(fmt.Sprintf("%s: no chunks computed", s.axis.Name()))
		return nil
	}

	logger.Info(fmt.Sprintf("%s: stored %s chunks", s.axis.Name(), humanize.Comma(int64(s.stored))))

	if o.exporter != nil {
		if err := o.exporter.ExportAxis(s.axis); err != nil {
			logger.Error(fmt.Sprintf("exporting %s: %s", s.axis.Name(), err.Error()))
		}
	}
	return nil
}

func (o *Orchestrator) storeCurves(ctx context.Context, sessionID int64, flight *telemetry.Flight, tracker *stepresponse.Tracker, logger *slog.Logger) error {
	var curves []stepresponse.Curve
	var names []string
	for axis := range telemetry.Axes {
		curve, ok := tracker.Curve(axis)
		if !ok {
			logger.Warn(fmt.Sprintf("%s: no step response", telemetry.AxisName(axis)))
			continue
		}
		if err := o.store.StoreStepResponse(ctx, sessionID, axis, curve); err != nil {
			return fmt.Errorf("storing step response of %s: %w", telemetry.AxisName(axis), err)
		}
		curves = append(curves, curve)
		names = append(names, telemetry.AxisName(axis))
	}

	if len(curves) > 0 {
		logger.Info(fmt.Sprintf("stored %d step responses", len(curves)))
	}

	if o.exporter != nil && len(curves) > 0 {
		if err := o.exporter.ExportStepResponse(flight.Name, names, curves); err != nil {
			logger.Error(fmt.Sprintf("exporting step response: %s", err.Error()))
		}
	}
	return nil
}
