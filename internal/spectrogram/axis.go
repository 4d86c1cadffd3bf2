// Package spectrogram assembles spectral chunks into time and throttle
// images and keeps them current as settings and flights change.
package spectrogram

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"

	"github.com/roman-kulish/blackbox-analyzer/internal/background"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

// Source returns the aligned series an Axis analyzes. ok is false when the
// flight does not record them.
type Source func() (times []float64, values, throttle []float32, ok bool)

// SeriesSource reads component axis of the vector series called series from f,
// with the throttle setpoint.
func SeriesSource(f *telemetry.Flight, series string, axis int) Source {
	return func() ([]float64, []float32, []float32, bool) {
		if f == nil {
			return nil, nil, nil, false
		}
		values, ok := f.Component(series, axis)
		if !ok {
			return nil, nil, nil, false
		}
		throttle, ok := f.Throttle()
		if !ok {
			return nil, nil, nil, false
		}
		return f.Times, values, throttle, true
	}
}

// WithLogger sets the logger of an Axis.
func WithLogger(logger *slog.Logger) func(*Axis) {
	return func(a *Axis) {
		a.logger = logger
	}
}

// WithSettings sets the initial settings of an Axis. Invalid settings are
// replaced by the defaults.
func WithSettings(s Settings) func(*Axis) {
	return func(a *Axis) {
		if s.Validate() == nil {
			a.settings = s
		}
	}
}

// Axis owns the spectrogram of one series component. Chunks are computed in
// the background and collected by Update, which the caller invokes once per
// render cycle; images are built in Update from the collected chunks.
//
// An Axis must be used from a single goroutine.
type Axis struct {
	logger *slog.Logger

	series string
	axis   int

	flight   *telemetry.Flight
	source   Source
	settings Settings
	palette  Palette

	stream   *background.Stream[spectral.Chunk]
	chunks   []spectral.Chunk
	tiles    []Tile
	throttle *image.NRGBA
	changed  bool
}

// NewAxis creates an Axis for component axis of the vector series called
// series. It computes nothing until a flight is set.
func NewAxis(series string, axis int, options ...func(*Axis)) *Axis {
	a := Axis{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		series:   series,
		axis:     axis,
		settings: DefaultSettings(),
	}
	for _, option := range options {
		option(&a)
	}

	a.logger = a.logger.With(slog.String("series", series), slog.String("axis", telemetry.AxisName(axis)))
	return &a
}

// Name returns the series component the axis analyzes, e.g. "gyroADC[0]".
func (a *Axis) Name() string {
	return telemetry.ComponentName(a.series, a.axis)
}

// SetFlight makes f the active flight and recomputes the spectrogram.
func (a *Axis) SetFlight(f *telemetry.Flight) {
	if f == a.flight && a.source != nil {
		return
	}
	a.flight = f
	a.SetSource(SeriesSource(f, a.series, a.axis))
}

// SetSource replaces the analyzed series and recomputes the spectrogram.
func (a *Axis) SetSource(src Source) {
	a.source = src
	a.recompute()
}

// SetSettings validates and applies s. A new window or step size recomputes
// the chunks; a new gradient or plot max only repaints the images.
func (a *Axis) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	prev := a.settings
	a.settings = s

	switch {
	case prev.NeedsRecompute(s):
		a.recompute()
	case prev.NeedsRedraw(s):
		a.redraw()
	}
	return nil
}

func (a *Axis) recompute() {
	if a.stream != nil {
		a.stream.Discard()
		a.stream = nil
	}
	a.chunks = nil
	a.tiles = nil
	a.throttle = nil
	a.changed = true

	if a.source == nil {
		return
	}

	times, values, throttle, ok := a.source()
	if !ok {
		a.logger.Debug("series not recorded, skipping")
		return
	}

	windowSize, stepSize := a.settings.WindowSize, a.settings.StepSize
	logger := a.logger
	a.stream = background.Go(logger, func(emit func([]spectral.Chunk)) {
		engine, err := spectral.NewEngine([]int{windowSize}, spectral.WithLogger(logger))
		if err != nil {
			logger.Error(fmt.Sprintf("creating spectral engine: %s", err.Error()))
			return
		}
		background.Batches(engine.Chunks(times, values, throttle, windowSize, stepSize), background.BatchSize, emit)
	})
}

func (a *Axis) redraw() {
	lut := a.palette.Table(a.settings.Gradient)
	a.tiles = TimeTiles(a.chunks, lut, a.settings.PlotMax)
	if a.stream == nil && a.throttle != nil {
		a.throttle = ThrottleImage(a.chunks, lut, a.settings.PlotMax)
	}
	a.changed = true
}

// Update collects chunks computed since the last call and rebuilds the images
// they affect. It reports whether anything visible changed.
func (a *Axis) Update() bool {
	updated := a.changed
	a.changed = false

	if a.stream == nil {
		return updated
	}

	batches, done := a.stream.Poll()
	if len(batches) > 0 {
		first := len(a.chunks)
		for _, batch := range batches {
			a.chunks = append(a.chunks, batch...)
		}
		a.repaintFrom(first)
		updated = true
	}

	if done {
		a.stream = nil
		a.throttle = ThrottleImage(a.chunks, a.palette.Table(a.settings.Gradient), a.settings.PlotMax)
		a.logger.Debug("spectrogram complete", slog.Int("chunks", len(a.chunks)))
		updated = true
	}

	return updated
}

// repaintFrom rebuilds the tiles holding chunk first and every later chunk.
func (a *Axis) repaintFrom(first int) {
	lut := a.palette.Table(a.settings.Gradient)
	t := first / TileWidth
	a.tiles = slices.Clip(a.tiles[:min(t, len(a.tiles))])
	for tile := range slices.Chunk(a.chunks[t*TileWidth:], TileWidth) {
		a.tiles = append(a.tiles, TimeTile(tile, lut, a.settings.PlotMax))
	}
}

// Done reports whether the spectrogram of the active flight is complete.
func (a *Axis) Done() bool {
	return a.stream == nil
}

// Chunks returns the chunks collected so far. The slice must not be modified.
func (a *Axis) Chunks() []spectral.Chunk {
	return a.chunks
}

// Tiles returns the time projection collected so far.
func (a *Axis) Tiles() []Tile {
	return a.tiles
}

// ThrottleImage returns the throttle projection, nil until all chunks are in.
func (a *Axis) ThrottleImage() *image.NRGBA {
	return a.throttle
}
