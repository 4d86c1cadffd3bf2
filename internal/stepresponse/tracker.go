package stepresponse

import (
	"io"
	"log/slog"

	"github.com/roman-kulish/blackbox-analyzer/internal/background"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

// WithLogger sets the logger of a Tracker.
func WithLogger(logger *slog.Logger) func(*Tracker) {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// Tracker keeps the step response of every rotation axis of the active
// flight. Curves are estimated in the background; Update collects them.
//
// A Tracker must be used from a single goroutine.
type Tracker struct {
	logger *slog.Logger

	flight  *telemetry.Flight
	streams [telemetry.Axes]*background.Stream[Curve]
	curves  [telemetry.Axes]*Curve
}

// NewTracker creates a Tracker with no flight.
func NewTracker(options ...func(*Tracker)) *Tracker {
	t := Tracker{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&t)
	}
	return &t
}

// SetFlight makes f the active flight and starts estimating its curves.
// Results still pending for the previous flight are dropped. Axes missing
// either the setpoint or the gyro series get no curve.
func (t *Tracker) SetFlight(f *telemetry.Flight) {
	if f == t.flight {
		return
	}

	for axis, s := range t.streams {
		if s != nil {
			s.Discard()
		}
		t.streams[axis] = nil
		t.curves[axis] = nil
	}

	t.flight = f
	if f == nil {
		return
	}

	for axis := range t.streams {
		setpoint, ok := f.Setpoint(axis)
		if !ok {
			continue
		}
		gyro, ok := f.Gyro(axis)
		if !ok {
			continue
		}

		logger := t.logger.With(slog.String("axis", telemetry.AxisName(axis)))
		times, sampleRate := f.Times, f.SampleRate
		t.streams[axis] = background.Go(logger, func(emit func([]Curve)) {
			curve := Estimate(times, setpoint, gyro, sampleRate)
			logger.Debug("step response estimated", slog.Int("points", curve.Len()))
			emit([]Curve{curve})
		})
	}
}

// Update collects finished curves and reports whether any arrived.
func (t *Tracker) Update() bool {
	var updated bool
	for axis, s := range t.streams {
		if s == nil {
			continue
		}

		batches, done := s.Poll()
		for _, batch := range batches {
			for i := range batch {
				t.curves[axis] = &batch[i]
				updated = true
			}
		}
		if done {
			t.streams[axis] = nil
		}
	}
	return updated
}

// Busy reports whether any curve is still being estimated.
func (t *Tracker) Busy() bool {
	for _, s := range t.streams {
		if s != nil {
			return true
		}
	}
	return false
}

// Curve returns the step response of axis, when available.
func (t *Tracker) Curve(axis int) (Curve, bool) {
	if axis < 0 || axis >= telemetry.Axes || t.curves[axis] == nil {
		return Curve{}, false
	}
	return *t.curves[axis], true
}
