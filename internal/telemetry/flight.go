// Package telemetry holds the decoded flight-controller log of one flight.
package telemetry

import (
	"fmt"
)

// Series names the step response reads. Any recorded vector series can be
// analyzed by name.
const (
	SeriesGyro     = "gyroADC"
	SeriesSetpoint = "setpoint"
)

// ThrottleIndex is the setpoint component carrying throttle, 0 to 1000.
const ThrottleIndex = 3

// Flight is the read-only, decoded telemetry of a single flight. Every series
// has the same length as Times.
type Flight struct {
	Name       string               // Source of the log, usually the file name
	Times      []float64            // Sample times in seconds, non-decreasing
	Values     map[string][]float32 // Series keyed by name, e.g. "gyroADC[0]"
	Units      map[string]string    // Units of series that declare one
	SampleRate float64              // Derived nominal sample rate in Hz
}

// NewFlight creates a Flight and derives its sample rate.
func NewFlight(name string, times []float64, values map[string][]float32, units map[string]string) *Flight {
	if values == nil {
		values = make(map[string][]float32)
	}
	if units == nil {
		units = make(map[string]string)
	}

	return &Flight{
		Name:       name,
		Times:      times,
		Values:     values,
		Units:      units,
		SampleRate: SampleRate(times),
	}
}

// Len returns the number of samples in the flight.
func (f *Flight) Len() int {
	return len(f.Times)
}

// Duration returns the time covered by the flight in seconds.
func (f *Flight) Duration() float64 {
	if len(f.Times) < 2 {
		return 0
	}
	return f.Times[len(f.Times)-1] - f.Times[0]
}

// Series returns the series called name. ok is false when the log did not
// record it.
func (f *Flight) Series(name string) (values []float32, ok bool) {
	values, ok = f.Values[name]
	return
}

// Component returns component i of the vector series called name.
func (f *Flight) Component(name string, i int) ([]float32, bool) {
	return f.Series(ComponentName(name, i))
}

func (f *Flight) Gyro(axis int) ([]float32, bool) {
	return f.Component(SeriesGyro, axis)
}

func (f *Flight) Setpoint(i int) ([]float32, bool) {
	return f.Component(SeriesSetpoint, i)
}

// Throttle returns the throttle setpoint.
func (f *Flight) Throttle() ([]float32, bool) {
	return f.Setpoint(ThrottleIndex)
}

// ComponentName returns the name of component i of a vector series.
func ComponentName(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}

// Rotation axes, the index into three-component series.
const (
	Roll = iota
	Pitch
	Yaw

	Axes = 3
)

var axisNames = [Axes]string{"roll", "pitch", "yaw"}

// AxisName returns the name of a rotation axis.
func AxisName(axis int) string {
	if axis < 0 || axis >= Axes {
		return fmt.Sprintf("axis%d", axis)
	}
	return axisNames[axis]
}
