// Package stepresponse estimates the step response of a rate control loop
// from its setpoint and measured rate.
//
// The estimate divides the cross spectrum of setpoint and measurement by the
// setpoint power spectrum with no regularization. Frequencies carrying little
// setpoint energy produce noisy or non-finite values, which are kept as they
// are. It is a best-effort approximation, not a validated system
// identification method.
package stepresponse

import (
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
)

// Curve is a step response sampled at the log rate.
type Curve struct {
	Time      []float64 // Seconds since the first sample
	Magnitude []float64 // Normalized response
}

// Len returns the number of points in the curve.
func (c *Curve) Len() int {
	return len(c.Time)
}

// Estimate returns the normalized step response truncated to the first half
// second, i.e. sampleRate/2 samples. Series of different length are cut to
// the shortest; an empty series yields an empty curve.
func Estimate(times []float64, setpoint, measured []float32, sampleRate float64) Curve {
	n := min(len(times), len(setpoint), len(measured))
	if n == 0 {
		return Curve{}
	}

	step := floats.CumSum(make([]float64, n), Impulse(setpoint[:n], measured[:n]))
	floats.Scale(1/stat.Mean(step, nil), step)

	limit := min(n, max(0, int(sampleRate/2)))
	curve := Curve{
		Time:      make([]float64, limit),
		Magnitude: step[:limit:limit],
	}
	for i := range curve.Time {
		curve.Time[i] = times[i] - times[0]
	}

	return curve
}

// Impulse returns the impulse response of the system turning setpoint into
// measured, computed over the whole series.
func Impulse(setpoint, measured []float32) []float64 {
	n := min(len(setpoint), len(measured))
	if n == 0 {
		return nil
	}

	x := spectral.Forward(finite(setpoint[:n]))
	y := spectral.Forward(finite(measured[:n]))

	h := make([]complex128, n)
	for k := range h {
		cx := cmplx.Conj(x[k])
		h[k] = cx * y[k] / (cx * x[k])
	}

	impulse := spectral.Inverse(h)
	out := make([]float64, n)
	for i, v := range impulse {
		out[i] = real(v)
	}
	return out
}

// finite converts s, holding the last finite value over unreadable samples.
func finite(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	spectral.HoldFinite(out)
	return out
}
