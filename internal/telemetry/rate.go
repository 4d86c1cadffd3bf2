package telemetry

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const rateIntervals = 100

// SampleRate derives the nominal sample rate, in Hz, from the median of the
// first 100 sample intervals, rounded to the nearest 100 Hz. It returns 0 when
// the rate cannot be derived.
func SampleRate(times []float64) float64 {
	n := min(len(times)-1, rateIntervals)
	if n <= 0 {
		return 0
	}

	intervals := make([]float64, n)
	for i := range intervals {
		intervals[i] = math.Round((times[i+1] - times[i]) * 1e6) // Whole microseconds
	}
	slices.Sort(intervals)

	interval := stat.Quantile(0.5, stat.Empirical, intervals, nil)
	if interval <= 0 {
		return 0
	}

	return math.Round(1e6/interval/100) * 100
}
