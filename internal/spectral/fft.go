package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Forward returns the full complex spectrum of a real sequence of any length.
func Forward(x []float64) []complex128 {
	return fft.FFTReal(x)
}

// Inverse returns the normalized inverse transform of a complex spectrum.
func Inverse(x []complex128) []complex128 {
	return fft.IFFT(x)
}

// HoldFinite replaces every NaN or infinite value of x, in place, with the
// last finite value before it. Leading non-finite values take the first
// finite value; a sequence with none becomes all zeros. It returns the number
// of values replaced.
func HoldFinite(x []float64) int {
	first := -1
	for i, v := range x {
		if isFinite(v) {
			first = i
			break
		}
	}
	if first < 0 {
		clear(x)
		return len(x)
	}

	replaced := first
	for i := range first {
		x[i] = x[first]
	}

	last := x[first]
	for i := first + 1; i < len(x); i++ {
		if !isFinite(x[i]) {
			x[i] = last
			replaced++
			continue
		}
		last = x[i]
	}
	return replaced
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
