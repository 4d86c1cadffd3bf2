package app

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
)

const (
	// Percentile of the finite power values painted with the last colour.
	plotMaxQuantile = 0.99

	// For 20 samples the 99th percentile is the largest sample, fewer are
	// not worth estimating from.
	minimumSampleCount = 20
)

// autoPlotMax picks a plot max from the power distribution of chunks so that
// the loudest percent of values saturates. It falls back to the default when
// there are too few finite values or none above zero.
func autoPlotMax(chunks []spectral.Chunk) float64 {
	var values []float64
	for _, c := range chunks {
		for _, p := range c.Power {
			if v := float64(p); !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
	}

	fallback := spectrogram.DefaultSettings().PlotMax
	if len(values) < minimumSampleCount {
		return fallback
	}

	slices.Sort(values)
	if q := stat.Quantile(plotMaxQuantile, stat.Empirical, values, nil); q > 0 {
		return q
	}
	return fallback
}
