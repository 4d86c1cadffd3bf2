package app

import (
	"math"
	"testing"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
)

func TestAutoPlotMax(t *testing.T) {
	fallback := spectrogram.DefaultSettings().PlotMax
	inf := float32(math.Inf(-1))

	ramp := make([]float32, 100)
	for i := range ramp {
		ramp[i] = float32(i + 1)
	}

	tests := []struct {
		name   string
		chunks []spectral.Chunk
		want   float64
	}{
		{
			name: "empty",
			want: fallback,
		},
		{
			name:   "too few values",
			chunks: []spectral.Chunk{{Power: []float32{1, 2, 3, inf}}},
			want:   fallback,
		},
		{
			name:   "silence",
			chunks: []spectral.Chunk{{Power: make([]float32, 50)}},
			want:   fallback,
		},
		{
			name:   "ramp",
			chunks: []spectral.Chunk{{Power: ramp}, {Power: []float32{inf, inf}}},
			want:   99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Empirical quantiles land on a sample, allow one step of slack.
			if got := autoPlotMax(tt.chunks); math.Abs(got-tt.want) > 1 {
				t.Errorf("autoPlotMax() = %v, want %v", got, tt.want)
			}
		})
	}
}
