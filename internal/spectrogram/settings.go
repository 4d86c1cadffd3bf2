package spectrogram

import (
	"fmt"
	"math"
	"slices"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
)

// Settings controls spectrogram computation and colouring.
type Settings struct {
	WindowSize int      `json:"windowSize" yaml:"windowSize"` // FFT length in samples
	StepSize   int      `json:"stepSize" yaml:"stepSize"`     // Samples between consecutive windows
	Gradient   Gradient `json:"gradient" yaml:"gradient"`     // Colour scale
	PlotMax    float64  `json:"plotMax" yaml:"plotMax"`       // log10 power painted with the last colour
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		WindowSize: 256,
		StepSize:   8,
		Gradient:   DefaultGradient,
		PlotMax:    10,
	}
}

// Validate checks that the settings describe a computable spectrogram.
func (s Settings) Validate() error {
	if s.WindowSize <= 0 {
		return fmt.Errorf("spectrogram.Settings: window size must be greater than zero")
	}
	if !slices.Contains(spectral.SupportedSizes, s.WindowSize) {
		return fmt.Errorf("spectrogram.Settings: unsupported window size %d, expected one of %v", s.WindowSize, spectral.SupportedSizes)
	}
	if s.StepSize <= 0 {
		return fmt.Errorf("spectrogram.Settings: step size must be greater than zero")
	}
	if s.StepSize > s.WindowSize {
		return fmt.Errorf("spectrogram.Settings: step size %d exceeds window size %d", s.StepSize, s.WindowSize)
	}
	if !s.Gradient.Valid() {
		return fmt.Errorf("spectrogram.Settings: unknown gradient '%s'", s.Gradient)
	}
	if s.PlotMax <= 0 || math.IsNaN(s.PlotMax) || math.IsInf(s.PlotMax, 0) {
		return fmt.Errorf("spectrogram.Settings: plot max must be a positive number, got %v", s.PlotMax)
	}
	return nil
}

// NeedsRecompute reports whether moving from s to other invalidates the
// spectral chunks.
func (s Settings) NeedsRecompute(other Settings) bool {
	return s.WindowSize != other.WindowSize || s.StepSize != other.StepSize
}

// NeedsRedraw reports whether moving from s to other invalidates only the
// images.
func (s Settings) NeedsRedraw(other Settings) bool {
	return !s.NeedsRecompute(other) && (s.Gradient != other.Gradient || s.PlotMax != other.PlotMax)
}
