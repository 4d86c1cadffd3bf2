package spectrogram

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Gradient names a continuous color scale used to paint spectral power.
type Gradient string

const (
	Inferno Gradient = "inferno" // Black to purple to yellow
	Viridis Gradient = "viridis" // Purple to teal to yellow
	Turbo   Gradient = "turbo"   // Rainbow, dark blue to dark red

	Classic   Gradient = "classic"   // Blue to red transition
	Grayscale Gradient = "grayscale" // Black to white transition
	Jungle    Gradient = "jungle"    // Dark green to yellow transition
	Thermal   Gradient = "thermal"   // Black to red to yellow to white
	Marine    Gradient = "marine"    // Deep blue to cyan to white

	DefaultGradient = Inferno
)

// Gradients lists every known gradient, perceptual scales first.
var Gradients = []Gradient{Inferno, Viridis, Turbo, Classic, Grayscale, Jungle, Thermal, Marine}

// Evenly spaced colour stops of the perceptual scales.
var gradientStops = map[Gradient][]colorful.Color{
	Inferno: mustHex("#000004", "#1f0c48", "#550f6d", "#88226a", "#ba3655", "#e35933", "#f98e09", "#f9cb35", "#fcffa4"),
	Viridis: mustHex("#440154", "#472c7a", "#3b518b", "#2c718e", "#21908d", "#27ad81", "#5cc863", "#aadc32", "#fde725"),
	Turbo:   mustHex("#30123b", "#4662d7", "#36aaf9", "#1ae4b6", "#72fe5e", "#c8ef34", "#faba39", "#f66b19", "#ca2a04", "#7a0403"),
}

func mustHex(hex ...string) []colorful.Color {
	colors := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("spectrogram: invalid colour %q: %v", h, err))
		}
		colors[i] = c
	}
	return colors
}

// ParseGradient returns the gradient called name, ignoring case.
func ParseGradient(name string) (Gradient, error) {
	g := Gradient(strings.ToLower(strings.TrimSpace(name)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown gradient '%s'", name)
	}
	return g, nil
}

// Valid reports whether g is a known gradient.
func (g Gradient) Valid() bool {
	return slices.Contains(Gradients, g)
}

// At returns the colour of the gradient at t, clamped to [0, 1].
func (g Gradient) At(t float64) colorful.Color {
	t = math.Max(0, math.Min(1, t))

	if stops, ok := gradientStops[g]; ok {
		return interpolate(stops, t)
	}

	switch g {
	case Classic:
		return colorful.Hsv(240-(t*240), 0.9+(t*0.1), math.Pow(t, 0.7))

	case Grayscale:
		v := math.Pow(t, 0.7)
		return colorful.Color{R: v, G: v, B: v}

	case Jungle:
		return colorful.Hsv(120-(t*60), 1.0, 0.3+(math.Pow(t, 0.6)*0.7))

	case Thermal:
		switch {
		case t < 0.33:
			return colorful.Color{R: t * 3}
		case t < 0.66:
			return colorful.Color{R: 1, G: (t - 0.33) * 3}
		default:
			return colorful.Color{R: 1, G: 1, B: math.Min(1, (t-0.66)*3)}
		}

	case Marine:
		return colorful.Hsv(240-(t*60), 1.0-(t*0.8), 0.3+(math.Pow(t, 0.6)*0.7))

	default:
		return interpolate(gradientStops[DefaultGradient], t)
	}
}

// interpolate blends evenly spaced stops in Lab space.
func interpolate(stops []colorful.Color, t float64) colorful.Color {
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return stops[i].BlendLab(stops[i+1], pos-float64(i)).Clamped()
}
