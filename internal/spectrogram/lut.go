package spectrogram

import (
	"image/color"
	"math"
)

// TableSize is the number of colours in a LookupTable.
const TableSize = 128

// LookupTable holds colours sampled from a gradient at offsets i/TableSize.
// It is immutable and safe to share between goroutines.
type LookupTable struct {
	gradient Gradient
	colors   [TableSize]color.NRGBA
}

// NewLookupTable samples g into a new table.
func NewLookupTable(g Gradient) *LookupTable {
	t := LookupTable{gradient: g}
	for i := range t.colors {
		r, gg, b := g.At(float64(i) / TableSize).Clamped().RGB255()
		t.colors[i] = color.NRGBA{R: r, G: gg, B: b, A: 255}
	}
	return &t
}

// Color maps a log-power value to a colour. Power is clamped at zero and
// normalized by plotMax; values at or above plotMax get the last colour.
func (t *LookupTable) Color(power float32, plotMax float64) color.NRGBA {
	v := float64(power)
	if math.IsNaN(v) || v <= 0 {
		return t.colors[0]
	}

	f := v / plotMax
	if plotMax <= 0 || f >= 1 {
		return t.colors[TableSize-1]
	}
	return t.colors[min(int(f*TableSize), TableSize-1)]
}

// Palette caches the lookup table of the current gradient and rebuilds it only
// when a different gradient is requested.
type Palette struct {
	gradient Gradient
	table    *LookupTable
}

// Table returns the lookup table for g.
func (p *Palette) Table(g Gradient) *LookupTable {
	if p.table == nil || p.gradient != g {
		p.gradient = g
		p.table = NewLookupTable(g)
	}
	return p.table
}
