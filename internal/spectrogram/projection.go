package spectrogram

import (
	"image"
	"math"
	"slices"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
)

const (
	TileWidth       = 1024   // Chunks per time tile
	ThrottleBuckets = 256    // Columns of the throttle image
	ThrottleMax     = 1000.0 // Full-scale throttle
)

// Tile is one section of the time projection.
type Tile struct {
	Start float64       // Time of the first chunk, seconds
	End   float64       // Time of the last chunk, seconds
	Image *image.NRGBA // One column per chunk, highest frequency on top
}

// TimeTiles splits chunks, in order, into tiles of TileWidth columns.
func TimeTiles(chunks []spectral.Chunk, lut *LookupTable, plotMax float64) []Tile {
	tiles := make([]Tile, 0, (len(chunks)+TileWidth-1)/TileWidth)
	for tile := range slices.Chunk(chunks, TileWidth) {
		tiles = append(tiles, TimeTile(tile, lut, plotMax))
	}
	return tiles
}

// TimeTile paints chunks side by side.
func TimeTile(chunks []spectral.Chunk, lut *LookupTable, plotMax float64) Tile {
	if len(chunks) == 0 {
		return Tile{Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))}
	}

	height := chunks[0].Bins()
	img := image.NewNRGBA(image.Rect(0, 0, len(chunks), height))
	for x, c := range chunks {
		paintColumn(img, x, c.Power, lut, plotMax)
	}

	return Tile{
		Start: chunks[0].Time,
		End:   chunks[len(chunks)-1].Time,
		Image: img,
	}
}

// ThrottleBucket returns the throttle image column a throttle value falls in.
// Values outside [0, ThrottleMax] are clamped.
func ThrottleBucket(throttle float32) int {
	f := math.Floor(float64(throttle) / ThrottleMax * ThrottleBuckets)
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= ThrottleBuckets-1:
		return ThrottleBuckets - 1
	default:
		return int(f)
	}
}

// ThrottleAverages averages the spectra of the chunks in every throttle
// bucket, bin by bin. Non-finite values do not contribute; a bin with no
// finite value averages to NaN. Empty buckets are nil.
func ThrottleAverages(chunks []spectral.Chunk) [][]float32 {
	sums := make([][]float64, ThrottleBuckets)
	counts := make([][]int, ThrottleBuckets)

	for _, c := range chunks {
		b := ThrottleBucket(c.Throttle)
		if sums[b] == nil {
			sums[b] = make([]float64, c.Bins())
			counts[b] = make([]int, c.Bins())
		}

		for k, p := range c.Power[:min(c.Bins(), len(sums[b]))] {
			v := float64(p)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sums[b][k] += v
			counts[b][k]++
		}
	}

	averages := make([][]float32, ThrottleBuckets)
	for b, sum := range sums {
		if sum == nil {
			continue
		}
		averages[b] = make([]float32, len(sum))
		for k, v := range sum {
			if counts[b][k] == 0 {
				averages[b][k] = float32(math.NaN())
				continue
			}
			averages[b][k] = float32(v / float64(counts[b][k]))
		}
	}
	return averages
}

// ThrottleImage paints the throttle projection of chunks. Empty buckets stay
// transparent.
func ThrottleImage(chunks []spectral.Chunk, lut *LookupTable, plotMax float64) *image.NRGBA {
	var height int
	if len(chunks) > 0 {
		height = chunks[0].Bins()
	}

	img := image.NewNRGBA(image.Rect(0, 0, ThrottleBuckets, height))
	for x, avg := range ThrottleAverages(chunks) {
		if avg != nil {
			paintColumn(img, x, avg, lut, plotMax)
		}
	}
	return img
}

// paintColumn draws a DC-first spectrum bottom up.
func paintColumn(img *image.NRGBA, x int, power []float32, lut *LookupTable, plotMax float64) {
	height := img.Bounds().Dy()
	for k, p := range power[:min(len(power), height)] {
		img.SetNRGBA(x, height-1-k, lut.Color(p, plotMax))
	}
}
