package render

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
)

// FormatFrequency formats Hz with an SI prefix, e.g. "1.5 kHz".
func FormatFrequency(hz float64) string {
	v, prefix := humanize.ComputeSI(hz)
	return strings.TrimSpace(fmt.Sprintf("%s %sHz", humanize.FtoaWithDigits(v, 2), prefix))
}

// FormatSeconds formats a time offset, e.g. "12.5 s".
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%s s", humanize.FtoaWithDigits(s, 2))
}

// FormatMilliseconds formats seconds as milliseconds, e.g. "250 ms".
func FormatMilliseconds(s float64) string {
	return fmt.Sprintf("%s ms", humanize.FtoaWithDigits(s*1000, 1))
}

// FormatThrottle formats a 0 to 1000 throttle value as a percentage.
func FormatThrottle(t float64) string {
	return fmt.Sprintf("%.0f%%", t/spectrogram.ThrottleMax*100)
}

// Stitch places time tiles side by side, in order.
func Stitch(tiles []spectrogram.Tile) *image.NRGBA {
	var width, height int
	for _, t := range tiles {
		width += t.Image.Bounds().Dx()
		height = max(height, t.Image.Bounds().Dy())
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	x := 0
	for _, t := range tiles {
		b := t.Image.Bounds()
		draw.Draw(img, image.Rect(x, height-b.Dy(), x+b.Dx(), height), t.Image, b.Min, draw.Src)
		x += b.Dx()
	}
	return img
}

// FrequencyScale spans the painted rows of a projection with bins rows: the
// bottom row is DC and the top row is bin bins-1 of a 2*bins sample window.
func FrequencyScale(bins int, sampleRate float64) Scale {
	return Scale{
		Min:    0,
		Max:    spectral.BinFrequency(bins-1, 2*bins, sampleRate),
		Format: FormatFrequency,
	}
}

// TimeAnnotation labels a stitched time projection.
func TimeAnnotation(title string, tiles []spectrogram.Tile, sampleRate float64) Annotation {
	ann := Annotation{Title: title}
	if len(tiles) > 0 {
		ann.X = Scale{Min: tiles[0].Start, Max: tiles[len(tiles)-1].End, Format: FormatSeconds}
		ann.Y = FrequencyScale(tiles[0].Image.Bounds().Dy(), sampleRate)
	}
	return ann
}

// ThrottleAnnotation labels the throttle projection img.
func ThrottleAnnotation(title string, img image.Image, sampleRate float64) Annotation {
	return Annotation{
		Title: title,
		X:     Scale{Min: 0, Max: spectrogram.ThrottleMax, Format: FormatThrottle},
		Y:     FrequencyScale(img.Bounds().Dy(), sampleRate),
	}
}
