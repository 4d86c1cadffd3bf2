// Package render turns spectrogram images and step response curves into
// annotated pictures.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	xdraw "golang.org/x/image/draw"
)

const (
	dpi            = 96.0
	fontSize       = 10.0
	tickMarkLength = 5
	pixelsPerLabel = 100.0

	// Default border sizes in pixels
	defaultTopBorder    = 30
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 20

	// Default plot area size in pixels
	defaultWidth  = 1024
	defaultHeight = 512
)

// BorderConfig defines the sizes of white space around the plot
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for the vertical scale
	Bottom int // Space for the horizontal scale
	Right  int // Right padding
}

// RenderConfig holds all configuration options for spectrogram pictures
type RenderConfig struct {
	Width         int          // Plot area width, the image is scaled to fit
	Height        int          // Plot area height, the image is scaled to fit
	FontSize      float64      // Font size in points
	NoAnnotations bool         // Render the bare plot without borders
	BorderConfig  BorderConfig // Border configuration
}

// Scale describes one axis of the plot.
type Scale struct {
	Min    float64               // Value at the left or bottom edge
	Max    float64               // Value at the right or top edge
	Format func(float64) string // Label formatter
}

// Annotation describes the labels drawn around a plot.
type Annotation struct {
	Title string
	X     Scale
	Y     Scale
}

// Renderer draws annotated spectrogram pictures.
type Renderer struct {
	config RenderConfig
	font   *truetype.Font
}

// NewRenderer creates a new renderer with the given configuration
func NewRenderer(config RenderConfig) (*Renderer, error) {
	// Set defaults for zero values
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Height <= 0 {
		config.Height = defaultHeight
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Renderer{config: config, font: parsedFont}, nil
}

// Render scales plot to the configured size and draws the annotation around it.
func (r *Renderer) Render(plot image.Image, ann Annotation) (*image.RGBA, error) {
	if r.config.NoAnnotations {
		img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
		xdraw.NearestNeighbor.Scale(img, img.Bounds(), plot, plot.Bounds(), draw.Over, nil)
		return img, nil
	}

	b := r.config.BorderConfig
	fullWidth := r.config.Width + b.Left + b.Right
	fullHeight := r.config.Height + b.Top + b.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(b.Left, b.Top, b.Left+r.config.Width, b.Top+r.config.Height)
	draw.Draw(img, plotArea, image.Black, image.Point{}, draw.Src)
	xdraw.NearestNeighbor.Scale(img, plotArea, plot, plot.Bounds(), draw.Over, nil)

	annot, err := r.newAnnotator(img, plotArea)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer annot.Close()

	ops := []struct {
		msg string
		fn  func(Annotation) error
	}{
		{"drawing title", annot.drawTitle},
		{"drawing horizontal scale", annot.drawXScale},
		{"drawing vertical scale", annot.drawYScale},
	}
	for _, op := range ops {
		if err = op.fn(ann); err != nil {
			return nil, fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return img, nil
}

type annotator struct {
	img      *image.RGBA
	area     image.Rectangle
	context  *freetype.Context
	fontFace font.Face
}

func (r *Renderer) newAnnotator(img *image.RGBA, area image.Rectangle) (*annotator, error) {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(r.font)
	ctx.SetFontSize(r.config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	return &annotator{
		img:     img,
		area:    area,
		context: ctx,
		fontFace: truetype.NewFace(r.font, &truetype.Options{
			Size:    r.config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) drawTitle(ann Annotation) error {
	if ann.Title == "" {
		return nil
	}

	metrics := a.fontFace.Metrics()
	textY := a.area.Min.Y - (a.area.Min.Y-(metrics.Ascent+metrics.Descent).Round())/2 - metrics.Descent.Round()

	_, err := a.context.DrawString(ann.Title, freetype.Pt(a.area.Min.X, textY))
	return err
}

func (a *annotator) drawXScale(ann Annotation) error {
	s := ann.X
	if s.Max <= s.Min || s.Format == nil {
		return nil
	}

	step := niceStep(s.Max-s.Min, float64(a.area.Dx())/pixelsPerLabel)
	metrics := a.fontFace.Metrics()
	textY := a.area.Max.Y + tickMarkLength + metrics.Ascent.Round() + 2

	for v := math.Ceil(s.Min/step) * step; v <= s.Max; v += step {
		x := a.area.Min.X + int((v-s.Min)/(s.Max-s.Min)*float64(a.area.Dx()-1))

		// Draw tick mark
		for y := a.area.Max.Y; y < a.area.Max.Y+tickMarkLength; y++ {
			a.img.Set(x, y, color.Black)
		}

		label := s.Format(v)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(x-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing label %q: %w", label, err)
		}
	}
	return nil
}

func (a *annotator) drawYScale(ann Annotation) error {
	s := ann.Y
	if s.Max <= s.Min || s.Format == nil {
		return nil
	}

	step := niceStep(s.Max-s.Min, float64(a.area.Dy())/(pixelsPerLabel/2))
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for v := math.Ceil(s.Min/step) * step; v <= s.Max; v += step {
		y := a.area.Max.Y - 1 - int((v-s.Min)/(s.Max-s.Min)*float64(a.area.Dy()-1))

		// Draw tick mark
		for x := a.area.Min.X - tickMarkLength; x < a.area.Min.X; x++ {
			a.img.Set(x, y, color.Black)
		}

		label := s.Format(v)
		width := font.MeasureString(a.fontFace, label)
		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(a.area.Min.X-tickMarkLength-2-width.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing label %q: %w", label, err)
		}
	}
	return nil
}

// niceStep returns a 1, 2 or 5 times power of ten step splitting span into
// about n labels.
func niceStep(span, n float64) float64 {
	if span <= 0 || n < 1 {
		return math.Max(span, 1)
	}

	rough := span / n
	magnitude := math.Pow(10, math.Floor(math.Log10(rough)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= rough {
			return step
		}
	}
	return 10 * magnitude
}
