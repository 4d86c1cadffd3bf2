package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roman-kulish/blackbox-analyzer/internal/render"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/stepresponse"
)

// fileNameReplacer turns "gyroADC[0]" into "gyroADC_0".
var fileNameReplacer = strings.NewReplacer("[", "_", "]", "")

// Exporter writes the images of finished results into a directory.
type Exporter struct {
	directory  string
	format     render.ImageFormat
	sampleRate float64
	renderer   *render.Renderer
}

// NewExporter creates an Exporter for a flight sampled at sampleRate.
func NewExporter(config *OutputConfig, sampleRate float64) (*Exporter, error) {
	format, err := render.ParseImageFormat(config.Format)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	renderer, err := render.NewRenderer(render.RenderConfig{
		Width:         config.Width,
		Height:        config.Height,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	return &Exporter{
		directory:  config.Directory,
		format:     format,
		sampleRate: sampleRate,
		renderer:   renderer,
	}, nil
}

// ExportAxis writes the time and throttle projections of a.
func (e *Exporter) ExportAxis(a *spectrogram.Axis) error {
	tiles := a.Tiles()
	if len(tiles) > 0 {
		img, err := e.renderer.Render(render.Stitch(tiles), render.TimeAnnotation(a.Name(), tiles, e.sampleRate))
		if err != nil {
			return fmt.Errorf("rendering time projection: %w", err)
		}
		if err = render.WriteFile(e.path(a.Name(), "time"), img, e.format); err != nil {
			return err
		}
	}

	if throttle := a.ThrottleImage(); throttle != nil {
		img, err := e.renderer.Render(throttle, render.ThrottleAnnotation(a.Name(), throttle, e.sampleRate))
		if err != nil {
			return fmt.Errorf("rendering throttle projection: %w", err)
		}
		if err = render.WriteFile(e.path(a.Name(), "throttle"), img, e.format); err != nil {
			return err
		}
	}

	return nil
}

// ExportStepResponse writes a chart of the curves, always as PNG.
func (e *Exporter) ExportStepResponse(title string, names []string, curves []stepresponse.Curve) (err error) {
	named := make([]render.NamedCurve, len(curves))
	for i := range curves {
		named[i] = render.NamedCurve{Name: names[i], Curve: curves[i]}
	}

	path := filepath.Join(e.directory, "step_response.png")
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return render.StepResponseChart(out, title, named)
}

func (e *Exporter) path(component, domain string) string {
	return filepath.Join(e.directory, fmt.Sprintf("%s_%s.%s", fileNameReplacer.Replace(component), domain, e.format))
}
