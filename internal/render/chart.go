package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/roman-kulish/blackbox-analyzer/internal/stepresponse"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

// ErrNoCurves is returned when none of the curves has two finite points.
var ErrNoCurves = errors.New("no plottable step response curves")

var axisColors = []drawing.Color{
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorBlue,
}

// NamedCurve is a step response with a legend label.
type NamedCurve struct {
	Name  string
	Curve stepresponse.Curve
}

// StepResponseChart plots the curves as one line chart and writes it as PNG.
func StepResponseChart(w io.Writer, title string, curves []NamedCurve) error {
	series := make([]chart.Series, 0, len(curves))
	for i, c := range curves {
		xs, ys := finitePoints(c.Curve)
		if len(xs) < 2 {
			continue
		}

		series = append(series, chart.ContinuousSeries{
			Name:    c.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: 2,
				StrokeColor: axisColors[i%len(axisColors)],
			},
		})
	}
	if len(series) == 0 {
		return ErrNoCurves
	}

	ch := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: millisecondFormatter,
		},
		YAxis:  chart.YAxis{Name: "Response"},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func millisecondFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return FormatMilliseconds(f)
	}
	return fmt.Sprint(v)
}

// finitePoints drops samples whose magnitude is NaN or infinite.
func finitePoints(c stepresponse.Curve) (xs, ys []float64) {
	n := min(len(c.Time), len(c.Magnitude))
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	for i := range n {
		if math.IsNaN(c.Magnitude[i]) || math.IsInf(c.Magnitude[i], 0) {
			continue
		}
		xs = append(xs, c.Time[i])
		ys = append(ys, c.Magnitude[i])
	}
	return xs, ys
}
