package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/roman-kulish/blackbox-analyzer/internal/render"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

const (
	DomainTime     Domain = "time"
	DomainThrottle Domain = "throttle"
	DomainStep     Domain = "step"
)

// Domain selects what is rendered.
type Domain string

var validDomains = map[Domain]struct{}{
	DomainTime:     {},
	DomainThrottle: {},
	DomainStep:     {},
}

type Config struct {
	DBPath        string
	SessionID     int64
	Series        string
	Axis          int
	OutputFile    string
	Format        render.ImageFormat
	Gradient      spectrogram.Gradient
	PlotMax       float64
	AutoPlotMax   bool
	Domain        Domain
	StartTime     *float64
	EndTime       *float64
	Width         int
	Height        int
	NoAnnotations bool
	List          bool
}

func NewConfig() *Config {
	return &Config{
		SessionID: 1,
		Series:    telemetry.SeriesGyro,
		Format:    render.ImagePNG,
		Gradient:  spectrogram.DefaultGradient,
		PlotMax:   spectrogram.DefaultSettings().PlotMax,
		Domain:    DomainTime,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

// ParseConfig reads the configuration from command line arguments.
func ParseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, gradient, domain string
	var startTime, endTime float64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", c.SessionID, "Session ID")
	fs.StringVar(&c.Series, "series", c.Series, "Series to render, e.g. gyroADC, gyroUnfilt, axisD")
	fs.IntVar(&c.Axis, "axis", c.Axis, "Series component: 0 roll, 1 pitch, 2 yaw")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(render.ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&gradient, "gradient", string(c.Gradient), fmt.Sprintf("Colour gradient. %v", spectrogram.Gradients))
	fs.Float64Var(&c.PlotMax, "plot-max", c.PlotMax, "log10 power painted with the last gradient colour")
	fs.BoolVar(&c.AutoPlotMax, "auto-plot-max", false, "Derive the plot max from the stored power distribution")
	fs.StringVar(&domain, "domain", string(c.Domain), "What to render. [time, throttle, step]")
	fs.Float64Var(&startTime, "start", 0, "Render chunks from this time, in seconds")
	fs.Float64Var(&endTime, "end", 0, "Render chunks up to this time, in seconds")
	fs.IntVar(&c.Width, "width", 0, "Plot width in pixels")
	fs.IntVar(&c.Height, "height", 0, "Plot height in pixels")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as time and frequency scales")
	fs.BoolVar(&c.List, "list", false, "List sessions and their series, then exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "start" {
			c.StartTime = &startTime
		}
		if f.Name == "end" {
			c.EndTime = &endTime
		}
	})

	if c.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if c.List {
		return c, nil
	}

	var err error
	if c.SessionID <= 0 {
		return nil, errors.New("session id is required")
	}
	if c.OutputFile == "" {
		return nil, errors.New("output file is required")
	}
	if c.Axis < 0 || c.Axis >= telemetry.Axes {
		return nil, fmt.Errorf("invalid axis %d", c.Axis)
	}
	if c.Format, err = render.ParseImageFormat(imageFormat); err != nil {
		return nil, err
	}
	if c.Gradient, err = spectrogram.ParseGradient(gradient); err != nil {
		return nil, err
	}
	if c.PlotMax <= 0 {
		return nil, fmt.Errorf("plot max must be greater than zero, got %v", c.PlotMax)
	}
	c.Domain = Domain(strings.ToLower(domain))
	if _, ok := validDomains[c.Domain]; !ok {
		return nil, fmt.Errorf("invalid domain: %s", domain)
	}
	if c.StartTime != nil && c.EndTime != nil && *c.StartTime > *c.EndTime {
		return nil, errors.New("start time is after end time")
	}

	// Step response charts are always PNG.
	if c.Domain == DomainStep {
		c.Format = render.ImagePNG
	}

	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
