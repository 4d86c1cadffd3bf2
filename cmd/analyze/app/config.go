package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/blackbox-analyzer/internal/render"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

const (
	defaultLogLevel     = "info"
	defaultMaxBatchSize = 100
)

// Config represents the main application configuration
type Config struct {
	Settings     Settings             `yaml:"settings"`
	Input        InputConfig          `yaml:"input"`
	Spectrogram  spectrogram.Settings `yaml:"spectrogram"`
	Series       []string             `yaml:"series"`
	StepResponse bool                 `yaml:"stepResponse"`
	Storage      StorageConfig        `yaml:"storage"`
	Output       OutputConfig         `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel     string        `yaml:"logLevel"`
	PollInterval time.Duration `yaml:"pollInterval"` // How often background results are collected
}

// Level returns the configured log level, info when it does not parse.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// InputConfig represents the flight log to analyze
type InputConfig struct {
	LogFile        string `yaml:"logFile"`
	MaxParseErrors int    `yaml:"maxParseErrors"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// OutputConfig represents image export settings. Nothing is exported when
// the directory is empty.
type OutputConfig struct {
	Directory     string `yaml:"directory"`
	Format        string `yaml:"format"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	NoAnnotations bool   `yaml:"noAnnotations"`
}

// DefaultConfig returns the configuration used for keys missing in the file.
func DefaultConfig() *Config {
	return &Config{
		Settings:     Settings{LogLevel: defaultLogLevel, PollInterval: pollInterval},
		Input:        InputConfig{MaxParseErrors: telemetry.MaxParseErrors},
		Spectrogram:  spectrogram.DefaultSettings(),
		Series:       []string{telemetry.SeriesGyro},
		StepResponse: true,
		Storage:      StorageConfig{MaxBatchSize: defaultMaxBatchSize},
		Output:       OutputConfig{Format: string(render.ImagePNG)},
	}
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Settings.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("app.Config: settings.pollInterval must be greater than zero, got %s", c.Settings.PollInterval))
	}
	if c.Input.LogFile == "" {
		errs = append(errs, errors.New("app.Config: input.logFile is required"))
	}
	if c.Input.MaxParseErrors < 0 {
		errs = append(errs, fmt.Errorf("app.Config: input.maxParseErrors must not be negative, got %d", c.Input.MaxParseErrors))
	}
	if err := c.Spectrogram.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("app.Config: %w", err))
	}
	if len(c.Series) == 0 {
		errs = append(errs, errors.New("app.Config: at least one series is required"))
	}
	for i, name := range c.Series {
		if name == "" {
			errs = append(errs, fmt.Errorf("app.Config: series %d has no name", i))
		} else if slices.Index(c.Series, name) != i {
			errs = append(errs, fmt.Errorf("app.Config: duplicate series %q", name))
		}
	}
	if c.Storage.MaxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("app.Config: storage.maxBatchSize must be greater than zero, got %d", c.Storage.MaxBatchSize))
	}
	if _, err := render.ParseImageFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("app.Config: output.format: %w", err))
	}
	if c.Output.Width < 0 || c.Output.Height < 0 {
		errs = append(errs, errors.New("app.Config: output size must not be negative"))
	}

	return errors.Join(errs...)
}
