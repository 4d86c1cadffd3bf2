package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "input:\n  logFile: flight.csv\n")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Spectrogram != spectrogram.DefaultSettings() {
		t.Errorf("Spectrogram = %+v, want defaults", config.Spectrogram)
	}
	if len(config.Series) != 1 || config.Series[0] != telemetry.SeriesGyro {
		t.Errorf("Series = %v, want [%s]", config.Series, telemetry.SeriesGyro)
	}
	if !config.StepResponse {
		t.Errorf("StepResponse = false, want true")
	}
	if config.Storage.MaxBatchSize != defaultMaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want %d", config.Storage.MaxBatchSize, defaultMaxBatchSize)
	}
	if config.Settings.PollInterval != pollInterval {
		t.Errorf("PollInterval = %s, want %s", config.Settings.PollInterval, pollInterval)
	}
	if config.Settings.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info", config.Settings.Level())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
  pollInterval: 5ms
input:
  logFile: flight.csv
spectrogram:
  windowSize: 512
  stepSize: 16
  gradient: viridis
  plotMax: 8
series: [gyroADC, axisD]
stepResponse: false
output:
  directory: out
  format: jpeg
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := spectrogram.Settings{WindowSize: 512, StepSize: 16, Gradient: spectrogram.Viridis, PlotMax: 8}
	if config.Spectrogram != want {
		t.Errorf("Spectrogram = %+v, want %+v", config.Spectrogram, want)
	}
	if len(config.Series) != 2 || config.Series[1] != "axisD" {
		t.Errorf("Series = %v", config.Series)
	}
	if config.StepResponse {
		t.Errorf("StepResponse = true, want false")
	}
	if config.Settings.PollInterval != 5*time.Millisecond {
		t.Errorf("PollInterval = %s, want 5ms", config.Settings.PollInterval)
	}
	if config.Settings.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", config.Settings.Level())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing log file",
			modify:  func(c *Config) { c.Input.LogFile = "" },
			wantErr: "input.logFile is required",
		},
		{
			name:    "unsupported window",
			modify:  func(c *Config) { c.Spectrogram.WindowSize = 100 },
			wantErr: "unsupported window size",
		},
		{
			name:    "no series",
			modify:  func(c *Config) { c.Series = nil },
			wantErr: "at least one series",
		},
		{
			name:    "duplicate series",
			modify:  func(c *Config) { c.Series = []string{"gyroADC", "gyroADC"} },
			wantErr: "duplicate series",
		},
		{
			name:    "poll interval",
			modify:  func(c *Config) { c.Settings.PollInterval = 0 },
			wantErr: "pollInterval",
		},
		{
			name:    "batch size",
			modify:  func(c *Config) { c.Storage.MaxBatchSize = 0 },
			wantErr: "maxBatchSize",
		},
		{
			name:    "format",
			modify:  func(c *Config) { c.Output.Format = "bmp" },
			wantErr: "output.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Input.LogFile = "flight.csv"
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "app.Config:") {
				t.Errorf("Validate() error = %q, want app.Config prefix", err)
			}
		})
	}
}
