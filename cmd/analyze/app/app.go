package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/blackbox-analyzer/internal/storage"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

const (
	storageDir = "data"
)

// Run loads the configured flight, analyzes it and stores the results.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	flight, err := telemetry.Open(config.Input.LogFile,
		telemetry.WithLogger(logger),
		telemetry.WithMaxParseErrors(config.Input.MaxParseErrors))
	if err != nil {
		return fmt.Errorf("failed to load flight: %w", err)
	}

	logger.Info("flight loaded",
		slog.String("name", flight.Name),
		slog.String("rows", humanize.Comma(int64(flight.Len()))),
		slog.String("duration", time.Duration(flight.Duration()*float64(time.Second)).Round(time.Millisecond).String()),
		slog.String("sampleRate", fmt.Sprintf("%s Hz", humanize.FtoaWithDigits(flight.SampleRate, 1))))

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	options := []func(*Orchestrator){
		WithMaxBatchSize(config.Storage.MaxBatchSize),
		WithSettings(config.Spectrogram),
		WithSeries(config.Series...),
		WithStepResponse(config.StepResponse),
		WithPollInterval(config.Settings.PollInterval),
	}

	if config.Output.Directory != "" {
		exporter, err := NewExporter(&config.Output, flight.SampleRate)
		if err != nil {
			return fmt.Errorf("failed to create exporter: %w", err)
		}
		options = append(options, WithExporter(exporter))
	}

	sessionID, err := NewOrchestrator(store, logger, options...).Run(ctx, flight)
	if err != nil {
		return fmt.Errorf("analyzing flight: %w", err)
	}

	logger.Info("session stored", slog.Int64("session", sessionID))
	return nil
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("blackbox_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
