package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/blackbox-analyzer/internal/render"
	"github.com/roman-kulish/blackbox-analyzer/internal/spectrogram"
	"github.com/roman-kulish/blackbox-analyzer/internal/storage"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	switch {
	case config.List:
		return listSessions(ctx, store, logger)
	case config.Domain == DomainStep:
		return renderStepResponse(ctx, store, config, logger)
	default:
		return renderSpectrogram(ctx, store, config, logger)
	}
}

func listSessions(ctx context.Context, store storage.Store, logger *slog.Logger) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}

	for _, s := range sessions {
		series, err := store.Series(ctx, s.ID)
		if err != nil {
			return err
		}

		attrs := []any{
			slog.Int64("id", s.ID),
			slog.String("logFile", s.LogFile),
			slog.String("sampleRate", render.FormatFrequency(s.SampleRate)),
			slog.String("started", humanize.Time(s.StartTime)),
		}
		for _, info := range series {
			attrs = append(attrs, slog.String(telemetry.ComponentName(info.Series, info.Axis),
				fmt.Sprintf("%s chunks, %s to %s", humanize.Comma(int64(info.Chunks)), render.FormatSeconds(info.Start), render.FormatSeconds(info.End))))
		}
		logger.Info("session", attrs...)
	}
	return nil
}

func renderSpectrogram(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) error {
	var opts []storage.ReaderOption
	var filters []any
	switch {
	case config.StartTime != nil && config.EndTime != nil:
		opts = append(opts, storage.WithTimeRange(*config.StartTime, *config.EndTime))
		filters = append(filters,
			slog.String("start", render.FormatSeconds(*config.StartTime)),
			slog.String("end", render.FormatSeconds(*config.EndTime)))

	case config.StartTime != nil:
		opts = append(opts, storage.WithStartTime(*config.StartTime))
		filters = append(filters, slog.String("start", render.FormatSeconds(*config.StartTime)))

	case config.EndTime != nil:
		opts = append(opts, storage.WithEndTime(*config.EndTime))
		filters = append(filters, slog.String("end", render.FormatSeconds(*config.EndTime)))
	}

	name := telemetry.ComponentName(config.Series, config.Axis)
	logger.Info("reader configuration", append(filters, slog.String("component", name))...)

	reader, err := store.ReadChunks(ctx, config.SessionID, config.Series, config.Axis, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()

	session := reader.Session()
	chunks, err := storage.ReadAllChunks(ctx, reader)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%s: %w", name, storage.ErrNoData)
	}

	logger.Info("finished reading chunks",
		slog.Group("stats",
			slog.String("chunks", humanize.Comma(int64(len(chunks)))),
			slog.String("start", render.FormatSeconds(chunks[0].Time)),
			slog.String("end", render.FormatSeconds(chunks[len(chunks)-1].Time)),
			slog.Int("bins", chunks[0].Bins()),
			slog.String("sampleRate", render.FormatFrequency(session.SampleRate)),
		))

	plotMax := config.PlotMax
	if config.AutoPlotMax {
		plotMax = autoPlotMax(chunks)
		logger.Info("derived plot max", slog.Float64("plotMax", plotMax))
	}

	lut := spectrogram.NewLookupTable(config.Gradient)

	var plot image.Image
	var ann render.Annotation
	switch config.Domain {
	case DomainThrottle:
		throttle := spectrogram.ThrottleImage(chunks, lut, plotMax)
		plot = throttle
		ann = render.ThrottleAnnotation(name, throttle, session.SampleRate)

	default:
		tiles := spectrogram.TimeTiles(chunks, lut, plotMax)
		plot = render.Stitch(tiles)
		ann = render.TimeAnnotation(name, tiles, session.SampleRate)
	}

	renderer, err := render.NewRenderer(render.RenderConfig{
		Width:         config.Width,
		Height:        config.Height,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	logger.Info("rendering spectrogram",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("domain", string(config.Domain)),
			slog.String("gradient", string(config.Gradient)),
			slog.Int("width", plot.Bounds().Dx()),
			slog.Int("height", plot.Bounds().Dy()),
		))

	img, err := renderer.Render(plot, ann)
	if err != nil {
		return fmt.Errorf("rendering spectrogram: %w", err)
	}

	return render.WriteFile(config.OutputFile, img, config.Format)
}

func renderStepResponse(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (err error) {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return err
	}

	var curves []render.NamedCurve
	for axis := range telemetry.Axes {
		curve, err := store.StepResponse(ctx, config.SessionID, axis)
		if errors.Is(err, storage.ErrNoData) {
			logger.Warn(fmt.Sprintf("%s: no step response stored", telemetry.AxisName(axis)))
			continue
		}
		if err != nil {
			return err
		}
		curves = append(curves, render.NamedCurve{Name: telemetry.AxisName(axis), Curve: curve})
	}
	if len(curves) == 0 {
		return fmt.Errorf("step response: %w", storage.ErrNoData)
	}

	logger.Info("rendering step response", slog.String("destination", config.OutputFile), slog.Int("curves", len(curves)))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return render.StepResponseChart(out, session.LogFile, curves)
}
