package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxParseErrors is the default number of malformed rows tolerated by LoadCSV.
const MaxParseErrors = 100

// ErrTooManyParseErrors is returned when a log has more malformed rows than
// allowed.
var ErrTooManyParseErrors = errors.New("too many parse errors")

// ErrNoTimeColumn is returned when a log has no time column.
var ErrNoTimeColumn = errors.New("time column not found")

var timeColumns = []string{"time", "time (us)"}

// LoaderOption configures LoadCSV.
type LoaderOption func(*loader)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithMaxParseErrors sets the number of malformed rows tolerated before
// loading fails.
func WithMaxParseErrors(n int) LoaderOption {
	return func(l *loader) {
		l.maxParseErrors = n
	}
}

// WithName sets the flight name.
func WithName(name string) LoaderOption {
	return func(l *loader) {
		l.name = name
	}
}

type loader struct {
	name           string
	logger         *slog.Logger
	maxParseErrors int
}

// Open loads the decoded log at path.
func Open(path string, options ...LoaderOption) (flight *Flight, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	options = append([]LoaderOption{WithName(filepath.Base(path))}, options...)
	return LoadCSV(f, options...)
}

// LoadCSV reads a log decoded to CSV, one main frame per row with a header row
// naming the fields. Header names may carry a unit suffix, e.g.
// "vbatLatest (V)". The time column holds microseconds.
//
// Rows going back in time or with an unreadable time are skipped; other
// unreadable cells become NaN.
func LoadCSV(r io.Reader, options ...LoaderOption) (*Flight, error) {
	l := loader{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxParseErrors: MaxParseErrors,
	}
	for _, option := range options {
		option(&l)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	names := make([]string, len(header))
	units := make(map[string]string)
	timeIdx := -1
	for i, h := range header {
		name, unit := splitUnit(h)
		names[i] = name
		if unit != "" {
			units[name] = unit
		}
		for _, tc := range timeColumns {
			if strings.EqualFold(strings.TrimSpace(h), tc) {
				timeIdx = i
			}
		}
	}
	if timeIdx < 0 {
		return nil, ErrNoTimeColumn
	}

	var times []float64
	values := make(map[string][]float32, len(names))
	for i, name := range names {
		if i != timeIdx && name != "" {
			values[name] = nil
		}
	}

	var parseErrors int
	skip := func(line int, reason string) error {
		parseErrors++
		l.logger.Debug("skipping row", slog.Int("line", line), slog.String("reason", reason))
		if parseErrors > l.maxParseErrors {
			return fmt.Errorf("%w: %d", ErrTooManyParseErrors, parseErrors)
		}
		return nil
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if sErr := skip(line, err.Error()); sErr != nil {
				return nil, sErr
			}
			continue
		}

		if timeIdx >= len(record) {
			if err = skip(line, "missing time"); err != nil {
				return nil, err
			}
			continue
		}
		us, err := strconv.ParseFloat(strings.TrimSpace(record[timeIdx]), 64)
		if err != nil {
			if err = skip(line, "invalid time"); err != nil {
				return nil, err
			}
			continue
		}

		t := us / 1e6
		if n := len(times); n > 0 && t < times[n-1] {
			continue
		}
		times = append(times, t)

		for i, name := range names {
			if i == timeIdx || name == "" {
				continue
			}
			v := float32(math.NaN())
			if i < len(record) {
				if f, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 32); err == nil {
					v = float32(f)
				}
			}
			values[name] = append(values[name], v)
		}
	}

	if parseErrors > 0 {
		l.logger.Warn("skipped malformed rows", slog.Int("count", parseErrors))
	}

	return NewFlight(l.name, times, values, units), nil
}

// splitUnit separates "name (unit)" into its parts.
func splitUnit(header string) (name, unit string) {
	header = strings.TrimSpace(header)
	open := strings.LastIndexByte(header, '(')
	if open < 0 || !strings.HasSuffix(header, ")") {
		return header, ""
	}
	return strings.TrimSpace(header[:open]), strings.TrimSpace(header[open+1 : len(header)-1])
}
