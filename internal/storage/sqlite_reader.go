package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
)

// ErrNoData indicates either that no data exists for the given parameters,
// or that all available data has been read from a reader.
var ErrNoData = fmt.Errorf("no data available")

// ReaderOption configures a ChunkReader with specific filtering criteria.
type ReaderOption func(*ChunkReader)

// WithStartTime excludes chunks before t seconds.
func WithStartTime(t float64) ReaderOption {
	return func(r *ChunkReader) {
		r.startTime = &t
	}
}

// WithEndTime excludes chunks after t seconds.
func WithEndTime(t float64) ReaderOption {
	return func(r *ChunkReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters.
// This is a convenience function equivalent to applying both WithStartTime
// and WithEndTime.
func WithTimeRange(startTime, endTime float64) ReaderOption {
	return func(r *ChunkReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// ChunkReader iterates over the stored chunks of one series component in time
// order.
type ChunkReader struct {
	db *sql.DB

	sessionID int64
	session   *Session
	series    string
	axis      int

	startTime *float64 // Optional start of time range filter
	endTime   *float64 // Optional end of time range filter

	current *spectral.Chunk
	rows    *sql.Rows
	err     error
}

func newChunkReader(ctx context.Context, db *sql.DB, sessionID int64, series string, axis int, opts ...ReaderOption) (*ChunkReader, error) {
	r := &ChunkReader{
		db:        db,
		sessionID: sessionID,
		series:    series,
		axis:      axis,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *ChunkReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: r.loadSession},
		{msg: "initializing filters", fn: r.initFilters},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *ChunkReader) loadSession(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if r.session, err = scanSession(stmt.QueryRowContext(ctx, r.sessionID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %d: %w", r.sessionID, ErrNoData)
		}
		return fmt.Errorf("querying session: %w", err)
	}
	return nil
}

func (r *ChunkReader) initFilters(context.Context) error {
	if r.startTime != nil && r.endTime != nil && *r.startTime > *r.endTime {
		return fmt.Errorf("start time %f is after end time %f", *r.startTime, *r.endTime)
	}

	if r.startTime == nil {
		start := -math.MaxFloat64
		r.startTime = &start
	}
	if r.endTime == nil {
		end := math.MaxFloat64
		r.endTime = &end
	}
	return nil
}

func (r *ChunkReader) initQuery(ctx context.Context) (err error) {
	r.rows, err = r.db.QueryContext(ctx, selectChunksSQL, r.sessionID, r.series, r.axis, *r.startTime, *r.endTime)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	return nil
}

// Session returns the session the reader is reading from.
func (r *ChunkReader) Session() *Session {
	return r.session
}

// Next advances the reader and returns true if there is another chunk to
// read, false when the iteration is complete or if an error occurred.
func (r *ChunkReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		r.err = ctx.Err()
		return false
	default:
	}

	if !r.rows.Next() {
		r.current = nil
		r.err = ErrNoData
		return false
	}

	var chunk spectral.Chunk
	var throttle sql.NullFloat64
	var spectrum []byte
	if r.err = r.rows.Scan(&chunk.Time, &throttle, &spectrum); r.err != nil {
		r.err = fmt.Errorf("scanning chunk: %w", r.err)
		return false
	}
	if chunk.Power, r.err = decodeSpectrum(spectrum); r.err != nil {
		r.err = fmt.Errorf("decoding chunk at %f: %w", chunk.Time, r.err)
		return false
	}
	chunk.Throttle = float32(fromSQLNullFloat(throttle))

	r.current = &chunk
	return true
}

// Current returns the chunk read by the last successful call to Next.
func (r *ChunkReader) Current() *spectral.Chunk {
	return r.current
}

// Error returns any error that occurred during iteration. Reaching the end
// of the data is not an error.
func (r *ChunkReader) Error() error {
	if r.err != nil && !errors.Is(r.err, ErrNoData) {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

// Close releases the resources held by the reader.
func (r *ChunkReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.current = nil
		r.rows = nil
		return err
	}
	return nil
}

// ReadAllChunks drains a reader into a slice.
func ReadAllChunks(ctx context.Context, r *ChunkReader) ([]spectral.Chunk, error) {
	var chunks []spectral.Chunk
	for r.Next(ctx) {
		chunks = append(chunks, *r.Current())
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return chunks, nil
}
