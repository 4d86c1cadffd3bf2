package storage

import (
	"context"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/stepresponse"
)

// Store persists analysis results so that spectrograms can be repainted and
// step responses plotted without recomputing them.
type Store interface {
	// CreateSession records a new analysis run and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - logFile: Flight log being analyzed
	//   - sampleRate: Sample rate of the flight in Hz
	//   - config: Optional analysis configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, logFile string, sampleRate float64, config any) (sessionID int64, err error)

	// Session retrieves a session by its ID. ErrNoData is returned when it
	// does not exist.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)

	// Series summarizes the series components with stored chunks.
	Series(ctx context.Context, sessionID int64) ([]SeriesInfo, error)

	// StoreChunks saves the chunks of one series component atomically.
	StoreChunks(ctx context.Context, sessionID int64, series string, axis int, chunks []spectral.Chunk) error

	// StoreStepResponse saves the step response curve of an axis atomically.
	StoreStepResponse(ctx context.Context, sessionID int64, axis int, curve stepresponse.Curve) error

	// ReadChunks returns a reader over the chunks of one series component.
	// The reader must be closed after use.
	ReadChunks(ctx context.Context, sessionID int64, series string, axis int, opts ...ReaderOption) (*ChunkReader, error)

	// StepResponse returns the stored step response of an axis.
	StepResponse(ctx context.Context, sessionID int64, axis int) (stepresponse.Curve, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
