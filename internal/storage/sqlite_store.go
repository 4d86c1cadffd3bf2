package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/stepresponse"
)

// maxRowsPerStatement bounds the number of rows in one multi-row INSERT so
// that the bound parameters stay under SQLite's variable limit.
const maxRowsPerStatement = 200

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite database at dbPath.
// Connections are opened, and the schema created, on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, logFile string, sampleRate float64, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, logFile, sampleRate, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var config sql.NullString
	if err := row.Scan(&sess.ID, &sess.StartTime, &sess.LogFile, &sess.SampleRate, &config); err != nil {
		return nil, err
	}
	if config.Valid {
		sess.Config = &config.String
	}
	return &sess, nil
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session, err = scanSession(stmt.QueryRowContext(ctx, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("session %d: %w", id, ErrNoData)
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *Session
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Series(ctx context.Context, sessionID int64) (series []SeriesInfo, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSeriesSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying series: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var info SeriesInfo
		if err = rows.Scan(&info.Series, &info.Axis, &info.Chunks, &info.Start, &info.End); err != nil {
			err = fmt.Errorf("scanning series: %w", err)
			return
		}
		series = append(series, info)
	}
	err = rows.Err()
	return
}

// StoreChunks saves chunks of one series component in a single transaction.
func (s *SqliteStore) StoreChunks(ctx context.Context, sessionID int64, series string, axis int, chunks []spectral.Chunk) (err error) {
	if len(chunks) == 0 {
		return
	}

	data := make([]chunkData, len(chunks))
	for i := range chunks {
		data[i] = toChunkData(sessionID, series, axis, &chunks[i])
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	err = batchInsert(ctx, db, insertChunkSQL, "(?, ?, ?, ?, ?, ?)", data, func(d chunkData) []any {
		return []any{d.SessionID, d.Series, d.Axis, d.Time, d.Throttle, d.Spectrum}
	})
	if err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	return nil
}

// StoreStepResponse saves the step response curve of an axis in a single
// transaction.
func (s *SqliteStore) StoreStepResponse(ctx context.Context, sessionID int64, axis int, curve stepresponse.Curve) (err error) {
	n := min(len(curve.Time), len(curve.Magnitude))
	if n == 0 {
		return
	}

	data := make([]stepResponseData, n)
	for i := range data {
		data[i] = stepResponseData{
			SessionID: sessionID,
			Axis:      axis,
			Time:      curve.Time[i],
			Magnitude: toSQLNullFloat(curve.Magnitude[i]),
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	err = batchInsert(ctx, db, insertStepResponseSQL, "(?, ?, ?, ?)", data, func(d stepResponseData) []any {
		return []any{d.SessionID, d.Axis, d.Time, d.Magnitude}
	})
	if err != nil {
		return fmt.Errorf("storing step response: %w", err)
	}
	return nil
}

// batchInsert stores rows in a single transaction, using multi-row INSERT
// statements of up to maxRowsPerStatement rows.
func batchInsert[T any](ctx context.Context, db *sql.DB, query, placeholder string, rows []T, values func(T) []any) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for chunk := range slices.Chunk(rows, maxRowsPerStatement) {
		args := make([]any, 0, len(chunk)*strings.Count(placeholder, "?"))

		var sb strings.Builder
		sb.WriteString(query)

		for i, row := range chunk {
			args = append(args, values(row)...)

			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder)
		}

		if _, err = tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("batch inserting: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// StepResponse returns the stored step response curve of an axis.
func (s *SqliteStore) StepResponse(ctx context.Context, sessionID int64, axis int) (curve stepresponse.Curve, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectStepResponseSQL, sessionID, axis)
	if err != nil {
		err = fmt.Errorf("querying step response: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var t float64
		var m sql.NullFloat64
		if err = rows.Scan(&t, &m); err != nil {
			err = fmt.Errorf("scanning step response: %w", err)
			return
		}
		curve.Time = append(curve.Time, t)
		curve.Magnitude = append(curve.Magnitude, fromSQLNullFloat(m))
	}
	if err = rows.Err(); err != nil {
		return
	}

	if curve.Len() == 0 {
		err = fmt.Errorf("step response of axis %d: %w", axis, ErrNoData)
	}
	return
}

// ReadChunks creates a ChunkReader over the chunks of one series component,
// in time order. The reader must be closed after use.
func (s *SqliteStore) ReadChunks(ctx context.Context, sessionID int64, series string, axis int, opts ...ReaderOption) (*ChunkReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newChunkReader(ctx, db, sessionID, series, axis, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
