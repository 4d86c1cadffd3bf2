package storage

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

// SQLite stores NaN as NULL.
func toSQLNullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{
		Float64: v,
		Valid:   !math.IsNaN(v),
	}
}

func fromSQLNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func toChunkData(sessionID int64, series string, axis int, c *spectral.Chunk) chunkData {
	return chunkData{
		SessionID: sessionID,
		Series:    series,
		Axis:      axis,
		Time:      c.Time,
		Throttle:  toSQLNullFloat(float64(c.Throttle)),
		Spectrum:  encodeSpectrum(c.Power),
	}
}

// encodeSpectrum packs power values as little-endian float32.
func encodeSpectrum(power []float32) []byte {
	buf := make([]byte, 4*len(power))
	for i, p := range power {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(p))
	}
	return buf
}

func decodeSpectrum(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid spectrum length %d", len(buf))
	}

	power := make([]float32, len(buf)/4)
	for i := range power {
		power[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return power, nil
}
