package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_chunks_lookup ON chunks (session_id, series, axis, time);
CREATE INDEX IF NOT EXISTS idx_step_responses_lookup ON step_responses (session_id, axis, time);`

	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      log_file,
                      sample_rate,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    log_file,
    sample_rate,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    log_file,
    sample_rate,
    config
FROM sessions
ORDER BY start_time, id`

	insertChunkSQL = `
INSERT INTO chunks (
                    session_id,
                    series,
                    axis,
                    time,
                    throttle,
                    spectrum)
VALUES `

	selectChunksSQL = `
SELECT
    time,
    throttle,
    spectrum
FROM chunks
WHERE
    session_id = ?
    AND series = ?
    AND axis = ?
    AND time BETWEEN ? AND ?
ORDER BY time, id`

	selectSeriesSQL = `
SELECT
    series,
    axis,
    COUNT(*),
    MIN(time),
    MAX(time)
FROM chunks
WHERE
    session_id = ?
GROUP BY series, axis
ORDER BY series, axis`

	insertStepResponseSQL = `
INSERT INTO step_responses (
                            session_id,
                            axis,
                            time,
                            magnitude)
VALUES `

	selectStepResponseSQL = `
SELECT
    time,
    magnitude
FROM step_responses
WHERE
    session_id = ?
    AND axis = ?
ORDER BY time, id`
)
