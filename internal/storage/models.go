package storage

import (
	"database/sql"
	"time"
)

// Session describes one analysis run over a flight log.
type Session struct {
	ID         int64     `json:"id"`                      // Unique identifier for the session
	StartTime  time.Time `json:"startTime"`               // When the analysis ran
	LogFile    string    `json:"logFile"`                 // Flight log the results were computed from
	SampleRate float64   `json:"sampleRate"`              // Sample rate of the flight in Hz
	Config     *string   `json:"config,string,omitempty"` // Optional analysis configuration in JSON format
}

// SeriesInfo summarizes the chunks stored for one series component.
type SeriesInfo struct {
	Series string  `json:"series"` // Series name, e.g. "gyroADC"
	Axis   int     `json:"axis"`   // Component index
	Chunks int     `json:"chunks"` // Number of stored chunks
	Start  float64 `json:"start"`  // Time of the first chunk, seconds
	End    float64 `json:"end"`    // Time of the last chunk, seconds
}

type chunkData struct {
	SessionID int64
	Series    string
	Axis      int
	Time      float64
	Throttle  sql.NullFloat64
	Spectrum  []byte
}

type stepResponseData struct {
	SessionID int64
	Axis      int
	Time      float64
	Magnitude sql.NullFloat64
}
