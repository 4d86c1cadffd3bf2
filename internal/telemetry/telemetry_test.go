package telemetry

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSampleRate(t *testing.T) {
	tests := []struct {
		name     string
		interval float64 // seconds
		count    int
		expected float64
	}{
		{"4kHz", 1.0 / 4000, 500, 4000},
		{"8kHz", 1.0 / 8000, 500, 8000},
		{"2kHz short log", 1.0 / 2000, 10, 2000},
		{"1.6kHz rounds", 1.0 / 1603, 200, 1600},
		{"single sample", 1.0 / 4000, 1, 0},
		{"empty", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times := make([]float64, tt.count)
			for i := range times {
				times[i] = 12.5 + float64(i)*tt.interval
			}
			if got := SampleRate(times); got != tt.expected {
				t.Errorf("Expected %v Hz, got %v", tt.expected, got)
			}
		})
	}
}

func TestSampleRate_IgnoresOutliers(t *testing.T) {
	times := make([]float64, 150)
	var t0 float64
	for i := range times {
		times[i] = t0
		step := 250e-6
		if i%10 == 0 {
			step = 5e-3 // dropped frames
		}
		t0 += step
	}

	if got := SampleRate(times); got != 4000 {
		t.Errorf("Expected 4000 Hz, got %v", got)
	}
}

const sampleCSV = `loopIteration, time (us), gyroADC[0], gyroADC[1], gyroADC[2], setpoint[0], setpoint[3], vbatLatest (V)
0, 1000, 1.5, 2, 3, 10, 500, 16.1
1, 1250, 1.6, 2, 3, 11, 510, 16.1
2, 1200, 9, 9, 9, 9, 9, 9
3, 1500, bad, 2, 3, 12, 520, 16.0
4, oops, 1, 1, 1, 1, 1, 1
5, 1750, 1.8, 2
`

func TestLoadCSV(t *testing.T) {
	f, err := LoadCSV(strings.NewReader(sampleCSV), WithName("test.csv"))
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if f.Name != "test.csv" {
		t.Errorf("Expected name test.csv, got %q", f.Name)
	}

	expectedTimes := []float64{0.001, 0.00125, 0.0015, 0.00175}
	if f.Len() != len(expectedTimes) {
		t.Fatalf("Expected %d samples, got %d: %v", len(expectedTimes), f.Len(), f.Times)
	}
	for i, ts := range expectedTimes {
		if math.Abs(f.Times[i]-ts) > 1e-12 {
			t.Errorf("Time %d: expected %v, got %v", i, ts, f.Times[i])
		}
	}

	gyro, ok := f.Gyro(0)
	if !ok {
		t.Fatal("Expected gyroADC[0]")
	}
	if gyro[0] != 1.5 || !math.IsNaN(float64(gyro[2])) {
		t.Errorf("Unexpected gyro values: %v", gyro)
	}

	if v, ok := f.Series("vbatLatest"); !ok || v[0] != 16.1 || !math.IsNaN(float64(v[3])) {
		t.Errorf("Unexpected voltage: %v (ok=%v)", v, ok)
	}
	if f.Units["vbatLatest"] != "V" {
		t.Errorf("Expected unit V, got %q", f.Units["vbatLatest"])
	}

	if thr, ok := f.Throttle(); !ok || thr[1] != 510 {
		t.Errorf("Unexpected throttle: %v (ok=%v)", thr, ok)
	}

	if _, ok := f.Component("gyroUnfilt", 0); ok {
		t.Error("Expected gyroUnfilt to be missing")
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("a,b\n1,2\n")); !errors.Is(err, ErrNoTimeColumn) {
		t.Errorf("Expected ErrNoTimeColumn, got %v", err)
	}

	bad := "time,x\n" + strings.Repeat("nan?,1\n", 5)
	if _, err := LoadCSV(strings.NewReader(bad), WithMaxParseErrors(3)); !errors.Is(err, ErrTooManyParseErrors) {
		t.Errorf("Expected ErrTooManyParseErrors, got %v", err)
	}
}

func TestSplitUnit(t *testing.T) {
	tests := []struct {
		header, name, unit string
	}{
		{"time (us)", "time", "us"},
		{" gyroADC[0] ", "gyroADC[0]", ""},
		{"amperageLatest (A)", "amperageLatest", "A"},
	}
	for _, tt := range tests {
		name, unit := splitUnit(tt.header)
		if name != tt.name || unit != tt.unit {
			t.Errorf("splitUnit(%q) = %q, %q; expected %q, %q", tt.header, name, unit, tt.name, tt.unit)
		}
	}
}
