package stepresponse

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/blackbox-analyzer/internal/spectral"
	"github.com/roman-kulish/blackbox-analyzer/internal/telemetry"
)

func noise(n int, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(r.NormFloat64() * 100)
	}
	return out
}

func timeline(n int, rate float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = 3 + float64(i)/rate
	}
	return times
}

func TestEstimate_PerfectTracking(t *testing.T) {
	const n = 2000
	setpoint := noise(n, 1)
	curve := Estimate(timeline(n, 1000), setpoint, setpoint, 1000)

	if curve.Len() != 500 {
		t.Fatalf("Expected 500 points, got %d", curve.Len())
	}
	for i, m := range curve.Magnitude {
		if math.Abs(m-1) > 1e-6 {
			t.Fatalf("Point %d: expected 1, got %v", i, m)
		}
	}
	if curve.Time[0] != 0 {
		t.Errorf("Expected curve to start at 0, got %v", curve.Time[0])
	}
	if math.Abs(curve.Time[499]-0.499) > 1e-9 {
		t.Errorf("Expected last point at 0.499s, got %v", curve.Time[499])
	}
}

func TestImpulse(t *testing.T) {
	const n, delay = 1024, 5
	setpoint := noise(n, 2)

	tests := []struct {
		name     string
		measured []float32
		peak     int
	}{
		{"identity", setpoint, 0},
		{"delayed", delayed(setpoint, delay), delay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impulse := Impulse(setpoint, tt.measured)
			if len(impulse) != n {
				t.Fatalf("Expected %d samples, got %d", n, len(impulse))
			}

			for i, v := range impulse {
				expected := 0.0
				if i == tt.peak {
					expected = 1
				}
				if math.Abs(v-expected) > 1e-6 {
					t.Fatalf("Sample %d: expected %v, got %v", i, expected, v)
				}
			}
		})
	}
}

func TestEstimate_Delayed(t *testing.T) {
	const n, delay = 1000, 10
	setpoint := noise(n, 3)
	curve := Estimate(timeline(n, 1000), setpoint, delayed(setpoint, delay), 1000)

	// The step sequence is 0 before the delay and 1 after, so its mean is
	// (n-delay)/n.
	after := float64(n) / float64(n-delay)
	for i, m := range curve.Magnitude {
		expected := after
		if i < delay {
			expected = 0
		}
		if math.Abs(m-expected) > 1e-6 {
			t.Fatalf("Point %d: expected %v, got %v", i, expected, m)
		}
	}
}

func TestEstimate_Empty(t *testing.T) {
	tests := []struct {
		name     string
		times    []float64
		setpoint []float32
		measured []float32
	}{
		{"all empty", nil, nil, nil},
		{"empty setpoint", []float64{0, 1}, nil, []float32{1, 2}},
		{"empty measured", []float64{0, 1}, []float32{1, 2}, []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if curve := Estimate(tt.times, tt.setpoint, tt.measured, 4000); curve.Len() != 0 {
				t.Errorf("Expected empty curve, got %d points", curve.Len())
			}
		})
	}
}

func TestEstimate_ShortSeries(t *testing.T) {
	setpoint := noise(100, 4)
	curve := Estimate(timeline(100, 4000), setpoint, setpoint, 4000)
	if curve.Len() != 100 {
		t.Errorf("Expected whole series of 100 points, got %d", curve.Len())
	}
}

func TestTracker(t *testing.T) {
	const n = 4000
	times := timeline(n, 2000)
	values := map[string][]float32{
		"setpoint[0]": noise(n, 5),
		"setpoint[1]": noise(n, 6),
		"gyroADC[1]":  noise(n, 7),
		"setpoint[2]": noise(n, 8),
		"gyroADC[2]":  noise(n, 9),
	}
	values["gyroADC[0]"] = values["setpoint[0]"]
	delete(values, "gyroADC[1]") // no gyro on pitch
	flight := telemetry.NewFlight("test", times, values, nil)

	tracker := NewTracker()
	tracker.SetFlight(flight)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for tracker.Busy() {
		tracker.Update()
		select {
		case <-ctx.Done():
			t.Fatal("Tracker did not finish")
		case <-time.After(time.Millisecond):
		}
	}

	roll, ok := tracker.Curve(telemetry.Roll)
	if !ok {
		t.Fatal("Expected roll curve")
	}
	if roll.Len() != 1000 {
		t.Errorf("Expected 1000 points, got %d", roll.Len())
	}
	if _, ok = tracker.Curve(telemetry.Pitch); ok {
		t.Error("Expected no pitch curve without gyro data")
	}
	if _, ok = tracker.Curve(telemetry.Yaw); !ok {
		t.Error("Expected yaw curve")
	}

	tracker.SetFlight(nil)
	if _, ok = tracker.Curve(telemetry.Roll); ok {
		t.Error("Expected curves to be cleared with the flight")
	}
}

func delayed(s []float32, d int) []float32 {
	out := make([]float32, len(s))
	for i := range s {
		out[(i+d)%len(s)] = s[i]
	}
	return out
}

func TestEstimate_UnreadableCell(t *testing.T) {
	const n = 4000
	setpoint := noise(n, 7)

	var csv strings.Builder
	csv.WriteString("time (us),setpoint[0],setpoint[3],gyroADC[0]\n")
	for i := range n {
		gyro := fmt.Sprintf("%g", setpoint[i])
		if i == 1234 {
			gyro = "x"
		}
		fmt.Fprintf(&csv, "%d,%g,500,%s\n", i*250, setpoint[i], gyro)
	}

	f, err := telemetry.LoadCSV(strings.NewReader(csv.String()))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	sp, _ := f.Setpoint(0)
	gyro, _ := f.Gyro(0)
	if !math.IsNaN(float64(gyro[1234])) {
		t.Fatalf("Expected the unreadable cell to load as NaN, got %v", gyro[1234])
	}

	curve := Estimate(f.Times, sp, gyro, f.SampleRate)
	if curve.Len() != 2000 {
		t.Fatalf("Expected 2000 points, got %d", curve.Len())
	}
	for i, m := range curve.Magnitude {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			t.Fatalf("Point %d is not finite: %v", i, m)
		}
	}

	e, err := spectral.NewEngine([]int{256})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	throttle, _ := f.Throttle()
	var chunks int
	for c := range e.Chunks(f.Times, gyro, throttle, 256, 8) {
		chunks++
		for k, p := range c.Power {
			if math.IsNaN(float64(p)) {
				t.Fatalf("Chunk at %vs: bin %d is NaN", c.Time, k)
			}
		}
	}
	if chunks == 0 {
		t.Fatal("Expected chunks")
	}
}
