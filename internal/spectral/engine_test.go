package spectral

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func sine(n, bin int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n)))
	}
	return out
}

func argmax(s []float32) int {
	best := 0
	for i, v := range s {
		if v > s[best] {
			best = i
		}
	}
	return best
}

func TestEngine_SinePeak(t *testing.T) {
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	tests := []struct {
		size int
		bin  int
	}{
		{256, 20},
		{512, 3},
		{1024, 300},
		{2048, 1000},
	}

	for _, tt := range tests {
		chunk, err := e.Compute(1.5, sine(tt.size, tt.bin, 100), 420)
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", tt.size, err)
		}
		if chunk.Bins() != tt.size/2 {
			t.Errorf("size %d: expected %d bins, got %d", tt.size, tt.size/2, chunk.Bins())
		}
		if peak := argmax(chunk.Power); peak < tt.bin-1 || peak > tt.bin+1 {
			t.Errorf("size %d: expected peak near bin %d, got %d", tt.size, tt.bin, peak)
		}
		if chunk.Time != 1.5 || chunk.Throttle != 420 {
			t.Errorf("size %d: unexpected tags time=%v throttle=%v", tt.size, chunk.Time, chunk.Throttle)
		}
	}
}

func TestEngine_ZeroInput(t *testing.T) {
	e, err := NewEngine([]int{256})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	chunk, err := e.Compute(0, make([]float32, 256), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for k, p := range chunk.Power {
		if !math.IsInf(float64(p), -1) {
			t.Fatalf("Bin %d: expected -Inf, got %v", k, p)
		}
	}
}

func TestEngine_UnsupportedSize(t *testing.T) {
	e, err := NewEngine([]int{256})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if _, err = e.Compute(0, make([]float32, 512), 0); !errors.Is(err, ErrUnsupportedSize) {
		t.Errorf("Expected ErrUnsupportedSize, got %v", err)
	}
	if _, err = NewEngine([]int{255}); !errors.Is(err, ErrUnsupportedSize) {
		t.Errorf("Expected ErrUnsupportedSize for odd size, got %v", err)
	}
}

func TestHamming(t *testing.T) {
	w := Hamming(256)

	if math.Abs(w[0]-0.07672) > 1e-9 {
		t.Errorf("Expected w[0] = 0.07672, got %v", w[0])
	}
	if math.Abs(w[128]-1.0) > 1e-9 {
		t.Errorf("Expected w[N/2] = 1, got %v", w[128])
	}
	for i := 1; i < 128; i++ {
		if math.Abs(w[i]-w[256-i]) > 1e-12 {
			t.Fatalf("Window not symmetric at %d: %v != %v", i, w[i], w[256-i])
		}
	}

	e, _ := NewEngine(nil)
	if !slices.Equal(e.windows[256], w) {
		t.Errorf("Engine table differs from Hamming(256)")
	}
	if len(e.windows) != len(SupportedSizes) {
		t.Errorf("Expected %d window tables, got %d", len(SupportedSizes), len(e.windows))
	}
}

func TestEngine_Chunks(t *testing.T) {
	const n = 1000
	times := make([]float64, n)
	values := make([]float32, n)
	throttle := make([]float32, n)
	for i := range times {
		times[i] = float64(i) / 1000
		values[i] = float32(math.Sin(float64(i)))
		throttle[i] = float32(i)
	}

	e, err := NewEngine([]int{256})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	var chunks []Chunk
	for c := range e.Chunks(times, values, throttle, 256, 128) {
		chunks = append(chunks, c)
	}

	// 1 + (1000-256)/128
	if len(chunks) != 6 {
		t.Fatalf("Expected 6 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		start := i * 128
		if c.Time != times[start] {
			t.Errorf("Chunk %d: expected time %v, got %v", i, times[start], c.Time)
		}
		if c.Throttle != throttle[start+128] {
			t.Errorf("Chunk %d: expected midpoint throttle %v, got %v", i, throttle[start+128], c.Throttle)
		}
		if i > 0 && c.Time <= chunks[i-1].Time {
			t.Errorf("Chunk %d is not in increasing time order", i)
		}
	}

	var none int
	for range e.Chunks(times, values, throttle, 512, 8) {
		none++
	}
	if none != 0 {
		t.Errorf("Expected no chunks for an unconfigured size, got %d", none)
	}
}

func TestForwardInverse_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 7, 64, 100, 333} {
		x := make([]float64, n)
		for i := range x {
			x[i] = math.Cos(float64(i)*0.37) + float64(i%5)
		}

		y := Inverse(Forward(x))
		if len(y) != n {
			t.Fatalf("n=%d: expected %d samples, got %d", n, n, len(y))
		}
		for i := range x {
			if math.Abs(real(y[i])-x[i]) > 1e-9 || math.Abs(imag(y[i])) > 1e-9 {
				t.Fatalf("n=%d: sample %d: expected %v, got %v", n, i, x[i], y[i])
			}
		}
	}
}

func TestBinFrequency(t *testing.T) {
	if f := BinFrequency(64, 256, 4000); f != 1000 {
		t.Errorf("Expected 1000 Hz, got %v", f)
	}
	if f := BinFrequency(1, 0, 4000); f != 0 {
		t.Errorf("Expected 0 for empty window, got %v", f)
	}
}

func TestHoldFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	tests := []struct {
		name     string
		in       []float64
		expected []float64
		replaced int
	}{
		{"all finite", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"middle", []float64{1, nan, 3}, []float64{1, 1, 3}, 1},
		{"run", []float64{1, 2, nan, inf, -inf, 6}, []float64{1, 2, 2, 2, 2, 6}, 3},
		{"leading", []float64{nan, nan, 5, 6}, []float64{5, 5, 5, 6}, 2},
		{"trailing", []float64{4, nan}, []float64{4, 4}, 1},
		{"none finite", []float64{nan, inf}, []float64{0, 0}, 2},
		{"empty", []float64{}, []float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Clone(tt.in)
			if n := HoldFinite(got); n != tt.replaced {
				t.Errorf("Expected %d replaced, got %d", tt.replaced, n)
			}
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEngine_ComputeUnreadableSample(t *testing.T) {
	e, err := NewEngine([]int{256})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	samples := sine(256, 16, 100)
	samples[100] = float32(math.NaN())

	chunk, err := e.Compute(0, samples, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for k, p := range chunk.Power {
		if math.IsNaN(float64(p)) {
			t.Fatalf("Bin %d is NaN", k)
		}
	}
	if peak := argmax(chunk.Power); peak != 16 {
		t.Errorf("Expected peak at bin 16, got %d", peak)
	}
	if !math.IsNaN(float64(samples[100])) {
		t.Errorf("Compute modified its input")
	}
}
