// Package spectral converts windows of timeseries samples into log-power
// spectra.
package spectral

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/roman-kulish/blackbox-analyzer/internal/window"
)

// SupportedSizes lists the window lengths an Engine is built for by default.
var SupportedSizes = []int{256, 512, 1024, 2048}

// ErrUnsupportedSize is returned for windows the engine has no tables for.
var ErrUnsupportedSize = errors.New("unsupported window size")

// WithLogger sets the logger used to report skipped chunks.
func WithLogger(logger *slog.Logger) func(*Engine) {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine computes spectral chunks. The Hamming coefficients and FFT plans for
// every configured window size are prepared by NewEngine.
//
// An Engine is not safe for concurrent use because FFT plans carry work
// buffers; create one per goroutine.
type Engine struct {
	windows map[int][]float64
	plans   map[int]*fourier.FFT
	seq     map[int][]float64
	coeff   map[int][]complex128

	logger *slog.Logger
}

// NewEngine creates an Engine for the given window sizes, SupportedSizes when
// none are given.
func NewEngine(sizes []int, options ...func(*Engine)) (*Engine, error) {
	if len(sizes) == 0 {
		sizes = SupportedSizes
	}

	e := Engine{
		windows: make(map[int][]float64, len(sizes)),
		plans:   make(map[int]*fourier.FFT, len(sizes)),
		seq:     make(map[int][]float64, len(sizes)),
		coeff:   make(map[int][]complex128, len(sizes)),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&e)
	}

	for _, n := range sizes {
		if n < 2 || n%2 != 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedSize, n)
		}
		e.windows[n] = Hamming(n)
		e.plans[n] = fourier.NewFFT(n)
		e.seq[n] = make([]float64, n)
		e.coeff[n] = make([]complex128, n/2+1)
	}

	return &e, nil
}

// Hamming returns the Hamming window coefficients for n samples.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.53836 - 0.46164*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Compute windows samples, runs a real FFT over them and returns the log10
// power of bins 0 through len(samples)/2-1. Zero power yields -Inf.
// Unreadable samples hold the previous finite sample of the window.
func (e *Engine) Compute(time float64, samples []float32, throttle float32) (chunk Chunk, err error) {
	n := len(samples)
	w, ok := e.windows[n]
	if !ok {
		return Chunk{}, fmt.Errorf("%w: %d", ErrUnsupportedSize, n)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("computing FFT of %d samples: %v", n, r)
		}
	}()

	seq := e.seq[n]
	for i, v := range samples {
		seq[i] = float64(v)
	}
	HoldFinite(seq)
	for i := range seq {
		seq[i] *= w[i]
	}

	coeff := e.plans[n].Coefficients(e.coeff[n], seq)

	power := make([]float32, n/2)
	for k := range power {
		re, im := real(coeff[k]), imag(coeff[k])
		power[k] = float32(math.Log10(re*re + im*im))
	}

	return Chunk{Time: time, Power: power, Throttle: throttle}, nil
}

type sample struct {
	time     float64
	value    float32
	throttle float32
}

// Chunks computes a chunk for every window of the aligned series. The chunk
// time is the time of the first sample in the window and the throttle is taken
// from the window midpoint. Chunks that fail are logged and skipped.
func (e *Engine) Chunks(times []float64, values, throttle []float32, windowSize, stepSize int) iter.Seq[Chunk] {
	n := min(len(times), len(values), len(throttle))

	samples := func(yield func(sample) bool) {
		for i := 0; i < n; i++ {
			if !yield(sample{time: times[i], value: values[i], throttle: throttle[i]}) {
				return
			}
		}
	}

	return func(yield func(Chunk) bool) {
		if _, ok := e.windows[windowSize]; !ok {
			e.logger.Warn("no spectral chunks computed", slog.Int("windowSize", windowSize))
			return
		}

		buf := make([]float32, windowSize)
		for w := range window.Windows(samples, windowSize, stepSize) {
			for i, s := range w {
				buf[i] = s.value
			}

			chunk, err := e.Compute(w[0].time, buf, w[windowSize/2].throttle)
			if err != nil {
				e.logger.Warn("skipping spectral chunk",
					slog.Float64("time", w[0].time),
					slog.String("error", err.Error()))
				continue
			}

			if !yield(chunk) {
				return
			}
		}
	}
}
