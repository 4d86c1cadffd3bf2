// Package window turns an ordered sequence into overlapping fixed-size windows.
package window

import (
	"errors"
	"iter"
	"slices"
)

var (
	// ErrZeroWindow is returned when the requested window holds no elements.
	ErrZeroWindow = errors.New("window size must be greater than zero")

	// ErrZeroStep is returned when the sampler would never advance.
	ErrZeroStep = errors.New("step size must be greater than zero")
)

// Sampler is a lazy, non-restartable sliding window over a source sequence.
//
// The first window is produced once windowSize elements have been pulled from
// the source. Every following window discards the oldest stepSize elements and
// appends the next stepSize elements. When the source runs out in the middle
// of a step the sampler stops: partial windows are never produced.
//
// A step larger than the window is accepted and leaves gaps between windows;
// callers that need overlap validate that themselves.
type Sampler[T any] struct {
	next func() (T, bool)
	stop func()

	windowSize int
	stepSize   int

	buf     []T // Live window, oldest element first
	current []T
	started bool
	done    bool
}

// NewSampler creates a Sampler pulling from seq.
func NewSampler[T any](seq iter.Seq[T], windowSize, stepSize int) (*Sampler[T], error) {
	if windowSize <= 0 {
		return nil, ErrZeroWindow
	}
	if stepSize <= 0 {
		return nil, ErrZeroStep
	}

	next, stop := iter.Pull(seq)
	return &Sampler[T]{
		next:       next,
		stop:       stop,
		windowSize: windowSize,
		stepSize:   stepSize,
		buf:        make([]T, 0, windowSize+stepSize),
	}, nil
}

// Next advances the sampler and reports whether another full window is
// available through Current.
func (s *Sampler[T]) Next() bool {
	if s.done {
		return false
	}

	if s.started {
		drop := min(s.stepSize, len(s.buf))
		s.buf = s.buf[drop:]

		// Source elements falling between two windows when step > window.
		for skip := s.stepSize - drop; skip > 0; skip-- {
			if _, ok := s.next(); !ok {
				s.Close()
				return false
			}
		}
	}
	s.started = true

	for len(s.buf) < s.windowSize {
		v, ok := s.next()
		if !ok {
			s.Close()
			return false
		}
		s.buf = append(s.buf, v)
	}

	s.current = slices.Clone(s.buf)
	return true
}

// Current returns the window produced by the last successful call to Next.
// The returned slice is owned by the caller.
func (s *Sampler[T]) Current() []T {
	return s.current
}

// Close releases the source sequence. It is safe to call more than once.
func (s *Sampler[T]) Close() {
	if s.done {
		return
	}
	s.done = true
	s.current = nil
	s.buf = nil
	s.stop()
}

// Windows adapts a Sampler to a range-over-func sequence. Invalid sizes
// produce an empty sequence.
func Windows[T any](seq iter.Seq[T], windowSize, stepSize int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		s, err := NewSampler(seq, windowSize, stepSize)
		if err != nil {
			return
		}
		defer s.Close()

		for s.Next() {
			if !yield(s.Current()) {
				return
			}
		}
	}
}

// Count returns the number of windows a source of sourceLen elements yields.
func Count(sourceLen, windowSize, stepSize int) int {
	if windowSize <= 0 || stepSize <= 0 || sourceLen < windowSize {
		return 0
	}
	return 1 + (sourceLen-windowSize)/stepSize
}
