// Package background runs CPU-bound work off the caller's goroutine and
// streams its results back in batches.
package background

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
)

// BatchSize is the number of results a producer groups into one delivery.
const BatchSize = 100

// Stream is an unbounded, order-preserving queue of result batches filled by
// a single producer goroutine and drained by a single consumer.
//
// The producer never blocks. A consumer that loses interest calls Discard:
// the producer keeps running to completion but everything it emits is dropped.
type Stream[T any] struct {
	mu        sync.Mutex
	pending   [][]T
	closed    bool
	discarded bool
}

// Go runs work in a new goroutine and returns the stream its results are
// delivered to. Batches passed to emit must not be modified afterwards.
// A panic in work is logged and closes the stream.
func Go[T any](logger *slog.Logger, work func(emit func([]T))) *Stream[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Stream[T]{}

	go func() {
		defer s.close()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("background computation failed", slog.String("error", fmt.Sprint(r)))
			}
		}()

		work(s.emit)
	}()

	return s
}

func (s *Stream[T]) emit(batch []T) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return
	}
	s.pending = append(s.pending, batch)
}

func (s *Stream[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}

// Poll drains the batches delivered so far without blocking. done reports
// that the producer has finished and no batch will follow the returned ones.
func (s *Stream[T]) Poll() (batches [][]T, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches, s.pending = s.pending, nil
	return batches, s.closed
}

// Discard drops pending results and ignores any the producer emits later.
func (s *Stream[T]) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discarded = true
	s.pending = nil
}

// Batches groups the values of seq into slices of up to size elements and
// passes each to emit, in order.
func Batches[T any](seq iter.Seq[T], size int, emit func([]T)) {
	if size <= 0 {
		size = BatchSize
	}

	batch := make([]T, 0, size)
	for v := range seq {
		batch = append(batch, v)
		if len(batch) == size {
			emit(batch)
			batch = make([]T, 0, size)
		}
	}
	if len(batch) > 0 {
		emit(batch)
	}
}
