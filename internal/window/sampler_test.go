package window

import (
	"errors"
	"slices"
	"testing"
)

func collect[T any](t *testing.T, src []T, windowSize, stepSize int) [][]T {
	t.Helper()

	s, err := NewSampler(slices.Values(src), windowSize, stepSize)
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}
	defer s.Close()

	var out [][]T
	for s.Next() {
		out = append(out, s.Current())
	}
	return out
}

func TestSampler_Windows(t *testing.T) {
	tests := []struct {
		name       string
		src        []int
		windowSize int
		stepSize   int
		expected   [][]int
	}{
		{
			name:       "overlapping",
			src:        []int{1, 2, 3, 4, 5, 6, 7, 8},
			windowSize: 4,
			stepSize:   2,
			expected:   [][]int{{1, 2, 3, 4}, {3, 4, 5, 6}, {5, 6, 7, 8}},
		},
		{
			name:       "partial step is discarded",
			src:        []int{1, 2, 3, 4, 5, 6, 7},
			windowSize: 4,
			stepSize:   2,
			expected:   [][]int{{1, 2, 3, 4}, {3, 4, 5, 6}},
		},
		{
			name:       "exact window",
			src:        []int{9, 8, 7},
			windowSize: 3,
			stepSize:   1,
			expected:   [][]int{{9, 8, 7}},
		},
		{
			name:       "source shorter than window",
			src:        []int{1, 2},
			windowSize: 3,
			stepSize:   1,
			expected:   nil,
		},
		{
			name:       "tiling",
			src:        []int{1, 2, 3, 4, 5, 6},
			windowSize: 2,
			stepSize:   2,
			expected:   [][]int{{1, 2}, {3, 4}, {5, 6}},
		},
		{
			name:       "gaps",
			src:        []int{1, 2, 3, 4, 5, 6, 7, 8},
			windowSize: 2,
			stepSize:   3,
			expected:   [][]int{{1, 2}, {4, 5}, {7, 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.src, tt.windowSize, tt.stepSize)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d windows, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if !slices.Equal(got[i], tt.expected[i]) {
					t.Errorf("Window %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
			if n := Count(len(tt.src), tt.windowSize, tt.stepSize); n != len(tt.expected) {
				t.Errorf("Count: expected %d, got %d", len(tt.expected), n)
			}
		})
	}
}

func TestSampler_Overlap(t *testing.T) {
	src := make([]int, 100)
	for i := range src {
		src[i] = i
	}

	for _, step := range []int{1, 3, 8, 16} {
		windows := collect(t, src, 16, step)
		for i := 1; i < len(windows); i++ {
			prev, cur := windows[i-1], windows[i]
			if !slices.Equal(prev[step:], cur[:16-step]) {
				t.Errorf("step %d: windows %d and %d do not overlap by %d elements", step, i-1, i, 16-step)
			}
		}
	}
}

func TestSampler_WindowsAreIndependent(t *testing.T) {
	windows := collect(t, []int{1, 2, 3, 4, 5}, 3, 1)
	windows[0][2] = 42

	if windows[1][1] != 3 {
		t.Errorf("Mutating a window leaked into the next one: %v", windows[1])
	}
}

func TestSampler_Exhausted(t *testing.T) {
	s, err := NewSampler(slices.Values([]int{1, 2}), 2, 1)
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}

	if !s.Next() {
		t.Fatal("Expected first window")
	}
	for i := 0; i < 3; i++ {
		if s.Next() {
			t.Fatalf("Expected exhausted sampler on call %d", i)
		}
	}
	s.Close()
}

func TestNewSampler_Validation(t *testing.T) {
	if _, err := NewSampler(slices.Values([]int{1}), 0, 1); !errors.Is(err, ErrZeroWindow) {
		t.Errorf("Expected ErrZeroWindow, got %v", err)
	}
	if _, err := NewSampler(slices.Values([]int{1}), 1, 0); !errors.Is(err, ErrZeroStep) {
		t.Errorf("Expected ErrZeroStep, got %v", err)
	}
}

func TestWindows_EarlyBreak(t *testing.T) {
	var got [][]int
	for w := range Windows(slices.Values([]int{1, 2, 3, 4, 5, 6}), 2, 1) {
		got = append(got, w)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 || !slices.Equal(got[1], []int{2, 3}) {
		t.Errorf("Unexpected windows: %v", got)
	}
}
