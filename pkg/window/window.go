// Package window segments sequences that exceed the model context length
// into overlapping half-stride windows.
package window

import (
	"errors"

	"github.com/Sumatoshi-tech/treefeed/pkg/mathutil"
)

// ErrMaxLen reports a non-positive window length.
var ErrMaxLen = errors.New("window length must be positive")

// Window is one training example cut from a longer sequence. Offset is the
// first newly-supervised position: everything before it already appeared in
// an earlier window and serves as context only.
type Window[T any] struct {
	Items  []T
	Offset int
}

// Segment cuts items into windows of at most maxLen elements. Sequences
// within maxLen come back as a single window. Longer sequences produce
// overlapping windows of exactly maxLen with stride max(1, maxLen/2); the
// final window is right-aligned so no element is dropped.
//
// Concatenating Items[Offset:] across the windows in order reproduces the
// input: every element is supervised exactly once.
//
// Windows share backing memory with items and are read-only by convention.
func Segment[T any](items []T, maxLen int) ([]Window[T], error) {
	if maxLen <= 0 {
		return nil, ErrMaxLen
	}

	if len(items) <= maxLen {
		return []Window[T]{{Items: items, Offset: 0}}, nil
	}

	stride := mathutil.Max(1, maxLen/2)

	windows := []Window[T]{{Items: items[:maxLen], Offset: 0}}
	seen := maxLen

	for start := stride; start+maxLen < len(items); start += stride {
		windows = append(windows, Window[T]{
			Items:  items[start : start+maxLen],
			Offset: seen - start,
		})

		seen = start + maxLen
	}

	finalStart := len(items) - maxLen
	windows = append(windows, Window[T]{
		Items:  items[finalStart:],
		Offset: seen - finalStart,
	})

	return windows, nil
}

// Count returns how many windows Segment would produce without cutting them.
func Count(n, maxLen int) (int, error) {
	if maxLen <= 0 {
		return 0, ErrMaxLen
	}

	if n <= maxLen {
		return 1, nil
	}

	stride := mathutil.Max(1, maxLen/2)
	count := 2 // first and final

	for start := stride; start+maxLen < n; start += stride {
		count++
	}

	return count, nil
}
