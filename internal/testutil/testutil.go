// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the synthetic detector data used across test
// files: Gaussian spots, deterministic pixel patterns and frame
// replication over navigation grids.
package testutil

import (
	"math"
	"testing"

	"github.com/pc494/pycrystem/internal/nd"
)

// GaussianSpot renders an amplitude-amp Gaussian of width sigma centred at
// (row, col) onto an h x w frame.
func GaussianSpot(h, w int, row, col, sigma, amp float64) *nd.Array {
	f := nd.New(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			dr := float64(i) - row
			dc := float64(j) - col
			f.Set(amp*math.Exp(-(dr*dr+dc*dc)/(2*sigma*sigma)), i, j)
		}
	}
	return f
}

// Patterned fills an array with a deterministic non-uniform pixel pattern,
// useful where a test needs varied data without randomness.
func Patterned(shape ...int) *nd.Array {
	a := nd.New(shape...)
	for i := range a.Data() {
		a.Data()[i] = float64((i*7 + 3) % 11)
	}
	return a
}

// ReplicateFrames builds a chunk holding the same frame at every position
// of the navigation grid.
func ReplicateFrames(navShape []int, f *nd.Array) *nd.Array {
	h, w := f.SignalShape()
	out := nd.New(append(append([]int(nil), navShape...), h, w)...)
	nd.ForEachIndex(navShape, func(nav []int) {
		out.SetFrame(f, nav...)
	})
	return out
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
