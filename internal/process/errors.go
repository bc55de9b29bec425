// Package process wires the per-frame algorithm catalogue into the chunked
// engine. Every operation validates its inputs eagerly, re-partitions the
// input so no block splits a detector frame, and registers a block-level
// unit of work; nothing executes until the caller materialises the result.
package process

import (
	"errors"
	"fmt"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// Structural precondition failures. Both surface synchronously at call
// time, before any graph node is created, so a malformed call never fails
// hours into a batch materialisation.
var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrUnsupportedRank = errors.New("unsupported rank")
)

// validateMinRank checks that the array has at least the given rank.
func validateMinRank(a *lazy.Array, min int) error {
	if a.Rank() < min {
		return fmt.Errorf("%w: rank %d below minimum %d (shape %v)",
			ErrUnsupportedRank, a.Rank(), min, a.Shape())
	}
	return nil
}

// validateRank234 checks that the array's rank is in the {2, 3, 4} set
// supported by rank-specific broadcasting.
func validateRank234(a *lazy.Array) error {
	if r := a.Rank(); r < 2 || r > 4 {
		return fmt.Errorf("%w: rank %d outside {2, 3, 4} (shape %v)",
			ErrUnsupportedRank, r, a.Shape())
	}
	return nil
}

// validateMask checks that a mask covers exactly the array's two signal
// axes. A nil mask is always valid.
func validateMask(a *lazy.Array, mask *nd.Array) error {
	if mask == nil {
		return nil
	}
	shape := a.Shape()
	sig := shape[len(shape)-2:]
	if !nd.EqualShape(mask.Shape(), sig) {
		return fmt.Errorf("%w: mask shape %v, signal shape %v",
			ErrShapeMismatch, mask.Shape(), sig)
	}
	return nil
}

// validateNavShape checks that an auxiliary per-position table covers
// exactly the array's navigation axes.
func validateNavShape(a *lazy.Array, navShape []int) error {
	want := a.Shape()[:a.Rank()-2]
	if !nd.EqualShape(navShape, want) {
		return fmt.Errorf("%w: per-position shape %v, navigation shape %v",
			ErrShapeMismatch, navShape, want)
	}
	return nil
}
