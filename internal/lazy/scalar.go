package lazy

import (
	"context"
	"sync"

	"github.com/pc494/pycrystem/internal/nd"
)

// Scalar is a deferred, memoised scalar reduction. Graph nodes that depend
// on a whole-array statistic (e.g. the global masked mean used by hot-pixel
// detection) hold a Scalar and force it from whichever block task asks
// first; subsequent blocks reuse the value.
type Scalar struct {
	once sync.Once
	fn   func(ctx context.Context) (float64, error)
	val  float64
	err  error
}

// NewScalar wraps a deferred computation.
func NewScalar(fn func(ctx context.Context) (float64, error)) *Scalar {
	return &Scalar{fn: fn}
}

// Value forces the computation exactly once and returns the memoised
// result thereafter.
func (s *Scalar) Value(ctx context.Context) (float64, error) {
	s.once.Do(func() {
		s.val, s.err = s.fn(ctx)
	})
	return s.val, s.err
}

// SumAll returns a deferred sum over every element. Blocks are pulled
// sequentially on the forcing goroutine; the per-block work still runs
// through the parent graph.
func (a *Array) SumAll() *Scalar {
	return NewScalar(func(ctx context.Context) (float64, error) {
		total := 0.0
		for _, idx := range a.blockIndices() {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			block, err := a.fetch(ctx, idx)
			if err != nil {
				return 0, err
			}
			total += block.Sum()
		}
		return total, nil
	})
}

// MeanAll returns a deferred mean over every element.
func (a *Array) MeanAll() *Scalar {
	sum := a.SumAll()
	n := float64(nd.ShapeSize(a.shape))
	return NewScalar(func(ctx context.Context) (float64, error) {
		v, err := sum.Value(ctx)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		return v / n, nil
	})
}
