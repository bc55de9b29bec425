package process

import (
	"context"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// ApplyMask substitutes fillValue at every masked detector pixel, broadcast
// across all navigation positions. Mask pixels are excluded by zero-filling
// so downstream reductions can skip them; a nil mask returns the input
// unchanged. The caller's chunk layout is preserved.
func ApplyMask(a *lazy.Array, mask *nd.Array, fillValue float64) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if mask == nil {
		return a, nil
	}
	if err := validateMask(a, mask); err != nil {
		return nil, err
	}
	sigAxis := a.Rank() - 2
	return a.MapBlocks("apply-mask",
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := block.Clone()
			h, w := out.SignalShape()
			offR := info.Offsets[sigAxis]
			offC := info.Offsets[sigAxis+1]
			nd.ForEachIndex(out.NavShape(), func(nav []int) {
				f := out.Frame(nav...)
				for i := 0; i < h; i++ {
					for j := 0; j < w; j++ {
						if mask.At(offR+i, offC+j) != 0 {
							f.Set(fillValue, i, j)
						}
					}
				}
			})
			return out, nil
		}), nil
}

// maskedMeanScalar builds the memoised global mean of all unmasked pixels.
// The scalar is evaluated at most once no matter how many blocks consult it.
func maskedMeanScalar(a *lazy.Array, mask *nd.Array) *lazy.Scalar {
	if mask == nil {
		return a.MeanAll()
	}
	masked, err := ApplyMask(a, mask, 0)
	if err != nil {
		return lazy.NewScalar(func(ctx context.Context) (float64, error) {
			return 0, err
		})
	}
	sum := masked.SumAll()
	count := float64(nd.ShapeSize(a.Shape()[:a.Rank()-2]) * unmaskedCount(mask))
	return lazy.NewScalar(func(ctx context.Context) (float64, error) {
		s, err := sum.Value(ctx)
		if err != nil || count == 0 {
			return 0, err
		}
		return s / count, nil
	})
}

// unmaskedCount returns the number of mask pixels left in play.
func unmaskedCount(mask *nd.Array) int {
	n := 0
	for _, v := range mask.Data() {
		if v == 0 {
			n++
		}
	}
	return n
}
