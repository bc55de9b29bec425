package process

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// DefaultHotPixelMultiplier scales the global masked mean into the
// neighbourhood-difference threshold for hot-pixel flagging.
const DefaultHotPixelMultiplier = 500.0

// DeadPixelOptions configures FindDeadPixels. DeadValue is the exact sum a
// pixel must hold across every navigation position to be flagged.
type DeadPixelOptions struct {
	DeadValue float64
	Mask      *nd.Array
}

// HotPixelOptions configures FindHotPixels. A zero ThresholdMultiplier
// selects the default.
type HotPixelOptions struct {
	ThresholdMultiplier float64
	Mask                *nd.Array
}

// FindDeadPixels flags detector pixels whose sum across all navigation
// positions equals exactly the dead value, producing a lazy 0/1 map shaped
// like the signal plane. Masked pixels are never flagged.
func FindDeadPixels(a *lazy.Array, opts DeadPixelOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if err := validateMask(a, opts.Mask); err != nil {
		return nil, err
	}
	mask := opts.Mask
	deadValue := opts.DeadValue
	return a.SumNav().MapBlocks("find-dead-pixels",
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			h, w := block.SignalShape()
			out := nd.New(h, w)
			for i := 0; i < h; i++ {
				for j := 0; j < w; j++ {
					if mask != nil && mask.At(info.Offsets[0]+i, info.Offsets[1]+j) != 0 {
						continue
					}
					if block.At(i, j) == deadValue {
						out.Set(1, i, j)
					}
				}
			}
			return out, nil
		}), nil
}

// FindHotPixels flags pixels that sit far above their neighbourhood: the
// sum of the 8 surrounding values (wrap-around indexing) minus 8× the
// centre, compared against −(global unmasked mean × multiplier). The mean
// is a memoised scalar shared by every block, so forcing any block forces
// it exactly once. Experimental port; wrap-around means frame edges compare
// against the opposite edge.
func FindHotPixels(a *lazy.Array, opts HotPixelOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if err := validateMask(a, opts.Mask); err != nil {
		return nil, err
	}
	multiplier := opts.ThresholdMultiplier
	if multiplier == 0 {
		multiplier = DefaultHotPixelMultiplier
	}
	mask := opts.Mask
	mean := maskedMeanScalar(a, mask)
	return a.RechunkSignalWhole().MapBlocks("find-hot-pixels",
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			m, err := mean.Value(ctx)
			if err != nil {
				return nil, err
			}
			threshold := m * multiplier
			out := nd.New(block.Shape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				h, w := f.SignalShape()
				g := out.Frame(nav...)
				for i := 0; i < h; i++ {
					for j := 0; j < w; j++ {
						if mask != nil && mask.At(i, j) != 0 {
							continue
						}
						if neighbourSum8(f, i, j) < -threshold {
							g.Set(1, i, j)
						}
					}
				}
			})
			return out, nil
		}), nil
}

// neighbourSum8 returns the sum of the 8 wrap-around neighbours minus 8×
// the centre value.
func neighbourSum8(f *nd.Array, i, j int) float64 {
	h, w := f.SignalShape()
	sum := 0.0
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			if di == 0 && dj == 0 {
				continue
			}
			sum += f.At((i+di+h)%h, (j+dj+w)%w)
		}
	}
	return sum - 8*f.At(i, j)
}

// RemoveBadPixels replaces every flagged pixel with the mean of its 4
// orthogonal neighbours (wrap-around indexing) from the original frame,
// leaving unflagged pixels untouched. The bad-pixel map is shaped either
// like the full array or like just the signal plane (broadcast case).
func RemoveBadPixels(a *lazy.Array, badPixels *nd.Array) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	shape := a.Shape()
	full := nd.EqualShape(badPixels.Shape(), shape)
	broadcast := nd.EqualShape(badPixels.Shape(), shape[len(shape)-2:])
	if !full && !broadcast {
		return nil, fmt.Errorf("%w: bad pixel map shape %v, array shape %v",
			ErrShapeMismatch, badPixels.Shape(), shape)
	}
	return a.RechunkSignalWhole().MapBlocks("remove-bad-pixels",
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := block.Clone()
			forEachFrame(block, func(nav []int, f *nd.Array) {
				bad := badPixels
				if full {
					bad = badPixels.Frame(absoluteNav(info, nav)...)
				}
				g := out.Frame(nav...)
				h, w := f.SignalShape()
				for i := 0; i < h; i++ {
					for j := 0; j < w; j++ {
						if bad.At(i, j) == 0 {
							continue
						}
						repaired := (f.At((i+h-1)%h, j) + f.At((i+1)%h, j) +
							f.At(i, (j+w-1)%w) + f.At(i, (j+1)%w)) / 4
						g.Set(repaired, i, j)
					}
				}
			})
			return out, nil
		}), nil
}
