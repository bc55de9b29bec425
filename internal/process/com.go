package process

import (
	"context"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// CenterOfMassOptions configures CenterOfMass. A non-zero
// ThresholdMultiplier zeroes every pixel at or below mean × multiplier
// before the centroid is taken; a nil Mask includes every pixel.
type CenterOfMassOptions struct {
	ThresholdMultiplier float64
	Mask                *nd.Array
}

// CenterOfMass computes the intensity-weighted centroid of every frame,
// producing a lazy array shaped (2, nav...): index 0 holds the x (column)
// coordinate and index 1 the y (row) coordinate, the calibrated-axis order.
// A frame with zero total intensity yields (0, 0).
func CenterOfMass(a *lazy.Array, opts CenterOfMassOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if err := validateMask(a, opts.Mask); err != nil {
		return nil, err
	}
	mask := opts.Mask
	multiplier := opts.ThresholdMultiplier
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksStacked("center-of-mass", re, 2,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := nd.New(append([]int{2}, block.NavShape()...)...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				x, y := comFrame(f, mask, multiplier)
				out.Set(x, append([]int{0}, nav...)...)
				out.Set(y, append([]int{1}, nav...)...)
			})
			return out, nil
		}), nil
}

// comFrame returns the centroid of one frame in (x, y) order. Masked pixels
// carry zero weight. With a threshold set, the frame is first reduced to its
// 0/1 super-threshold map, so every surviving pixel weighs the same and the
// result is the unweighted centroid of the super-threshold support.
func comFrame(f, mask *nd.Array, multiplier float64) (x, y float64) {
	h, w := f.SignalShape()
	threshold := 0.0
	if multiplier != 0 {
		sum := 0.0
		count := 0
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				if mask != nil && mask.At(i, j) != 0 {
					continue
				}
				sum += f.At(i, j)
				count++
			}
		}
		if count > 0 {
			threshold = sum / float64(count) * multiplier
		}
	}
	var total, sumX, sumY float64
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if mask != nil && mask.At(i, j) != 0 {
				continue
			}
			v := f.At(i, j)
			if multiplier != 0 {
				if v <= threshold {
					continue
				}
				v = 1
			}
			total += v
			sumX += v * float64(j)
			sumY += v * float64(i)
		}
	}
	if total == 0 {
		return 0, 0
	}
	return sumX / total, sumY / total
}
