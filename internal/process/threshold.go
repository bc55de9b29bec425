package process

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// ThresholdOptions configures ThresholdArray. A nil Mask includes every
// detector pixel.
type ThresholdOptions struct {
	Mask *nd.Array
}

// ThresholdArray compares every pixel against a per-position threshold of
// mean(signal plane) × multiplier, producing a 0/1 array of the input's
// shape. Masked pixels are excluded from the mean but present, always 0, in
// the comparison result. Supported ranks are 2, 3 and 4; broadcasting the
// per-position scalar back over the signal plane is rank-specific.
func ThresholdArray(a *lazy.Array, multiplier float64, opts ThresholdOptions) (*lazy.Array, error) {
	if err := validateRank234(a); err != nil {
		return nil, err
	}
	if err := validateMask(a, opts.Mask); err != nil {
		return nil, err
	}
	mask := opts.Mask
	return a.RechunkSignalWhole().MapBlocks("threshold",
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			switch block.Rank() {
			case 2:
				return threshold2(block, mask, multiplier), nil
			case 3:
				return threshold3(block, mask, multiplier), nil
			case 4:
				return threshold4(block, mask, multiplier), nil
			default:
				return nil, fmt.Errorf("%w: rank %d", ErrUnsupportedRank, block.Rank())
			}
		}), nil
}

func threshold2(f, mask *nd.Array, multiplier float64) *nd.Array {
	return thresholdFrame(f, mask, multiplier)
}

func threshold3(block, mask *nd.Array, multiplier float64) *nd.Array {
	out := nd.New(block.Shape()...)
	n := block.Shape()[0]
	for i := 0; i < n; i++ {
		out.SetFrame(thresholdFrame(block.Frame(i), mask, multiplier), i)
	}
	return out
}

func threshold4(block, mask *nd.Array, multiplier float64) *nd.Array {
	out := nd.New(block.Shape()...)
	n0, n1 := block.Shape()[0], block.Shape()[1]
	for i := 0; i < n0; i++ {
		for j := 0; j < n1; j++ {
			out.SetFrame(thresholdFrame(block.Frame(i, j), mask, multiplier), i, j)
		}
	}
	return out
}

// thresholdFrame is the rank-2 kernel: threshold one frame against the mean
// of its unmasked pixels times the multiplier.
func thresholdFrame(f, mask *nd.Array, multiplier float64) *nd.Array {
	h, w := f.SignalShape()
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
	threshold := 0.0
	if count > 0 {
		threshold = sum / float64(count) * multiplier
	}
	out := nd.New(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if mask != nil && mask.At(i, j) != 0 {
				continue
			}
			if f.At(i, j) > threshold {
				out.Set(1, i, j)
			}
		}
	}
	return out
}
