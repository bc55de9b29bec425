package process

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/ragged"
)

// Defaults for the peak post-processing operations.
const (
	DefaultDiskRadius = 4
	DefaultSquareSize = 10
)

// PeakFindDOG runs the difference-of-Gaussians peak finder on every frame,
// producing a lazy ragged result: one variable-length peak list per
// navigation position, the signal axes dropped from the output shape.
func PeakFindDOG(a *lazy.Array, opts frame.DOGOptions) (*lazy.Ragged[frame.Peak], error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksRagged("peak-find-dog", re,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*ragged.Table[frame.Peak], error) {
			out := ragged.NewTable[frame.Peak](block.NavShape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				out.Set(frame.FindPeaksDOG(f, opts), nav...)
			})
			return out, nil
		}), nil
}

// PeakFindLOG is the Laplacian-of-Gaussian counterpart of PeakFindDOG.
func PeakFindLOG(a *lazy.Array, opts frame.LOGOptions) (*lazy.Ragged[frame.Peak], error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksRagged("peak-find-log", re,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*ragged.Table[frame.Peak], error) {
			out := ragged.NewTable[frame.Peak](block.NavShape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				out.Set(frame.FindPeaksLOG(f, opts), nav...)
			})
			return out, nil
		}), nil
}

// IntensityPeaks samples, for every position's peaks, the mean intensity
// under a disk of the given radius, producing a lazy ragged result aligned
// with the input's navigation layout. Each block receives exactly the peak
// lists for its own positions. A zero radius selects the default.
func IntensityPeaks(a *lazy.Array, peaks *ragged.Table[frame.Peak], diskRadius int) (*lazy.Ragged[frame.PeakIntensity], error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if err := validateNavShape(a, peaks.Shape()); err != nil {
		return nil, err
	}
	if diskRadius == 0 {
		diskRadius = DefaultDiskRadius
	}
	navRank := a.Rank() - 2
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksRagged("intensity-peaks", re,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*ragged.Table[frame.PeakIntensity], error) {
			local := peaks.Region(info.Offsets[:navRank], block.NavShape())
			out := ragged.NewTable[frame.PeakIntensity](block.NavShape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				out.Set(frame.PeakIntensities(f, local.At(nav...), diskRadius), nav...)
			})
			return out, nil
		}), nil
}

// RefinePeaksCOM refines every position's peaks to subpixel precision with
// the centre of mass of a square window, producing a lazy ragged result.
// squareSize must be even; zero selects the default.
func RefinePeaksCOM(a *lazy.Array, peaks *ragged.Table[frame.Peak], squareSize int) (*lazy.Ragged[frame.Peak], error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	if err := validateNavShape(a, peaks.Shape()); err != nil {
		return nil, err
	}
	if squareSize == 0 {
		squareSize = DefaultSquareSize
	}
	if squareSize < 2 || squareSize%2 != 0 {
		return nil, fmt.Errorf("refine peaks: square size must be a positive even number, got %d", squareSize)
	}
	navRank := a.Rank() - 2
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksRagged("refine-peaks-com", re,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*ragged.Table[frame.Peak], error) {
			local := peaks.Region(info.Offsets[:navRank], block.NavShape())
			out := ragged.NewTable[frame.Peak](block.NavShape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				out.Set(frame.RefinePeaksCOM(f, local.At(nav...), squareSize), nav...)
			})
			return out, nil
		}), nil
}
