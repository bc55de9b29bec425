package process

import (
	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// RemoveBackgroundDOG subtracts a difference-of-Gaussians background
// estimate from every frame.
func RemoveBackgroundDOG(a *lazy.Array, opts frame.BackgroundDOGOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	return mapFrames("background-dog", a, func(f *nd.Array) *nd.Array {
		return frame.RemoveBackgroundDOG(f, opts)
	}), nil
}

// RemoveBackgroundMedian subtracts the median-filtered frame from every
// frame.
func RemoveBackgroundMedian(a *lazy.Array, opts frame.BackgroundMedianOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	return mapFrames("background-median", a, func(f *nd.Array) *nd.Array {
		return frame.RemoveBackgroundMedian(f, opts)
	}), nil
}

// RemoveBackgroundRadialMedian subtracts, per pixel, the median of its
// integer-radius ring around the beam centre from every frame.
func RemoveBackgroundRadialMedian(a *lazy.Array, opts frame.BackgroundRadialOptions) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	return mapFrames("background-radial-median", a, func(f *nd.Array) *nd.Array {
		return frame.RemoveBackgroundRadialMedian(f, opts)
	}), nil
}
