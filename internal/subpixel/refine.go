// Package subpixel refines diffraction-spot positions to subpixel
// precision by cross-correlating a window around each peak against a
// template: either a simulated flat disk or the same window of a reference
// pattern. The centre-of-mass refinement variant lives in internal/process;
// both produce pixel-space peaks that the signal layer converts to
// calibrated vectors.
package subpixel

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/ragged"
)

// Defaults applied by XCOptions for zero-valued fields.
const (
	DefaultSquareSize     = 10
	DefaultDiskRadius     = 4
	DefaultUpsampleFactor = 10
)

// XCOptions configures the cross-correlation refiners. UpsampleFactor is
// the reciprocal of the subpixel resolution (10 gives 1/10th of a pixel).
type XCOptions struct {
	SquareSize     int
	DiskRadius     int
	UpsampleFactor int
}

func (o *XCOptions) applyDefaults() {
	if o.SquareSize == 0 {
		o.SquareSize = DefaultSquareSize
	}
	if o.DiskRadius == 0 {
		o.DiskRadius = DefaultDiskRadius
	}
	if o.UpsampleFactor == 0 {
		o.UpsampleFactor = DefaultUpsampleFactor
	}
}

func (o XCOptions) validate() error {
	if o.SquareSize < 2 || o.SquareSize%2 != 0 {
		return fmt.Errorf("subpixel: square size must be a positive even number, got %d", o.SquareSize)
	}
	if o.UpsampleFactor < 1 {
		return fmt.Errorf("subpixel: upsample factor must be at least 1, got %d", o.UpsampleFactor)
	}
	return nil
}

// SimulatedDisk renders the flat disk template used by the conventional
// cross-correlation refiner: a squareSize-sided frame with ones strictly
// inside diskRadius of the centre.
func SimulatedDisk(squareSize, diskRadius int) *nd.Array {
	d := nd.New(squareSize, squareSize)
	c := float64(squareSize) / 2
	r2 := float64(diskRadius * diskRadius)
	for i := 0; i < squareSize; i++ {
		for j := 0; j < squareSize; j++ {
			dy := float64(i) - c
			dx := float64(j) - c
			if dy*dy+dx*dx < r2 {
				d.Set(1, i, j)
			}
		}
	}
	return d
}

// RefineConventionalXC refines every position's peaks by registering the
// window around each peak against a simulated disk, producing a lazy
// ragged result of pixel-space peaks. Peaks whose window runs off the
// frame pass through unchanged.
func RefineConventionalXC(a *lazy.Array, peaks *ragged.Table[frame.Peak], opts XCOptions) (*lazy.Ragged[frame.Peak], error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	sim := SimulatedDisk(opts.SquareSize, opts.DiskRadius)
	return refineXC("refine-conventional-xc", a, peaks, opts,
		func(f *nd.Array, p frame.Peak) *nd.Array { return sim })
}

// RefineReferenceXC refines every position's peaks by registering the
// window around each peak against the same window of a reference pattern.
// The reference must be frame-shaped.
func RefineReferenceXC(a *lazy.Array, reference *nd.Array, peaks *ragged.Table[frame.Peak], opts XCOptions) (*lazy.Ragged[frame.Peak], error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	shape := a.Shape()
	if !nd.EqualShape(reference.Shape(), shape[len(shape)-2:]) {
		return nil, fmt.Errorf("subpixel: reference shape %v, signal shape %v",
			reference.Shape(), shape[len(shape)-2:])
	}
	return refineXC("refine-reference-xc", a, peaks, opts,
		func(f *nd.Array, p frame.Peak) *nd.Array {
			return frame.ExtractSquare(reference, p, opts.SquareSize)
		})
}

// refineXC builds the shared lazy pipeline: for every peak, extract its
// window, obtain the matching template, and add the registered shift.
func refineXC(op string, a *lazy.Array, peaks *ragged.Table[frame.Peak], opts XCOptions,
	template func(f *nd.Array, p frame.Peak) *nd.Array) (*lazy.Ragged[frame.Peak], error) {
	if a.Rank() < 2 {
		return nil, fmt.Errorf("subpixel: rank %d below minimum 2 (shape %v)", a.Rank(), a.Shape())
	}
	navRank := a.Rank() - 2
	if !nd.EqualShape(peaks.Shape(), a.Shape()[:navRank]) {
		return nil, fmt.Errorf("subpixel: peak table shape %v, navigation shape %v",
			peaks.Shape(), a.Shape()[:navRank])
	}
	re := a.RechunkSignalWhole()
	return lazy.MapBlocksRagged(op, re,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*ragged.Table[frame.Peak], error) {
			local := peaks.Region(info.Offsets[:navRank], block.NavShape())
			out := ragged.NewTable[frame.Peak](block.NavShape()...)
			nd.ForEachIndex(block.NavShape(), func(nav []int) {
				f := block.Frame(nav...)
				cell := local.At(nav...)
				refined := make([]frame.Peak, len(cell))
				for k, p := range cell {
					refined[k] = refinePeakXC(f, p, opts, template)
				}
				out.Set(refined, nav...)
			})
			return out, nil
		}), nil
}

// refinePeakXC registers one peak window against its template. Degenerate
// windows (off-frame peak or off-frame reference window) leave the peak
// unchanged.
func refinePeakXC(f *nd.Array, p frame.Peak, opts XCOptions,
	template func(f *nd.Array, p frame.Peak) *nd.Array) frame.Peak {
	window := frame.ExtractSquare(f, p, opts.SquareSize)
	if window == nil {
		return p
	}
	tmpl := template(f, p)
	if tmpl == nil {
		return p
	}
	dr, dc := registerTranslation(window, tmpl, opts.UpsampleFactor)
	return frame.Peak{X: p.X + dr, Y: p.Y + dc}
}
