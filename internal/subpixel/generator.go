package subpixel

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/process"
	"github.com/pc494/pycrystem/internal/ragged"
	"github.com/pc494/pycrystem/internal/signal"
)

// Generator refines a fixed set of candidate peaks against one calibrated
// dataset. Each method materialises the lazy refinement and reports the
// result as calibrated vectors relative to the detector centre.
type Generator struct {
	sig   *signal.Signal2D
	peaks *ragged.Table[frame.Peak]
}

// NewGenerator pairs a dataset with one candidate peak set per navigation
// position.
func NewGenerator(sig *signal.Signal2D, peaks *ragged.Table[frame.Peak]) (*Generator, error) {
	navRank := sig.Data().Rank() - 2
	if !nd.EqualShape(peaks.Shape(), sig.Data().Shape()[:navRank]) {
		return nil, fmt.Errorf("subpixel: peak table shape %v, navigation shape %v",
			peaks.Shape(), sig.Data().Shape()[:navRank])
	}
	return &Generator{sig: sig, peaks: peaks}, nil
}

// ConventionalXC refines against a simulated disk template.
func (g *Generator) ConventionalXC(ctx context.Context, opts XCOptions) (*ragged.Table[signal.Vector], error) {
	r, err := RefineConventionalXC(g.sig.Data(), g.peaks, opts)
	if err != nil {
		return nil, err
	}
	return g.calibrate(ctx, r)
}

// ReferenceXC refines against the matching window of a reference pattern.
func (g *Generator) ReferenceXC(ctx context.Context, reference *signal.Signal2D, opts XCOptions) (*ragged.Table[signal.Vector], error) {
	ref, err := reference.Data().Compute(ctx)
	if err != nil {
		return nil, err
	}
	if ref.Rank() != 2 {
		return nil, fmt.Errorf("subpixel: reference must be a single pattern, got shape %v", ref.Shape())
	}
	r, err := RefineReferenceXC(g.sig.Data(), ref, g.peaks, opts)
	if err != nil {
		return nil, err
	}
	return g.calibrate(ctx, r)
}

// CenterOfMass refines each peak window by its intensity centroid.
func (g *Generator) CenterOfMass(ctx context.Context, squareSize int) (*ragged.Table[signal.Vector], error) {
	if squareSize == 0 {
		squareSize = DefaultSquareSize
	}
	r, err := process.RefinePeaksCOM(g.sig.Data(), g.peaks, squareSize)
	if err != nil {
		return nil, err
	}
	return g.calibrate(ctx, r)
}

func (g *Generator) calibrate(ctx context.Context, r *lazy.Ragged[frame.Peak]) (*ragged.Table[signal.Vector], error) {
	table, err := r.Compute(ctx)
	if err != nil {
		return nil, err
	}
	return g.sig.CalibratePeaks(table), nil
}
