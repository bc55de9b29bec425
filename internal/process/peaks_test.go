package process

import (
	"context"
	"math"
	"testing"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/ragged"
	"github.com/pc494/pycrystem/internal/testutil"
)

func TestPeakFindDOGEndToEnd(t *testing.T) {
	src := testutil.ReplicateFrames([]int{4, 4}, testutil.GaussianSpot(32, 32, 16, 16, 2, 1.0))
	// Split signal axes so the rechunk step is actually exercised.
	a := lazy.FromDense(src, 2, 2, 16, 16)

	peaks, err := PeakFindDOG(a, frame.DOGOptions{})
	if err != nil {
		t.Fatal(err)
	}
	table, err := peaks.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !nd.EqualShape(table.Shape(), []int{4, 4}) {
		t.Fatalf("table shape = %v, want [4 4]", table.Shape())
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			cell := table.At(i, j)
			if len(cell) != 1 {
				t.Fatalf("position (%d,%d): %d peaks, want 1", i, j, len(cell))
			}
			if math.Abs(cell[0].X-16) > 1 || math.Abs(cell[0].Y-16) > 1 {
				t.Errorf("position (%d,%d): peak at (%v, %v), want within 1 of (16, 16)",
					i, j, cell[0].X, cell[0].Y)
			}
		}
	}
}

func TestPeakFindLOG(t *testing.T) {
	src := testutil.ReplicateFrames([]int{2}, testutil.GaussianSpot(32, 32, 16, 16, 2, 1.0))
	peaks, err := PeakFindLOG(lazy.FromDense(src, 1, 32, 32),
		frame.LOGOptions{MinSigma: 1, MaxSigma: 4, NumSigma: 4, Threshold: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	table, err := peaks.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		cell := table.At(i)
		if len(cell) != 1 || cell[0].X != 16 || cell[0].Y != 16 {
			t.Errorf("position %d: peaks = %v, want one at (16, 16)", i, cell)
		}
	}
}

func TestTemplateMatchChunkingEquivalence(t *testing.T) {
	src := testutil.Patterned(2, 2, 8, 8)
	template := frame.Disk(1)

	matched, err := TemplateMatch(lazy.FromDense(src, 1, 1, 4, 4), template)
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, matched)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := frame.MatchTemplate(src.Frame(i, j), template)
			for p, v := range want.Data() {
				if math.Abs(got.Frame(i, j).Data()[p]-v) > 1e-12 {
					t.Fatalf("frame (%d,%d) diverges from the direct single-frame result", i, j)
				}
			}
		}
	}
}

func TestTemplateMatchBadTemplate(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 2, 4, 4))
	if _, err := TemplateMatch(a, nd.New(2, 2, 2)); err == nil {
		t.Error("rank-3 template accepted")
	}
}

func TestIntensityPeaksAlignment(t *testing.T) {
	src := nd.Full(1, 2, 2, 9, 9)
	peaks := ragged.NewTable[frame.Peak](2, 2)
	peaks.Set([]frame.Peak{{X: 4, Y: 4}}, 0, 0)
	peaks.Set([]frame.Peak{{X: 0, Y: 0}}, 0, 1)
	peaks.Set([]frame.Peak{{X: 4, Y: 4}, {X: 3, Y: 3}}, 1, 0)
	peaks.Set([]frame.Peak{}, 1, 1)

	// One position per block, so each block must be handed its own peaks.
	out, err := IntensityPeaks(lazy.FromDense(src, 1, 1, 9, 9), peaks, 1)
	if err != nil {
		t.Fatal(err)
	}
	table, err := out.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := 5.0 / 9.0
	if cell := table.At(0, 0); len(cell) != 1 || math.Abs(cell[0].Intensity-want) > 1e-12 {
		t.Errorf("cell (0,0) = %v, want one record of intensity %v", cell, want)
	}
	if cell := table.At(0, 1); len(cell) != 1 || cell[0].Intensity != 0 {
		t.Errorf("cell (0,1) = %v, want border intensity 0", cell)
	}
	if cell := table.At(1, 0); len(cell) != 2 {
		t.Errorf("cell (1,0) holds %d records, want 2", len(cell))
	}
	if cell := table.At(1, 1); len(cell) != 0 {
		t.Errorf("cell (1,1) holds %d records, want 0", len(cell))
	}
}

func TestIntensityPeaksNavShapeMismatch(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 2, 2, 9, 9))
	if _, err := IntensityPeaks(a, ragged.NewTable[frame.Peak](3, 3), 1); err == nil {
		t.Error("mismatched peak table accepted")
	}
}

func TestRefinePeaksCOMLazy(t *testing.T) {
	src := nd.New(1, 1, 10, 10)
	src.Set(1, 0, 0, 5, 6)
	peaks := ragged.NewTable[frame.Peak](1, 1)
	peaks.Set([]frame.Peak{{X: 5, Y: 5}}, 0, 0)

	refined, err := RefinePeaksCOM(lazy.FromDense(src), peaks, 4)
	if err != nil {
		t.Fatal(err)
	}
	table, err := refined.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cell := table.At(0, 0)
	if len(cell) != 1 || cell[0].X != 5 || cell[0].Y != 6 {
		t.Errorf("refined peaks = %v, want one at (5, 6)", cell)
	}
}

func TestRefinePeaksCOMOddSquare(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 1, 1, 10, 10))
	if _, err := RefinePeaksCOM(a, ragged.NewTable[frame.Peak](1, 1), 5); err == nil {
		t.Error("odd square size accepted")
	}
}

func TestRemoveBackgroundMedianEngine(t *testing.T) {
	src := nd.Full(7, 2, 2, 8, 8)
	out, err := RemoveBackgroundMedian(lazy.FromDense(src, 1, 1, 4, 4),
		frame.BackgroundMedianOptions{Footprint: 3})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, out)
	for _, v := range got.Data() {
		if v != 0 {
			t.Fatalf("constant chunk left residual %v", v)
		}
	}
}
