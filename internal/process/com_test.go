package process

import (
	"testing"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

func TestCenterOfMassSyntheticPeak(t *testing.T) {
	f := nd.New(32, 32)
	f.Set(5, 20, 10)

	com, err := CenterOfMass(lazy.FromDense(f), CenterOfMassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if !nd.EqualShape(got.Shape(), []int{2}) {
		t.Fatalf("shape = %v, want [2]", got.Shape())
	}
	if got.At(0) != 10 || got.At(1) != 20 {
		t.Errorf("centre of mass = (%v, %v), want (10, 20)", got.At(0), got.At(1))
	}
}

func TestCenterOfMassChunked(t *testing.T) {
	src := nd.New(2, 2, 16, 16)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			src.Set(1, i, j, 3+i, 5+j)
		}
	}

	com, err := CenterOfMass(lazy.FromDense(src, 1, 1, 8, 8), CenterOfMassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if !nd.EqualShape(got.Shape(), []int{2, 2, 2}) {
		t.Fatalf("shape = %v, want [2 2 2]", got.Shape())
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if x := got.At(0, i, j); x != float64(5+j) {
				t.Errorf("x at (%d,%d) = %v, want %d", i, j, x, 5+j)
			}
			if y := got.At(1, i, j); y != float64(3+i) {
				t.Errorf("y at (%d,%d) = %v, want %d", i, j, y, 3+i)
			}
		}
	}
}

func TestCenterOfMassZeroFrame(t *testing.T) {
	com, err := CenterOfMass(lazy.FromDense(nd.New(8, 8)), CenterOfMassOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if got.At(0) != 0 || got.At(1) != 0 {
		t.Errorf("zero frame centre of mass = (%v, %v), want (0, 0)", got.At(0), got.At(1))
	}
}

func TestCenterOfMassThresholdIgnoresBackground(t *testing.T) {
	// A faint uniform background pulls the centroid toward the frame
	// centre; thresholding on the mean removes it.
	f := nd.Full(0.1, 16, 16)
	f.Set(10, 4, 12)

	com, err := CenterOfMass(lazy.FromDense(f), CenterOfMassOptions{ThresholdMultiplier: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if got.At(0) != 12 || got.At(1) != 4 {
		t.Errorf("thresholded centre of mass = (%v, %v), want (12, 4)", got.At(0), got.At(1))
	}
}

func TestCenterOfMassThresholdEqualWeights(t *testing.T) {
	// Thresholding reduces the frame to its 0/1 super-threshold map, so
	// two surviving pixels of unequal intensity contribute equally and
	// the centroid sits halfway between them.
	f := nd.New(16, 16)
	f.Set(9, 4, 4)
	f.Set(3, 4, 12)

	com, err := CenterOfMass(lazy.FromDense(f), CenterOfMassOptions{ThresholdMultiplier: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if got.At(0) != 8 || got.At(1) != 4 {
		t.Errorf("thresholded centre of mass = (%v, %v), want (8, 4)", got.At(0), got.At(1))
	}
}

func TestCenterOfMassMasked(t *testing.T) {
	f := nd.New(8, 8)
	f.Set(1, 2, 3)
	f.Set(100, 6, 6)
	mask := nd.New(8, 8)
	mask.Set(1, 6, 6)

	com, err := CenterOfMass(lazy.FromDense(f), CenterOfMassOptions{Mask: mask})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, com)
	if got.At(0) != 3 || got.At(1) != 2 {
		t.Errorf("masked centre of mass = (%v, %v), want (3, 2)", got.At(0), got.At(1))
	}
}
