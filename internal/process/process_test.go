package process

import (
	"context"
	"errors"
	"testing"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/testutil"
)

func mustCompute(t *testing.T, a *lazy.Array) *nd.Array {
	t.Helper()
	out, err := a.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestApplyMaskBroadcast(t *testing.T) {
	src := nd.Full(1, 2, 2, 4, 4)
	mask := nd.New(4, 4)
	mask.Set(1, 0, 0)
	mask.Set(1, 2, 3)

	// Block layout splits the signal plane to exercise offset handling.
	a := lazy.FromDense(src, 1, 2, 2, 2)
	masked, err := ApplyMask(a, mask, -1)
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, masked)
	if !nd.EqualShape(got.Shape(), []int{2, 2, 4, 4}) {
		t.Fatalf("shape = %v, want [2 2 4 4]", got.Shape())
	}
	for ni := 0; ni < 2; ni++ {
		for nj := 0; nj < 2; nj++ {
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					want := 1.0
					if mask.At(i, j) != 0 {
						want = -1
					}
					if v := got.At(ni, nj, i, j); v != want {
						t.Fatalf("position (%d,%d) pixel (%d,%d) = %v, want %v", ni, nj, i, j, v, want)
					}
				}
			}
		}
	}
}

func TestApplyMaskNilPassthrough(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 4, 4), 2, 2)
	got, err := ApplyMask(a, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != a {
		t.Error("nil mask should return the input node")
	}
}

func TestApplyMaskShapeMismatch(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 2, 4, 4), 1, 4, 4)
	_, err := ApplyMask(a, nd.New(3, 3), 0)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestThresholdArrayRank2(t *testing.T) {
	f := nd.FromSlice([]float64{0, 1, 2, 3}, 2, 2)
	th, err := ThresholdArray(lazy.FromDense(f), 1, ThresholdOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, th)
	// Mean 1.5: only the 2 and the 3 clear it.
	want := []float64{0, 0, 1, 1}
	for i, v := range got.Data() {
		if v != want[i] {
			t.Fatalf("threshold output = %v, want %v", got.Data(), want)
		}
	}
}

func TestThresholdArrayMaskedPixelStaysFalse(t *testing.T) {
	f := nd.Full(1, 4, 4)
	f.Set(1000, 1, 1)
	mask := nd.New(4, 4)
	mask.Set(1, 1, 1)

	th, err := ThresholdArray(lazy.FromDense(f), 1, ThresholdOptions{Mask: mask})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, th)
	if got.At(1, 1) != 0 {
		t.Error("masked pixel compared true")
	}
	// With the outlier excluded the mean is 1, so nothing else clears it.
	for _, v := range got.Data() {
		if v != 0 {
			t.Fatalf("output = %v, want all zeros", got.Data())
		}
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	src := testutil.Patterned(2, 2, 6, 6)
	a := lazy.FromDense(src, 1, 1, 6, 6)
	prev := -1
	for _, multiplier := range []float64{0.25, 0.5, 1, 2, 4} {
		th, err := ThresholdArray(a, multiplier, ThresholdOptions{})
		if err != nil {
			t.Fatal(err)
		}
		count := 0
		for _, v := range mustCompute(t, th).Data() {
			if v != 0 {
				count++
			}
		}
		if prev >= 0 && count > prev {
			t.Fatalf("true count rose from %d to %d at multiplier %v", prev, count, multiplier)
		}
		prev = count
	}
}

func TestThresholdArrayUnsupportedRank(t *testing.T) {
	a := lazy.FromDense(nd.Full(1, 2, 2, 2, 2, 2))
	_, err := ThresholdArray(a, 1, ThresholdOptions{})
	if !errors.Is(err, ErrUnsupportedRank) {
		t.Errorf("err = %v, want ErrUnsupportedRank", err)
	}
}

func TestThresholdRankPaths(t *testing.T) {
	// The rank-3 and rank-4 paths must agree with the rank-2 kernel
	// applied frame by frame.
	src := testutil.Patterned(2, 3, 4, 4)
	th, err := ThresholdArray(lazy.FromDense(src, 1, 1, 4, 4), 1, ThresholdOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := mustCompute(t, th)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			want := thresholdFrame(src.Frame(i, j), nil, 1)
			for p, v := range want.Data() {
				if got.Frame(i, j).Data()[p] != v {
					t.Fatalf("frame (%d,%d) disagrees with rank-2 kernel", i, j)
				}
			}
		}
	}
}
