package nd

import (
	"testing"
)

func TestNewShapeAndSize(t *testing.T) {
	a := New(2, 3, 4, 5)
	if a.Rank() != 4 {
		t.Fatalf("expected rank 4, got %d", a.Rank())
	}
	if a.Size() != 120 {
		t.Errorf("expected 120 elements, got %d", a.Size())
	}
	h, w := a.SignalShape()
	if h != 4 || w != 5 {
		t.Errorf("expected signal shape (4, 5), got (%d, %d)", h, w)
	}
	if !EqualShape(a.NavShape(), []int{2, 3}) {
		t.Errorf("expected nav shape [2 3], got %v", a.NavShape())
	}
}

func TestOffsetRowMajor(t *testing.T) {
	a := New(2, 3, 4)
	tests := []struct {
		idx  []int
		want int
	}{
		{[]int{0, 0, 0}, 0},
		{[]int{0, 0, 3}, 3},
		{[]int{0, 1, 0}, 4},
		{[]int{1, 0, 0}, 12},
		{[]int{1, 2, 3}, 23},
	}
	for _, tc := range tests {
		if got := a.Offset(tc.idx...); got != tc.want {
			t.Errorf("Offset(%v) = %d, want %d", tc.idx, got, tc.want)
		}
	}
}

func TestFrameIsView(t *testing.T) {
	a := New(2, 2, 3, 3)
	f := a.Frame(1, 0)
	f.Set(7.5, 2, 1)
	if got := a.At(1, 0, 2, 1); got != 7.5 {
		t.Errorf("frame write did not reach parent: got %f", got)
	}
	fh, fw := f.SignalShape()
	if fh != 3 || fw != 3 {
		t.Errorf("expected 3x3 frame, got %dx%d", fh, fw)
	}
}

func TestSetFrame(t *testing.T) {
	a := New(2, 3, 3)
	f := Full(2.0, 3, 3)
	a.SetFrame(f, 1)
	if a.At(1, 0, 0) != 2.0 || a.At(1, 2, 2) != 2.0 {
		t.Error("SetFrame did not copy frame contents")
	}
	if a.At(0, 0, 0) != 0 {
		t.Error("SetFrame touched a different navigation position")
	}
}

func TestForEachIndexOrderAndCount(t *testing.T) {
	var got [][]int
	ForEachIndex([]int{2, 2}, func(idx []int) {
		got = append(got, append([]int(nil), idx...))
	})
	want := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), len(got))
	}
	for i := range want {
		if !EqualShape(got[i], want[i]) {
			t.Errorf("index %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestForEachIndexEmptyShape(t *testing.T) {
	count := 0
	ForEachIndex(nil, func([]int) { count++ })
	if count != 1 {
		t.Errorf("rank-0 shape should yield one index, got %d", count)
	}
	count = 0
	ForEachIndex([]int{3, 0}, func([]int) { count++ })
	if count != 0 {
		t.Errorf("zero-length axis should yield no indices, got %d", count)
	}
}

func TestRollWrapAround(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	r := a.Roll(1, -1)
	want := []float64{3, 1, 2, 6, 4, 5}
	for i, v := range want {
		if r.Data()[i] != v {
			t.Fatalf("Roll(1, -1) = %v, want %v", r.Data(), want)
		}
	}
	r = a.Roll(-1, 0)
	want = []float64{4, 5, 6, 1, 2, 3}
	for i, v := range want {
		if r.Data()[i] != v {
			t.Fatalf("Roll(-1, 0) = %v, want %v", r.Data(), want)
		}
	}
}

func TestSliceNegativeStops(t *testing.T) {
	a := FromSlice([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		12, 13, 14, 15,
	}, 4, 4)
	s := a.Slice(Range{1, -1}, Range{1, -1})
	if !EqualShape(s.Shape(), []int{2, 2}) {
		t.Fatalf("expected 2x2 interior, got %v", s.Shape())
	}
	want := []float64{5, 6, 9, 10}
	for i, v := range want {
		if s.Data()[i] != v {
			t.Fatalf("interior slice = %v, want %v", s.Data(), want)
		}
	}
	s = a.Slice(Range{2, End}, All)
	if !EqualShape(s.Shape(), []int{2, 4}) {
		t.Fatalf("expected 2x4 tail, got %v", s.Shape())
	}
	if s.At(0, 0) != 8 {
		t.Errorf("tail slice starts at %f, want 8", s.At(0, 0))
	}
}

func TestWriteRegion(t *testing.T) {
	dst := New(4, 4)
	src := Full(3.0, 2, 2)
	dst.WriteRegion(src, []int{1, 2})
	if dst.At(1, 2) != 3 || dst.At(2, 3) != 3 {
		t.Error("region not written at expected offsets")
	}
	if dst.At(0, 0) != 0 || dst.At(3, 3) != 0 {
		t.Error("region write leaked outside its offsets")
	}
}

func TestBorderSlices(t *testing.T) {
	mi, xp, xm, yp, ym := BorderSlices(2)
	sets := [][]Range{mi, xp, xm, yp, ym}
	wantSignal := [][2]Range{
		{{1, -1}, {1, -1}},
		{{0, -2}, {1, -1}},
		{{2, End}, {1, -1}},
		{{1, -1}, {0, -2}},
		{{1, -1}, {2, End}},
	}
	for i, set := range sets {
		if len(set) != 4 {
			t.Fatalf("slice set %d has %d entries, want 4", i, len(set))
		}
		if set[0] != All || set[1] != All {
			t.Errorf("slice set %d navigation prefix = %v, want full ranges", i, set[:2])
		}
		if set[2] != wantSignal[i][0] || set[3] != wantSignal[i][1] {
			t.Errorf("slice set %d signal ranges = %v, want %v", i, set[2:], wantSignal[i])
		}
	}
}

func TestBorderSlicesMatchOnArray(t *testing.T) {
	// All five slice sets of a (2, 2, 4, 4) array must resolve to the same
	// 2x2x2x2 shape, since each trims one pixel per signal edge.
	shape := []int{2, 2, 4, 4}
	mi, xp, xm, yp, ym := BorderSlices(2)
	for i, set := range [][]Range{mi, xp, xm, yp, ym} {
		got := SliceShape(shape, set)
		if !EqualShape(got, []int{2, 2, 2, 2}) {
			t.Errorf("slice set %d resolves to %v, want [2 2 2 2]", i, got)
		}
	}
}

func TestMatView(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	m := a.Mat()
	if r, c := m.Dims(); r != 2 || c != 3 {
		t.Fatalf("expected 2x3 matrix, got %dx%d", r, c)
	}
	m.Set(0, 0, 9)
	if a.At(0, 0) != 9 {
		t.Error("matrix view does not share backing data")
	}
}
