package nd

import (
	"fmt"
	"math"
)

// End marks an open-ended slice stop ("to the end of the axis").
const End = math.MaxInt

// Range is a half-open index interval along one axis. A negative Stop counts
// back from the axis length, Stop == End runs to the end of the axis.
type Range struct {
	Start int
	Stop  int
}

// All is the whole-axis range.
var All = Range{Start: 0, Stop: End}

// resolve clamps the range against an axis of length n and returns the
// concrete start/stop pair.
func (r Range) resolve(n int) (start, stop int) {
	start = r.Start
	if start < 0 {
		start += n
	}
	stop = r.Stop
	switch {
	case stop == End:
		stop = n
	case stop < 0:
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	if stop < start {
		stop = start
	}
	return start, stop
}

// SliceShape returns the shape produced by applying the ranges to an array
// of the given shape.
func SliceShape(shape []int, ranges []Range) []int {
	if len(ranges) != len(shape) {
		panic(fmt.Sprintf("nd: %d ranges for rank-%d shape", len(ranges), len(shape)))
	}
	out := make([]int, len(shape))
	for i, r := range ranges {
		start, stop := r.resolve(shape[i])
		out[i] = stop - start
	}
	return out
}

// Slice copies the sub-array selected by one range per axis.
func (a *Array) Slice(ranges ...Range) *Array {
	if len(ranges) != len(a.shape) {
		panic(fmt.Sprintf("nd: %d ranges for rank-%d array", len(ranges), len(a.shape)))
	}
	starts := make([]int, len(a.shape))
	outShape := make([]int, len(a.shape))
	for i, r := range ranges {
		start, stop := r.resolve(a.shape[i])
		starts[i] = start
		outShape[i] = stop - start
	}
	out := New(outShape...)
	src := make([]int, len(a.shape))
	ForEachIndex(outShape, func(idx []int) {
		for i, v := range idx {
			src[i] = starts[i] + v
		}
		out.data[out.Offset(idx...)] = a.data[a.Offset(src...)]
	})
	return out
}

// WriteRegion copies src into the receiver at the given per-axis offsets.
// src must fit entirely inside the receiver. This is the index-addressed
// block write used when assembling materialised chunks into an output array.
func (a *Array) WriteRegion(src *Array, offsets []int) {
	if len(offsets) != len(a.shape) || src.Rank() != a.Rank() {
		panic(fmt.Sprintf("nd: region offsets %v for shapes %v <- %v", offsets, a.shape, src.shape))
	}
	for i := range offsets {
		if offsets[i] < 0 || offsets[i]+src.shape[i] > a.shape[i] {
			panic(fmt.Sprintf("nd: region %v+%v outside shape %v", offsets, src.shape, a.shape))
		}
	}
	dst := make([]int, len(a.shape))
	ForEachIndex(src.shape, func(idx []int) {
		for i, v := range idx {
			dst[i] = offsets[i] + v
		}
		a.data[a.Offset(dst...)] = src.data[src.Offset(idx...)]
	})
}

// BorderSlices returns the five slice sets used for 4-neighbour (von
// Neumann) pixel interpolation across the signal plane: the interior, and
// the interior shifted one pixel along −x, +x, −y and +y. Each set is
// prefixed with navRank full-range navigation slices so it can be applied
// directly to a navigation×detector array.
func BorderSlices(navRank int) (mi, xp, xm, yp, ym []Range) {
	prefix := make([]Range, navRank)
	for i := range prefix {
		prefix[i] = All
	}
	build := func(rx, ry Range) []Range {
		out := append([]Range(nil), prefix...)
		return append(out, rx, ry)
	}
	mi = build(Range{1, -1}, Range{1, -1})
	xp = build(Range{0, -2}, Range{1, -1})
	xm = build(Range{2, End}, Range{1, -1})
	yp = build(Range{1, -1}, Range{0, -2})
	ym = build(Range{1, -1}, Range{2, End})
	return mi, xp, xm, yp, ym
}
