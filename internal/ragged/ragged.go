// Package ragged provides the navigation-shaped container used for results
// whose length varies per scan position, such as per-frame peak lists. Each
// cell holds an independent variable-length slice; there is no fixed upper
// bound on the per-position count.
package ragged

import (
	"fmt"
)

// Table is an index-addressable mapping from navigation index to a
// variable-length collection. Cells are stored row-major over the navigation
// shape; a rank-0 navigation space holds exactly one cell.
type Table[T any] struct {
	shape []int
	cells [][]T
}

// NewTable returns an empty table over the given navigation shape.
func NewTable[T any](shape ...int) *Table[T] {
	size := 1
	for _, n := range shape {
		if n < 0 {
			panic(fmt.Sprintf("ragged: negative dimension %d in shape %v", n, shape))
		}
		size *= n
	}
	return &Table[T]{
		shape: append([]int(nil), shape...),
		cells: make([][]T, size),
	}
}

// Shape returns the navigation shape. The caller must not modify the result.
func (t *Table[T]) Shape() []int { return t.shape }

// Len returns the number of cells.
func (t *Table[T]) Len() int { return len(t.cells) }

func (t *Table[T]) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("ragged: index rank %d does not match table rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("ragged: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + v
	}
	return off
}

// At returns the cell at the navigation index.
func (t *Table[T]) At(idx ...int) []T { return t.cells[t.offset(idx)] }

// Set stores a cell at the navigation index.
func (t *Table[T]) Set(v []T, idx ...int) { t.cells[t.offset(idx)] = v }

// AtFlat returns the cell at a flat row-major position.
func (t *Table[T]) AtFlat(i int) []T { return t.cells[i] }

// SetFlat stores a cell at a flat row-major position.
func (t *Table[T]) SetFlat(i int, v []T) { t.cells[i] = v }

// Region copies the sub-table starting at the per-axis offsets with the
// given shape. Cell slices are shared, not copied; tables are treated as
// immutable once produced.
func (t *Table[T]) Region(offsets, shape []int) *Table[T] {
	if len(offsets) != len(t.shape) || len(shape) != len(t.shape) {
		panic(fmt.Sprintf("ragged: region %v+%v for rank-%d table", offsets, shape, len(t.shape)))
	}
	out := NewTable[T](shape...)
	src := make([]int, len(t.shape))
	forEachIndex(shape, func(idx []int) {
		for i, v := range idx {
			src[i] = offsets[i] + v
		}
		out.cells[out.offset(idx)] = t.cells[t.offset(src)]
	})
	return out
}

// WriteRegion copies src's cells into the receiver at the per-axis offsets.
// This is the index-addressed block write used when assembling per-block
// ragged results into the full-navigation-shape table.
func (t *Table[T]) WriteRegion(src *Table[T], offsets []int) {
	if len(offsets) != len(t.shape) || len(src.shape) != len(t.shape) {
		panic(fmt.Sprintf("ragged: region offsets %v for shapes %v <- %v", offsets, t.shape, src.shape))
	}
	dst := make([]int, len(t.shape))
	forEachIndex(src.shape, func(idx []int) {
		for i, v := range idx {
			dst[i] = offsets[i] + v
		}
		t.cells[t.offset(dst)] = src.cells[src.offset(idx)]
	})
}

func forEachIndex(shape []int, fn func(idx []int)) {
	for _, n := range shape {
		if n == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		i := len(shape) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
