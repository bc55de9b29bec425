package lazy

import (
	"fmt"
)

// Chunks describes the partitioning of an array into contiguous rectangular
// blocks: one slice of chunk lengths per axis. The lengths along each axis
// must sum to the axis extent.
type Chunks [][]int

// UniformChunks builds a chunk layout from a per-axis block shape. The last
// chunk along an axis is shortened when the extent is not a multiple of the
// block size. A zero or negative block size means one chunk spanning the
// whole axis.
func UniformChunks(shape, blockShape []int) Chunks {
	if len(blockShape) != len(shape) {
		panic(fmt.Sprintf("lazy: block shape %v does not match array shape %v", blockShape, shape))
	}
	c := make(Chunks, len(shape))
	for axis, n := range shape {
		size := blockShape[axis]
		if size <= 0 || size > n {
			size = n
		}
		if n == 0 {
			c[axis] = []int{0}
			continue
		}
		for done := 0; done < n; done += size {
			length := size
			if done+length > n {
				length = n - done
			}
			c[axis] = append(c[axis], length)
		}
	}
	return c
}

// Shape returns the total extent per axis.
func (c Chunks) Shape() []int {
	out := make([]int, len(c))
	for axis, lens := range c {
		for _, n := range lens {
			out[axis] += n
		}
	}
	return out
}

// NumBlocks returns the chunk-grid extent per axis.
func (c Chunks) NumBlocks() []int {
	out := make([]int, len(c))
	for axis, lens := range c {
		out[axis] = len(lens)
	}
	return out
}

// BlockShape returns the element shape of the block at a chunk-grid index.
func (c Chunks) BlockShape(idx []int) []int {
	out := make([]int, len(c))
	for axis, i := range idx {
		out[axis] = c[axis][i]
	}
	return out
}

// BlockOffsets returns the element offsets of a block's origin.
func (c Chunks) BlockOffsets(idx []int) []int {
	out := make([]int, len(c))
	for axis, i := range idx {
		off := 0
		for _, n := range c[axis][:i] {
			off += n
		}
		out[axis] = off
	}
	return out
}

// Equal reports whether two layouts partition identically.
func (c Chunks) Equal(o Chunks) bool {
	if len(c) != len(o) {
		return false
	}
	for axis := range c {
		if len(c[axis]) != len(o[axis]) {
			return false
		}
		for i := range c[axis] {
			if c[axis][i] != o[axis][i] {
				return false
			}
		}
	}
	return true
}

// clone deep-copies the layout.
func (c Chunks) clone() Chunks {
	out := make(Chunks, len(c))
	for axis := range c {
		out[axis] = append([]int(nil), c[axis]...)
	}
	return out
}

// signalWhole reports whether the two trailing axes are each a single chunk,
// i.e. no block ever holds a partial detector frame.
func (c Chunks) signalWhole() bool {
	if len(c) < 2 {
		return false
	}
	return len(c[len(c)-2]) == 1 && len(c[len(c)-1]) == 1
}
