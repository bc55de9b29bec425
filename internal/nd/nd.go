// Package nd provides the dense n-dimensional float64 arrays that back
// chunk blocks and detector frames.
//
// Arrays are row-major and contiguous. The two trailing axes of a
// navigation×detector array are the signal (detector) axes; a frame is the
// rank-2 sub-array at one navigation index. Frames of a contiguous array are
// views sharing the parent's backing slice, so per-frame algorithms never
// copy pixel data on the way in.
package nd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Array is a dense row-major n-dimensional array of float64.
type Array struct {
	shape  []int
	stride []int
	data   []float64
}

// New returns a zero-filled array with the given shape.
func New(shape ...int) *Array {
	size := 1
	for _, n := range shape {
		if n < 0 {
			panic(fmt.Sprintf("nd: negative dimension %d in shape %v", n, shape))
		}
		size *= n
	}
	return wrap(append([]int(nil), shape...), make([]float64, size))
}

// FromSlice wraps an existing backing slice. The slice length must equal the
// product of the shape; the array takes ownership of the slice.
func FromSlice(data []float64, shape ...int) *Array {
	size := 1
	for _, n := range shape {
		size *= n
	}
	if len(data) != size {
		panic(fmt.Sprintf("nd: data length %d does not match shape %v", len(data), shape))
	}
	return wrap(append([]int(nil), shape...), data)
}

func wrap(shape []int, data []float64) *Array {
	stride := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = s
		s *= shape[i]
	}
	return &Array{shape: shape, stride: stride, data: data}
}

// Full returns an array with every element set to v.
func Full(v float64, shape ...int) *Array {
	a := New(shape...)
	for i := range a.data {
		a.data[i] = v
	}
	return a
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Shape returns the dimension sizes. The caller must not modify the result.
func (a *Array) Shape() []int { return a.shape }

// Size returns the total element count.
func (a *Array) Size() int { return len(a.data) }

// Data returns the backing slice in row-major order.
func (a *Array) Data() []float64 { return a.data }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := New(a.shape...)
	copy(out.data, a.data)
	return out
}

// Fill sets every element to v.
func (a *Array) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Offset converts a multi-index into a flat position in Data.
func (a *Array) Offset(idx ...int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("nd: index rank %d does not match array rank %d", len(idx), len(a.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("nd: index %v out of range for shape %v", idx, a.shape))
		}
		off += v * a.stride[i]
	}
	return off
}

// At returns the element at the multi-index.
func (a *Array) At(idx ...int) float64 { return a.data[a.Offset(idx...)] }

// Set stores v at the multi-index.
func (a *Array) Set(v float64, idx ...int) { a.data[a.Offset(idx...)] = v }

// SignalShape returns the trailing two dimensions. Panics for rank < 2.
func (a *Array) SignalShape() (h, w int) {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("nd: signal shape undefined for rank %d", len(a.shape)))
	}
	return a.shape[len(a.shape)-2], a.shape[len(a.shape)-1]
}

// NavShape returns the leading (navigation) dimensions, which may be empty
// for a bare frame.
func (a *Array) NavShape() []int {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("nd: nav shape undefined for rank %d", len(a.shape)))
	}
	return a.shape[:len(a.shape)-2]
}

// Frame returns the rank-2 view at the given navigation index. The view
// shares the parent's backing slice.
func (a *Array) Frame(navIdx ...int) *Array {
	h, w := a.SignalShape()
	if len(navIdx) != len(a.shape)-2 {
		panic(fmt.Sprintf("nd: nav index %v does not match nav rank %d", navIdx, len(a.shape)-2))
	}
	off := 0
	for i, v := range navIdx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("nd: nav index %v out of range for shape %v", navIdx, a.shape))
		}
		off += v * a.stride[i]
	}
	return wrap([]int{h, w}, a.data[off:off+h*w])
}

// SetFrame copies a rank-2 frame into the given navigation position.
func (a *Array) SetFrame(f *Array, navIdx ...int) {
	dst := a.Frame(navIdx...)
	h, w := dst.SignalShape()
	fh, fw := f.SignalShape()
	if fh != h || fw != w {
		panic(fmt.Sprintf("nd: frame shape %v does not match signal shape [%d %d]", f.shape, h, w))
	}
	copy(dst.data, f.data)
}

// Mat returns a gonum dense-matrix view of a rank-2 array. The matrix shares
// the array's backing slice.
func (a *Array) Mat() *mat.Dense {
	if len(a.shape) != 2 {
		panic(fmt.Sprintf("nd: Mat requires rank 2, got shape %v", a.shape))
	}
	return mat.NewDense(a.shape[0], a.shape[1], a.data)
}

// Max returns the largest element. Returns 0 for an empty array.
func (a *Array) Max() float64 {
	if len(a.data) == 0 {
		return 0
	}
	m := a.data[0]
	for _, v := range a.data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Sum returns the sum of all elements.
func (a *Array) Sum() float64 {
	s := 0.0
	for _, v := range a.data {
		s += v
	}
	return s
}

// Scale multiplies every element by v in place.
func (a *Array) Scale(v float64) {
	for i := range a.data {
		a.data[i] *= v
	}
}

// Roll returns a copy with elements shifted by the given amount along one
// axis, wrapping around like a circular buffer. Negative axes count from the
// end, matching the slicing convention used across the package.
func (a *Array) Roll(shift, axis int) *Array {
	if axis < 0 {
		axis += len(a.shape)
	}
	if axis < 0 || axis >= len(a.shape) {
		panic(fmt.Sprintf("nd: roll axis out of range for rank %d", len(a.shape)))
	}
	n := a.shape[axis]
	out := New(a.shape...)
	if n == 0 {
		return out
	}
	shift = ((shift % n) + n) % n
	ForEachIndex(a.shape, func(idx []int) {
		src := append([]int(nil), idx...)
		src[axis] = (idx[axis] - shift + n) % n
		out.data[out.Offset(idx...)] = a.data[a.Offset(src...)]
	})
	return out
}

// EqualShape reports whether two shapes are identical.
func EqualShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ShapeSize returns the element count of a shape.
func ShapeSize(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
