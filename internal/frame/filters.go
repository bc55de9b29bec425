package frame

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/pc494/pycrystem/internal/nd"
)

// gaussianTruncate is the kernel cut-off in standard deviations.
const gaussianTruncate = 4.0

// reflectIndex maps an out-of-range index into [0, n) with reflect boundary
// handling (d c b a | a b c d | d c b a), valid for any offset magnitude.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// gaussianKernel returns the symmetric 1-D Gaussian kernel for the given
// order (0 = smoothing, 2 = second derivative), indexed -radius..radius.
func gaussianKernel(sigma float64, order int) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	n := 2*radius + 1
	k := make([]float64, n)
	for j := 0; j < n; j++ {
		x := float64(j - radius)
		k[j] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	if order == 2 {
		// Second derivative of the normalised Gaussian:
		// g''(x) = g(x)·(x² − σ²)/σ⁴.
		s2 := sigma * sigma
		for j := 0; j < n; j++ {
			x := float64(j - radius)
			k[j] *= (x*x - s2) / (s2 * s2)
		}
	}
	return k
}

// correlate1D applies a symmetric kernel along one axis of a 2-D frame with
// reflect boundaries. axis 0 runs down rows, axis 1 across columns.
func correlate1D(f *nd.Array, kernel []float64, axis int) *nd.Array {
	h, w := f.SignalShape()
	radius := len(kernel) / 2
	out := nd.New(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			acc := 0.0
			for t, kv := range kernel {
				d := t - radius
				if axis == 0 {
					acc += kv * f.At(reflectIndex(i+d, h), j)
				} else {
					acc += kv * f.At(i, reflectIndex(j+d, w))
				}
			}
			out.Set(acc, i, j)
		}
	}
	return out
}

// GaussianFilter smooths a frame with a separable Gaussian of the given
// sigma, reflect boundary mode, kernel truncated at 4 sigma.
func GaussianFilter(f *nd.Array, sigma float64) *nd.Array {
	k := gaussianKernel(sigma, 0)
	return correlate1D(correlate1D(f, k, 0), k, 1)
}

// GaussianLaplace applies the Laplacian of a Gaussian: the sum of the
// second-derivative-of-Gaussian responses along each axis.
func GaussianLaplace(f *nd.Array, sigma float64) *nd.Array {
	k0 := gaussianKernel(sigma, 0)
	k2 := gaussianKernel(sigma, 2)
	dyy := correlate1D(correlate1D(f, k2, 0), k0, 1)
	dxx := correlate1D(correlate1D(f, k0, 0), k2, 1)
	h, w := f.SignalShape()
	out := nd.New(h, w)
	for i := range out.Data() {
		out.Data()[i] = dyy.Data()[i] + dxx.Data()[i]
	}
	return out
}

// MedianFilter replaces each pixel with the median of the size×size window
// around it, reflect boundary mode.
func MedianFilter(f *nd.Array, size int) *nd.Array {
	if size < 1 {
		size = 1
	}
	h, w := f.SignalShape()
	radius := size / 2
	out := nd.New(h, w)
	window := make([]float64, 0, size*size)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			window = window[:0]
			for di := -radius; di <= size-radius-1; di++ {
				for dj := -radius; dj <= size-radius-1; dj++ {
					window = append(window, f.At(reflectIndex(i+di, h), reflectIndex(j+dj, w)))
				}
			}
			out.Set(median(window), i, j)
		}
	}
	return out
}

// median computes the sample median, averaging the middle pair for even
// counts. Returns NaN for an empty sample, matching the original's
// empty-radial-bin behaviour.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
