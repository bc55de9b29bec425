package subpixel

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"github.com/pc494/pycrystem/internal/nd"
)

// cmat is a dense complex matrix in row-major layout, the working
// representation for the frequency-domain registration steps.
type cmat struct {
	rows, cols int
	data       []complex128
}

func newCmat(rows, cols int) *cmat {
	return &cmat{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

func (m *cmat) at(i, j int) complex128     { return m.data[i*m.cols+j] }
func (m *cmat) set(i, j int, v complex128) { m.data[i*m.cols+j] = v }

func toComplex(f *nd.Array) *cmat {
	h, w := f.SignalShape()
	out := newCmat(h, w)
	for i, v := range f.Data() {
		out.data[i] = complex(v, 0)
	}
	return out
}

// fft2 computes the 2-D DFT in place, rows first, then columns.
func fft2(m *cmat) {
	rowFFT := fourier.NewCmplxFFT(m.cols)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		rowFFT.Coefficients(row, row)
	}
	colFFT := fourier.NewCmplxFFT(m.rows)
	col := make([]complex128, m.rows)
	for j := 0; j < m.cols; j++ {
		for i := 0; i < m.rows; i++ {
			col[i] = m.at(i, j)
		}
		colFFT.Coefficients(col, col)
		for i := 0; i < m.rows; i++ {
			m.set(i, j, col[i])
		}
	}
}

// ifft2 computes the normalised 2-D inverse DFT in place.
func ifft2(m *cmat) {
	rowFFT := fourier.NewCmplxFFT(m.cols)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		rowFFT.Sequence(row, row)
	}
	colFFT := fourier.NewCmplxFFT(m.rows)
	col := make([]complex128, m.rows)
	for j := 0; j < m.cols; j++ {
		for i := 0; i < m.rows; i++ {
			col[i] = m.at(i, j)
		}
		colFFT.Sequence(col, col)
		for i := 0; i < m.rows; i++ {
			m.set(i, j, col[i])
		}
	}
	scale := complex(1/float64(m.rows*m.cols), 0)
	for i := range m.data {
		m.data[i] *= scale
	}
}

// argmaxAbs returns the position of the largest modulus.
func argmaxAbs(m *cmat) (r, c int) {
	best := -1.0
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if v := cmplx.Abs(m.at(i, j)); v > best {
				best, r, c = v, i, j
			}
		}
	}
	return r, c
}

// fftfreq returns the DFT sample frequencies for n points with the given
// sample spacing, in standard order (non-negative frequencies first).
func fftfreq(n int, d float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		k := i
		if i >= (n+1)/2 {
			k = i - n
		}
		out[i] = float64(k) / (d * float64(n))
	}
	return out
}

// upsampledDFT evaluates the DFT of freq-domain data on an upsampled
// region×region grid starting at the given fractional offsets, by matrix
// multiplication against row and column Fourier kernels.
func upsampledDFT(data *cmat, region, upsample int, offR, offC float64) *cmat {
	freqRow := fftfreq(data.rows, float64(upsample))
	freqCol := fftfreq(data.cols, float64(upsample))

	kr := mat.NewCDense(region, data.rows, nil)
	for u := 0; u < region; u++ {
		for i := 0; i < data.rows; i++ {
			kr.Set(u, i, cmplx.Exp(complex(0, -2*math.Pi*(float64(u)-offR)*freqRow[i])))
		}
	}
	kcT := mat.NewCDense(data.cols, region, nil)
	for j := 0; j < data.cols; j++ {
		for v := 0; v < region; v++ {
			kcT.Set(j, v, cmplx.Exp(complex(0, -2*math.Pi*(float64(v)-offC)*freqCol[j])))
		}
	}
	dm := mat.NewCDense(data.rows, data.cols, append([]complex128(nil), data.data...))

	tmp := mat.NewCDense(region, data.cols, nil)
	prod := mat.NewCDense(region, region, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, kr.RawCMatrix(), dm.RawCMatrix(), 0, tmp.RawCMatrix())
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, tmp.RawCMatrix(), kcT.RawCMatrix(), 0, prod.RawCMatrix())

	out := newCmat(region, region)
	for u := 0; u < region; u++ {
		for v := 0; v < region; v++ {
			out.set(u, v, prod.At(u, v))
		}
	}
	return out
}

// registerTranslation returns the (row, col) shift that moves the target
// image onto the reference, to 1/upsampleFactor pixel precision. This is
// the matrix-multiply upsampled cross-correlation method of Guizar-Sicairos
// et al.; an upsample factor of 1 gives whole-pixel registration.
func registerTranslation(ref, target *nd.Array, upsampleFactor int) (dr, dc float64) {
	h, w := ref.SignalShape()
	f := toComplex(ref)
	g := toComplex(target)
	fft2(f)
	fft2(g)

	prod := newCmat(h, w)
	for i := range prod.data {
		prod.data[i] = f.data[i] * cmplx.Conj(g.data[i])
	}

	cc := newCmat(h, w)
	copy(cc.data, prod.data)
	ifft2(cc)
	mr, mc := argmaxAbs(cc)
	dr = float64(mr)
	dc = float64(mc)
	if mr > h/2 {
		dr -= float64(h)
	}
	if mc > w/2 {
		dc -= float64(w)
	}
	if upsampleFactor <= 1 {
		return dr, dc
	}

	u := float64(upsampleFactor)
	dr = math.Round(dr*u) / u
	dc = math.Round(dc*u) / u
	region := int(math.Ceil(1.5 * u))
	dftshift := float64(region / 2)

	conj := newCmat(h, w)
	for i, v := range prod.data {
		conj.data[i] = cmplx.Conj(v)
	}
	up := upsampledDFT(conj, region, upsampleFactor, dftshift-dr*u, dftshift-dc*u)
	ur, uc := argmaxAbs(up)
	dr += (float64(ur) - dftshift) / u
	dc += (float64(uc) - dftshift) / u
	return dr, dc
}
