package frame

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pc494/pycrystem/internal/nd"
)

// MatchTemplate slides a template over the frame computing the normalised
// cross-correlation at every position. The output has the frame's shape
// (zero padding outside the borders, response centred on the template) and
// is shifted so its minimum is exactly 0. A window with no variance
// correlates to 0 before the shift.
func MatchTemplate(f, template *nd.Array) *nd.Array {
	h, w := f.SignalShape()
	th, tw := template.SignalShape()

	tMean := mat.Sum(template.Mat()) / float64(th*tw)
	tNorm := 0.0
	tc := nd.New(th, tw)
	for i := 0; i < th; i++ {
		for j := 0; j < tw; j++ {
			v := template.At(i, j) - tMean
			tc.Set(v, i, j)
			tNorm += v * v
		}
	}

	out := nd.New(h, w)
	offR := (th - 1) / 2
	offC := (tw - 1) / 2
	area := float64(th * tw)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			// Window top-left so the template centre lands on (r, c);
			// pixels outside the frame read as zero.
			r0 := r - offR
			c0 := c - offC
			wSum := 0.0
			wSq := 0.0
			for i := 0; i < th; i++ {
				fi := r0 + i
				if fi < 0 || fi >= h {
					continue
				}
				for j := 0; j < tw; j++ {
					fj := c0 + j
					if fj < 0 || fj >= w {
						continue
					}
					v := f.At(fi, fj)
					wSum += v
					wSq += v * v
				}
			}
			wMean := wSum / area
			wVar := wSq - wSum*wSum/area
			denom := math.Sqrt(wVar * tNorm)
			if denom <= 1e-12 {
				continue
			}
			num := 0.0
			for i := 0; i < th; i++ {
				fi := r0 + i
				for j := 0; j < tw; j++ {
					fj := c0 + j
					fv := 0.0
					if fi >= 0 && fi < h && fj >= 0 && fj < w {
						fv = f.At(fi, fj)
					}
					num += tc.At(i, j) * (fv - wMean)
				}
			}
			out.Set(num/denom, r, c)
		}
	}

	floats.AddConst(-floats.Min(out.Data()), out.Data())
	return out
}
