// Package frame implements the single-frame algorithm catalogue: peak
// finding, template matching, background removal, centre of mass, peak
// intensity sampling and subpixel refinement. Every function here operates
// on one 2-D detector frame; the chunked engine in internal/process invokes
// them once per navigation index.
//
// Coordinate convention: Peak.X is the row index and Peak.Y the column
// index of the detector plane, matching the order the blob detectors emit.
// Conversion to calibrated (x, y) axis order happens at the signal layer.
package frame

import (
	"github.com/pc494/pycrystem/internal/nd"
)

// Peak is one detected diffraction spot. Coordinates are integer-valued
// straight out of detection and fractional after refinement.
type Peak struct {
	X float64 // row
	Y float64 // column
}

// PeakIntensity is a located peak with its sampled intensity.
type PeakIntensity struct {
	X         float64
	Y         float64
	Intensity float64
}

// Disk returns a binary disk template of the given radius: a
// (2r+1)×(2r+1) frame holding 1 inside x²+y² ≤ r² and 0 outside.
func Disk(radius int) *nd.Array {
	if radius < 0 {
		panic("frame: negative disk radius")
	}
	n := 2*radius + 1
	d := nd.New(n, n)
	r2 := float64(radius * radius)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dy := float64(i - radius)
			dx := float64(j - radius)
			if dy*dy+dx*dx <= r2 {
				d.Set(1, i, j)
			}
		}
	}
	return d
}

// Centroid returns the intensity-weighted centre of a frame as (row, col),
// normalising by total intensity first. A frame with zero total intensity
// yields the unweighted convention of the original: the marginals are used
// as-is without normalisation.
func Centroid(f *nd.Array) (r, c float64) {
	h, w := f.SignalShape()
	total := f.Sum()
	inv := 1.0
	if total != 0 {
		inv = 1 / total
	}
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			v := f.At(i, j) * inv
			r += v * float64(i)
			c += v * float64(j)
		}
	}
	return r, c
}

// ExtractSquare copies the squareSize-sided window whose centre sits at the
// integer-truncated peak position. It returns nil when the window would run
// off the frame; callers treat that as a degenerate window and fall back to
// a neutral result rather than failing.
func ExtractSquare(f *nd.Array, p Peak, squareSize int) *nd.Array {
	h, w := f.SignalShape()
	half := squareSize / 2
	r0 := int(p.X) - half
	c0 := int(p.Y) - half
	if r0 < 0 || c0 < 0 || r0+squareSize > h || c0+squareSize > w {
		return nil
	}
	return f.Slice(nd.Range{Start: r0, Stop: r0 + squareSize}, nd.Range{Start: c0, Stop: c0 + squareSize})
}

// PeakIntensities samples the mean intensity under a disk mask of radius
// diskRadius centred at each integer-truncated peak position. The mean is
// taken over the whole bounding square with off-disk pixels zeroed, as the
// original does. Peaks closer to the border than diskRadius+1 get
// intensity 0.
func PeakIntensities(f *nd.Array, peaks []Peak, diskRadius int) []PeakIntensity {
	h, w := f.SignalShape()
	mask := Disk(diskRadius)
	n := 2*diskRadius + 1
	out := make([]PeakIntensity, len(peaks))
	for i, p := range peaks {
		cx := int(p.X)
		cy := int(p.Y)
		out[i] = PeakIntensity{X: p.X, Y: p.Y}
		if cx-diskRadius < 0 || cx+diskRadius+1 >= h || cy-diskRadius < 0 || cy+diskRadius+1 >= w {
			continue
		}
		sum := 0.0
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				sum += mask.At(r, c) * f.At(cx-diskRadius+r, cy-diskRadius+c)
			}
		}
		out[i].Intensity = sum / float64(n*n)
	}
	return out
}

// RefinePeaksCOM refines peak positions to subpixel precision using the
// centre of mass of a squareSize-sided window around each peak. The window's
// top row and left column are zeroed so the remaining support is symmetric
// around the unrefined peak, then the centroid offset relative to the window
// centre is added to the original coordinate. squareSize must be even.
// Peaks whose window runs off the frame pass through unchanged.
func RefinePeaksCOM(f *nd.Array, peaks []Peak, squareSize int) []Peak {
	if len(peaks) == 0 {
		return peaks
	}
	half := float64(squareSize) / 2
	out := make([]Peak, len(peaks))
	for i, p := range peaks {
		sq := ExtractSquare(f, p, squareSize)
		if sq == nil {
			out[i] = p
			continue
		}
		zeroEdges(sq)
		cr, cc := Centroid(sq)
		out[i] = Peak{X: p.X + (cr - half), Y: p.Y + (cc - half)}
	}
	return out
}

// zeroEdges clears a window's first row and first column.
func zeroEdges(sq *nd.Array) {
	h, w := sq.SignalShape()
	for j := 0; j < w; j++ {
		sq.Set(0, 0, j)
	}
	for i := 0; i < h; i++ {
		sq.Set(0, i, 0)
	}
}
