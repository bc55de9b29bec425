package frame

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pc494/pycrystem/internal/nd"
)

// Default peak-finder settings. Tuned for convergent-beam diffraction
// patterns; override per call through the option structs.
const (
	DefaultPeakMinSigma   = 0.98
	DefaultPeakMaxSigma   = 55.0
	DefaultPeakSigmaRatio = 1.76
	DefaultPeakNumSigma   = 10
	DefaultPeakThreshold  = 0.36
	DefaultPeakOverlap    = 0.81
)

// DOGOptions configures the difference-of-Gaussians peak finder. The zero
// value means "all defaults"; NormalizeValue 0 divides by the frame maximum.
type DOGOptions struct {
	MinSigma       float64
	MaxSigma       float64
	SigmaRatio     float64
	Threshold      float64
	Overlap        float64
	NormalizeValue float64
}

func (o *DOGOptions) applyDefaults() {
	if o.MinSigma == 0 {
		o.MinSigma = DefaultPeakMinSigma
	}
	if o.MaxSigma == 0 {
		o.MaxSigma = DefaultPeakMaxSigma
	}
	if o.SigmaRatio == 0 {
		o.SigmaRatio = DefaultPeakSigmaRatio
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultPeakThreshold
	}
	if o.Overlap == 0 {
		o.Overlap = DefaultPeakOverlap
	}
}

// LOGOptions configures the Laplacian-of-Gaussian peak finder. The zero
// value means "all defaults"; NormalizeValue 0 divides by the frame maximum.
type LOGOptions struct {
	MinSigma       float64
	MaxSigma       float64
	NumSigma       int
	Threshold      float64
	Overlap        float64
	NormalizeValue float64
}

func (o *LOGOptions) applyDefaults() {
	if o.MinSigma == 0 {
		o.MinSigma = DefaultPeakMinSigma
	}
	if o.MaxSigma == 0 {
		o.MaxSigma = DefaultPeakMaxSigma
	}
	if o.NumSigma == 0 {
		o.NumSigma = DefaultPeakNumSigma
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultPeakThreshold
	}
	if o.Overlap == 0 {
		o.Overlap = DefaultPeakOverlap
	}
}

// blob is an internal detection candidate in (row, col, sigma) space.
type blob struct {
	r, c  int
	sigma float64
	value float64
}

// FindPeaksDOG locates diffraction spots with a difference-of-Gaussians
// scale stack. The frame is divided by the normalisation value before
// detection; a frame whose normalisation value is zero yields no peaks.
func FindPeaksDOG(f *nd.Array, opts DOGOptions) []Peak {
	opts.applyDefaults()
	norm := opts.NormalizeValue
	if norm == 0 {
		norm = mat.Max(f.Mat())
	}
	if norm == 0 {
		return []Peak{}
	}
	img := f.Clone()
	img.Scale(1 / norm)

	k := int(math.Log(opts.MaxSigma/opts.MinSigma)/math.Log(opts.SigmaRatio)+1) + 1
	sigmas := make([]float64, k)
	for i := range sigmas {
		sigmas[i] = opts.MinSigma * math.Pow(opts.SigmaRatio, float64(i))
	}
	smoothed := make([]*nd.Array, k)
	for i, s := range sigmas {
		smoothed[i] = GaussianFilter(img, s)
	}
	// Scale-normalised stack: layer i is (g_i − g_{i+1})·σ_i.
	stack := make([]*nd.Array, k-1)
	for i := 0; i < k-1; i++ {
		layer := nd.New(f.Shape()...)
		for p := range layer.Data() {
			layer.Data()[p] = (smoothed[i].Data()[p] - smoothed[i+1].Data()[p]) * sigmas[i]
		}
		stack[i] = layer
	}
	return stackPeaks(stack, sigmas, opts.Threshold, opts.Overlap)
}

// FindPeaksLOG locates diffraction spots with a Laplacian-of-Gaussian scale
// stack over linearly spaced sigmas. Same normalisation policy as the DoG
// variant.
func FindPeaksLOG(f *nd.Array, opts LOGOptions) []Peak {
	opts.applyDefaults()
	norm := opts.NormalizeValue
	if norm == 0 {
		norm = mat.Max(f.Mat())
	}
	if norm == 0 {
		return []Peak{}
	}
	img := f.Clone()
	img.Scale(1 / norm)

	n := opts.NumSigma
	sigmas := make([]float64, n)
	if n == 1 {
		sigmas[0] = opts.MinSigma
	} else {
		step := (opts.MaxSigma - opts.MinSigma) / float64(n-1)
		for i := range sigmas {
			sigmas[i] = opts.MinSigma + float64(i)*step
		}
	}
	stack := make([]*nd.Array, n)
	for i, s := range sigmas {
		layer := GaussianLaplace(img, s)
		layer.Scale(-s * s)
		stack[i] = layer
	}
	return stackPeaks(stack, sigmas, opts.Threshold, opts.Overlap)
}

// stackPeaks finds local maxima over a (scale, row, col) stack, then prunes
// overlapping detections.
func stackPeaks(stack []*nd.Array, sigmas []float64, threshold, overlap float64) []Peak {
	blobs := localMaxima(stack, sigmas, threshold)
	blobs = pruneBlobs(blobs, overlap)
	peaks := make([]Peak, 0, len(blobs))
	for _, b := range blobs {
		peaks = append(peaks, Peak{X: float64(b.r), Y: float64(b.c)})
	}
	return peaks
}

// localMaxima returns candidates strictly above threshold that are no
// smaller than all 26 neighbours in the (scale, row, col) volume. Borders
// are not excluded, matching the detectors' behaviour on small frames.
func localMaxima(stack []*nd.Array, sigmas []float64, threshold float64) []blob {
	if len(stack) == 0 {
		return nil
	}
	h, w := stack[0].SignalShape()
	var out []blob
	for s := range stack {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				v := stack[s].At(i, j)
				if v <= threshold {
					continue
				}
				if isLocalMax(stack, s, i, j, v, h, w) {
					out = append(out, blob{r: i, c: j, sigma: sigmas[s], value: v})
				}
			}
		}
	}
	return out
}

func isLocalMax(stack []*nd.Array, s, i, j int, v float64, h, w int) bool {
	for ds := -1; ds <= 1; ds++ {
		ns := s + ds
		if ns < 0 || ns >= len(stack) {
			continue
		}
		for di := -1; di <= 1; di++ {
			ni := i + di
			if ni < 0 || ni >= h {
				continue
			}
			for dj := -1; dj <= 1; dj++ {
				nj := j + dj
				if nj < 0 || nj >= w {
					continue
				}
				if ds == 0 && di == 0 && dj == 0 {
					continue
				}
				if stack[ns].At(ni, nj) > v {
					return false
				}
			}
		}
	}
	return true
}

// pruneBlobs discards the smaller of any two detections whose disk overlap
// fraction exceeds the threshold. Blob radius is σ·√2.
func pruneBlobs(blobs []blob, overlap float64) []blob {
	for i := range blobs {
		for j := i + 1; j < len(blobs); j++ {
			if blobs[i].sigma == 0 || blobs[j].sigma == 0 {
				continue
			}
			if blobOverlap(blobs[i], blobs[j]) > overlap {
				if blobs[i].sigma > blobs[j].sigma {
					blobs[j].sigma = 0
				} else {
					blobs[i].sigma = 0
				}
			}
		}
	}
	out := blobs[:0]
	for _, b := range blobs {
		if b.sigma > 0 {
			out = append(out, b)
		}
	}
	return out
}

// blobOverlap returns the intersection area of two detection disks as a
// fraction of the smaller disk's area.
func blobOverlap(a, b blob) float64 {
	r1 := a.sigma * math.Sqrt2
	r2 := b.sigma * math.Sqrt2
	d := math.Hypot(float64(a.r-b.r), float64(a.c-b.c))
	if d > r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		return 1
	}
	// Circle-circle intersection (lens) area.
	ratio1 := (d*d + r1*r1 - r2*r2) / (2 * d * r1)
	ratio1 = math.Max(-1, math.Min(1, ratio1))
	ratio2 := (d*d + r2*r2 - r1*r1) / (2 * d * r2)
	ratio2 = math.Max(-1, math.Min(1, ratio2))
	area := r1*r1*math.Acos(ratio1) + r2*r2*math.Acos(ratio2) -
		0.5*math.Sqrt(math.Abs((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2)))
	rMin := math.Min(r1, r2)
	return area / (math.Pi * rMin * rMin)
}
