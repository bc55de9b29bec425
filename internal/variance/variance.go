// Package variance computes fluctuation-microscopy variance images: the
// normalised variance in scattered intensity per detector pixel across all
// scan positions, with an optional Poisson-noise correction.
package variance

import (
	"context"
	"fmt"
	"math"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// ImageVariance holds the four lazy signal-shaped statistics derived from
// one dataset: the mean pattern, the mean squared pattern, the normalised
// variance (meansq/mean² − 1) and the variance with a dqe/mean Poisson term
// subtracted. Non-finite entries of the corrected variance are zeroed.
type ImageVariance struct {
	Mean              *lazy.Array
	MeanSquare        *lazy.Array
	Variance          *lazy.Array
	CorrectedVariance *lazy.Array
}

// New builds the variance statistics for an array of rank >= 3. The graph
// shares one navigation-sum pass per statistic; nothing executes until a
// field is materialised.
func New(a *lazy.Array, dqe float64) (*ImageVariance, error) {
	if a.Rank() < 3 {
		return nil, fmt.Errorf("variance: rank %d below minimum 3 (shape %v)", a.Rank(), a.Shape())
	}
	navCount := float64(nd.ShapeSize(a.Shape()[:a.Rank()-2]))

	mean := a.SumNav().MapBlocks("mean-pattern", scaleBlock(1/navCount))
	meanSq := a.MapBlocks("square", func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
		out := block.Clone()
		for i, v := range out.Data() {
			out.Data()[i] = v * v
		}
		return out, nil
	}).SumNav().MapBlocks("mean-square-pattern", scaleBlock(1/navCount))

	variance := lazy.ZipBlocks("normalised-variance", meanSq, mean,
		func(ctx context.Context, sq, m *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := nd.New(sq.Shape()...)
			for i := range out.Data() {
				out.Data()[i] = sq.Data()[i]/(m.Data()[i]*m.Data()[i]) - 1
			}
			return out, nil
		})

	corrected := lazy.ZipBlocks("corrected-variance", variance, mean,
		func(ctx context.Context, v, m *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := nd.New(v.Shape()...)
			for i := range out.Data() {
				c := v.Data()[i] - dqe/m.Data()[i]
				if math.IsNaN(c) || math.IsInf(c, 0) {
					c = 0
				}
				out.Data()[i] = c
			}
			return out, nil
		})

	return &ImageVariance{
		Mean:              mean,
		MeanSquare:        meanSq,
		Variance:          variance,
		CorrectedVariance: corrected,
	}, nil
}

func scaleBlock(factor float64) lazy.BlockFunc {
	return func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
		out := block.Clone()
		out.Scale(factor)
		return out, nil
	}
}
