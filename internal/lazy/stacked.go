package lazy

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/nd"
)

// MapBlocksStacked registers fn as the unit of work for every block of a,
// declaring an output contract where the two signal axes are dropped and a
// new leading axis of the given length is prepended: the result shape is
// [lead, nav...] and its navigation block layout mirrors a's exactly. The
// returned block must be shaped [lead, blockNav...]. The input must already
// be partitioned so no block splits a frame; callers rechunk before building
// the node.
func MapBlocksStacked(op string, a *Array, lead int, fn BlockFunc) *Array {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("lazy: stacked map requires rank >= 2, got shape %v", a.shape))
	}
	if !a.chunks.signalWhole() {
		panic(fmt.Sprintf("lazy: stacked map requires whole-frame blocks, chunks %v", a.chunks))
	}
	navRank := len(a.shape) - 2
	outShape := append([]int{lead}, a.shape[:navRank]...)
	outChunks := append(Chunks{[]int{lead}}, a.chunks[:navRank].clone()...)
	parent := a
	return &Array{
		name:   token(op),
		shape:  outShape,
		chunks: outChunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			pidx := append(append([]int(nil), idx[1:]...), 0, 0)
			block, err := parent.fetch(ctx, pidx)
			if err != nil {
				return nil, err
			}
			info := BlockInfo{Index: pidx, Offsets: parent.chunks.BlockOffsets(pidx)}
			out, err := fn(ctx, block, info)
			if err != nil {
				return nil, fmt.Errorf("%s: block %v: %w", op, idx, err)
			}
			want := append([]int{lead}, block.NavShape()...)
			if !nd.EqualShape(out.Shape(), want) {
				return nil, fmt.Errorf("%s: block %v: function returned shape %v, want %v",
					op, idx, out.Shape(), want)
			}
			return out, nil
		},
	}
}
