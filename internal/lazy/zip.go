package lazy

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/nd"
)

// ZipBlockFunc combines two aligned blocks. The returned block must have
// the blocks' shared shape.
type ZipBlockFunc func(ctx context.Context, a, b *nd.Array, info BlockInfo) (*nd.Array, error)

// ZipBlocks registers fn as the unit of work over the matching blocks of
// two arrays with identical shape and chunk layout, so every task pulls one
// block from each input. Panics on mismatched layouts; the callers combine
// arrays derived from a common parent, which share layout by construction.
func ZipBlocks(op string, a, b *Array, fn ZipBlockFunc) *Array {
	if !nd.EqualShape(a.shape, b.shape) || !a.chunks.Equal(b.chunks) {
		panic(fmt.Sprintf("lazy: zip over mismatched layouts: %v %v vs %v %v",
			a.shape, a.chunks, b.shape, b.chunks))
	}
	return &Array{
		name:   token(op),
		shape:  append([]int(nil), a.shape...),
		chunks: a.chunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			left, err := a.fetch(ctx, idx)
			if err != nil {
				return nil, err
			}
			right, err := b.fetch(ctx, idx)
			if err != nil {
				return nil, err
			}
			info := BlockInfo{Index: idx, Offsets: a.chunks.BlockOffsets(idx)}
			out, err := fn(ctx, left, right, info)
			if err != nil {
				return nil, fmt.Errorf("%s: block %v: %w", op, idx, err)
			}
			if !nd.EqualShape(out.Shape(), left.Shape()) {
				return nil, fmt.Errorf("%s: block %v: function returned shape %v, want %v",
					op, idx, out.Shape(), left.Shape())
			}
			return out, nil
		},
	}
}
