package lazy

import (
	"context"
	"fmt"

	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/ragged"
)

// RaggedBlockFunc transforms one dense block into a navigation-shaped ragged
// block. The returned table's shape must equal the block's navigation shape.
type RaggedBlockFunc[T any] func(ctx context.Context, block *nd.Array, info BlockInfo) (*ragged.Table[T], error)

// Ragged is a lazily evaluated navigation-shaped collection of per-position
// variable-length results: the signal axes are absent from its shape
// entirely, and each cell of the materialised table holds one independent
// record list.
type Ragged[T any] struct {
	name   string
	shape  []int // navigation shape
	chunks Chunks
	fetch  func(ctx context.Context, idx []int) (*ragged.Table[T], error)
}

// MapBlocksRagged registers fn as the unit of work for every block of a,
// declaring a dropped-signal-axes output contract: the result's navigation
// block layout mirrors a's exactly. The input must already be partitioned so
// no block splits a frame; callers rechunk before building the node.
func MapBlocksRagged[T any](op string, a *Array, fn RaggedBlockFunc[T]) *Ragged[T] {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("lazy: ragged map requires rank >= 2, got shape %v", a.shape))
	}
	if !a.chunks.signalWhole() {
		panic(fmt.Sprintf("lazy: ragged map requires whole-frame blocks, chunks %v", a.chunks))
	}
	navRank := len(a.shape) - 2
	navChunks := a.chunks[:navRank].clone()
	parent := a
	return &Ragged[T]{
		name:   token(op),
		shape:  append([]int(nil), a.shape[:navRank]...),
		chunks: navChunks,
		fetch: func(ctx context.Context, idx []int) (*ragged.Table[T], error) {
			pidx := append(append([]int(nil), idx...), 0, 0)
			block, err := parent.fetch(ctx, pidx)
			if err != nil {
				return nil, err
			}
			info := BlockInfo{Index: pidx, Offsets: parent.chunks.BlockOffsets(pidx)}
			out, err := fn(ctx, block, info)
			if err != nil {
				return nil, fmt.Errorf("%s: block %v: %w", op, idx, err)
			}
			if !nd.EqualShape(out.Shape(), block.NavShape()) {
				return nil, fmt.Errorf("%s: block %v: function returned nav shape %v, want %v",
					op, idx, out.Shape(), block.NavShape())
			}
			return out, nil
		},
	}
}

// Name returns the node's graph token.
func (r *Ragged[T]) Name() string { return r.name }

// Shape returns the navigation shape.
func (r *Ragged[T]) Shape() []int { return r.shape }

// ComputeWith materialises the ragged result using the given scheduler.
func (r *Ragged[T]) ComputeWith(ctx context.Context, sched Scheduler) (*ragged.Table[T], error) {
	out := ragged.NewTable[T](r.shape...)
	indices := gridIndices(r.chunks.NumBlocks())
	tasks := make([]Task, 0, len(indices))
	for _, idx := range indices {
		tasks = append(tasks, func(ctx context.Context) error {
			table, err := r.fetch(ctx, idx)
			if err != nil {
				return fmt.Errorf("%s: block %v: %w", r.name, idx, err)
			}
			out.WriteRegion(table, r.chunks.BlockOffsets(idx))
			return nil
		})
	}
	if err := sched.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}

// Compute materialises with the default scheduler.
func (r *Ragged[T]) Compute(ctx context.Context) (*ragged.Table[T], error) {
	return r.ComputeWith(ctx, DefaultScheduler())
}
