// Package lazy implements the chunked, deferred-execution engine. An Array
// is a declarative graph node: constructing one never touches pixel data.
// Blocks are pulled through the graph only when a caller materialises the
// result with Compute, at which point every block becomes one independent
// task handed to a pluggable Scheduler.
//
// Blocks share no mutable state. Each task writes a disjoint, index-addressed
// region of the output, so correctness never depends on execution order.
package lazy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/pc494/pycrystem/internal/nd"
)

// BlockInfo identifies one block inside the chunk grid.
type BlockInfo struct {
	// Index is the block coordinate in the chunk grid.
	Index []int
	// Offsets is the element offset of the block origin in the full array.
	Offsets []int
}

// BlockFunc transforms one dense block. The returned block must have the
// same shape as the input block.
type BlockFunc func(ctx context.Context, block *nd.Array, info BlockInfo) (*nd.Array, error)

type fetchFunc func(ctx context.Context, idx []int) (*nd.Array, error)

// Array is a lazily evaluated chunked numeric array.
type Array struct {
	name   string
	shape  []int
	chunks Chunks
	fetch  fetchFunc
}

// token builds a graph key: operation name plus a short unique
// suffix, handy when several nodes of the same kind appear in one graph.
func token(op string) string {
	return op + "-" + uuid.NewString()[:8]
}

// FromDense wraps an in-memory array as a lazy source partitioned into
// blocks of the given per-axis size. Zero or negative sizes span the whole
// axis, as does omitting the block shape entirely.
func FromDense(src *nd.Array, blockShape ...int) *Array {
	if len(blockShape) == 0 {
		blockShape = make([]int, src.Rank())
	}
	chunks := UniformChunks(src.Shape(), blockShape)
	return &Array{
		name:   token("source"),
		shape:  append([]int(nil), src.Shape()...),
		chunks: chunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			offsets := chunks.BlockOffsets(idx)
			blockShape := chunks.BlockShape(idx)
			ranges := make([]nd.Range, len(offsets))
			for axis := range offsets {
				ranges[axis] = nd.Range{Start: offsets[axis], Stop: offsets[axis] + blockShape[axis]}
			}
			return src.Slice(ranges...), nil
		},
	}
}

// Name returns the node's graph token.
func (a *Array) Name() string { return a.name }

// Shape returns the logical array shape.
func (a *Array) Shape() []int { return a.shape }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Chunks returns the chunk layout.
func (a *Array) Chunks() Chunks { return a.chunks }

// SignalWhole reports whether no block splits a detector frame.
func (a *Array) SignalWhole() bool { return a.chunks.signalWhole() }

// blockIndices enumerates the chunk grid in row-major order.
func (a *Array) blockIndices() [][]int {
	return gridIndices(a.chunks.NumBlocks())
}

func gridIndices(grid []int) [][]int {
	var out [][]int
	nd.ForEachIndex(grid, func(idx []int) {
		out = append(out, append([]int(nil), idx...))
	})
	return out
}

// RechunkSignalWhole re-partitions so every chunk spans the entire extent of
// the two signal axes while keeping the caller's navigation-axis boundaries
// untouched. Re-partitioning an array that already satisfies the invariant
// is a no-op returning the receiver. Panics for rank < 2; callers validate
// rank before building graph nodes.
func (a *Array) RechunkSignalWhole() *Array {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("lazy: rechunk requires rank >= 2, got shape %v", a.shape))
	}
	if a.chunks.signalWhole() {
		return a
	}
	navRank := len(a.shape) - 2
	newChunks := a.chunks.clone()
	newChunks[navRank] = []int{a.shape[navRank]}
	newChunks[navRank+1] = []int{a.shape[navRank+1]}

	parent := a
	sigGrid := []int{len(parent.chunks[navRank]), len(parent.chunks[navRank+1])}
	return &Array{
		name:   token("rechunk"),
		shape:  a.shape,
		chunks: newChunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			out := nd.New(newChunks.BlockShape(idx)...)
			offsets := make([]int, len(idx))
			for si := 0; si < sigGrid[0]; si++ {
				for sj := 0; sj < sigGrid[1]; sj++ {
					pidx := append(append([]int(nil), idx[:navRank]...), si, sj)
					part, err := parent.fetch(ctx, pidx)
					if err != nil {
						return nil, err
					}
					poff := parent.chunks.BlockOffsets(pidx)
					for axis := range offsets {
						offsets[axis] = 0
					}
					offsets[navRank] = poff[navRank]
					offsets[navRank+1] = poff[navRank+1]
					out.WriteRegion(part, offsets)
				}
			}
			return out, nil
		},
	}
}

// MapBlocks registers fn as the unit of work for every block, preserving
// shape and chunk layout. Nothing executes until Compute.
func (a *Array) MapBlocks(op string, fn BlockFunc) *Array {
	parent := a
	return &Array{
		name:   token(op),
		shape:  a.shape,
		chunks: a.chunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			block, err := parent.fetch(ctx, idx)
			if err != nil {
				return nil, err
			}
			info := BlockInfo{Index: idx, Offsets: parent.chunks.BlockOffsets(idx)}
			out, err := fn(ctx, block, info)
			if err != nil {
				return nil, fmt.Errorf("%s: block %v: %w", op, idx, err)
			}
			if !nd.EqualShape(out.Shape(), block.Shape()) {
				return nil, fmt.Errorf("%s: block %v: function returned shape %v, want %v",
					op, idx, out.Shape(), block.Shape())
			}
			return out, nil
		},
	}
}

// SumNav reduces over every navigation axis, producing a lazy signal-shaped
// array. The output keeps the parent's signal-axis chunk boundaries; each
// output block accumulates the matching signal region of every navigation
// block.
func (a *Array) SumNav() *Array {
	if len(a.shape) < 2 {
		panic(fmt.Sprintf("lazy: nav sum requires rank >= 2, got shape %v", a.shape))
	}
	navRank := len(a.shape) - 2
	parent := a
	navGrid := parent.chunks.NumBlocks()[:navRank]
	sigChunks := Chunks{
		append([]int(nil), parent.chunks[navRank]...),
		append([]int(nil), parent.chunks[navRank+1]...),
	}
	return &Array{
		name:   token("sum-nav"),
		shape:  append([]int(nil), a.shape[navRank:]...),
		chunks: sigChunks,
		fetch: func(ctx context.Context, idx []int) (*nd.Array, error) {
			out := nd.New(sigChunks.BlockShape(idx)...)
			var ferr error
			nd.ForEachIndex(navGrid, func(nav []int) {
				if ferr != nil {
					return
				}
				pidx := append(append([]int(nil), nav...), idx[0], idx[1])
				part, err := parent.fetch(ctx, pidx)
				if err != nil {
					ferr = err
					return
				}
				sumNavInto(out, part)
			})
			if ferr != nil {
				return nil, ferr
			}
			return out, nil
		},
	}
}

// sumNavInto accumulates every frame of block into acc. For a rank-2 block
// the block itself is the single frame.
func sumNavInto(acc, block *nd.Array) {
	nd.ForEachIndex(block.NavShape(), func(nav []int) {
		floats.Add(acc.Data(), block.Frame(nav...).Data())
	})
}

// ComputeWith materialises the array using the given scheduler. Every block
// becomes one task; outputs land in disjoint regions of the result. This is
// the only point at which the calling goroutine blocks on block execution.
func (a *Array) ComputeWith(ctx context.Context, sched Scheduler) (*nd.Array, error) {
	out := nd.New(a.shape...)
	indices := a.blockIndices()
	tasks := make([]Task, 0, len(indices))
	for _, idx := range indices {
		tasks = append(tasks, func(ctx context.Context) error {
			block, err := a.fetch(ctx, idx)
			if err != nil {
				return fmt.Errorf("%s: block %v: %w", a.name, idx, err)
			}
			out.WriteRegion(block, a.chunks.BlockOffsets(idx))
			return nil
		})
	}
	if err := sched.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}

// Compute materialises with the default scheduler.
func (a *Array) Compute(ctx context.Context) (*nd.Array, error) {
	return a.ComputeWith(ctx, DefaultScheduler())
}
