package process

import (
	"context"

	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
)

// forEachFrame iterates every navigation index inside one whole-frame block,
// invoking fn with the local navigation index and the frame at it. A rank-2
// block is treated as a single frame with an empty navigation index.
func forEachFrame(block *nd.Array, fn func(nav []int, f *nd.Array)) {
	nd.ForEachIndex(block.NavShape(), func(nav []int) {
		fn(nav, block.Frame(nav...))
	})
}

// mapFrames builds the dense frame-to-frame pipeline shared by template
// matching and the background removers: rechunk so every block holds whole
// frames, then apply fn to each frame and write the result into the same
// position of a like-shaped output block.
func mapFrames(op string, a *lazy.Array, fn func(f *nd.Array) *nd.Array) *lazy.Array {
	return a.RechunkSignalWhole().MapBlocks(op,
		func(ctx context.Context, block *nd.Array, info lazy.BlockInfo) (*nd.Array, error) {
			out := nd.New(block.Shape()...)
			forEachFrame(block, func(nav []int, f *nd.Array) {
				out.SetFrame(fn(f), nav...)
			})
			return out, nil
		})
}

// MapFrames applies fn to every detector frame, producing a lazy array of
// the input's shape. This is the generic per-position mapping operation the
// signal layer builds on; the catalogue operations above are specialised
// versions of it.
func MapFrames(op string, a *lazy.Array, fn func(f *nd.Array) *nd.Array) (*lazy.Array, error) {
	if err := validateMinRank(a, 2); err != nil {
		return nil, err
	}
	return mapFrames(op, a, fn), nil
}

// absoluteNav converts a block-local navigation index to the array-global
// one using the block's element offsets.
func absoluteNav(info lazy.BlockInfo, nav []int) []int {
	abs := make([]int, len(nav))
	for i := range nav {
		abs[i] = info.Offsets[i] + nav[i]
	}
	return abs
}
