package nd

// ForEachIndex walks every multi-index of the given shape in row-major
// order. The index slice passed to fn is reused between calls; callers that
// retain it must copy it first. A zero-length shape yields a single empty
// index, matching the convention that a rank-0 navigation space still holds
// exactly one frame.
func ForEachIndex(shape []int, fn func(idx []int)) {
	for _, n := range shape {
		if n == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		i := len(shape) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
