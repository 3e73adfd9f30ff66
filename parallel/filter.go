package parallel

import (
	"github.com/exascience/tokwork"
)

// A run holds the values kept by consecutive leaves of a filter, in
// index order.
type run[V any] struct {
	chunks [][]V
	count  int
}

/*
FilterN evaluates pred once for every index in the half-open interval
from 0 to n, possibly in parallel, and returns the values for which
pred reports true.

The result is in index order: it is identical to what a sequential
loop over 0 to n appending the kept values would produce, regardless
of the concurrency limit or the grain size.

FilterN returns an empty slice if no value is kept.
*/
func FilterN[V any](n, grain int, pred tokwork.FilterFunc[V]) []V {
	kept := Reduce(run[V]{}, n, grain,
		func(low, high int, partial run[V]) run[V] {
			var chunk []V
			for i := low; i < high; i++ {
				if v, ok := pred(i); ok {
					chunk = append(chunk, v)
				}
			}
			if len(chunk) > 0 {
				partial.chunks = append(partial.chunks, chunk)
				partial.count += len(chunk)
			}
			return partial
		},
		func(x, y run[V]) run[V] {
			return run[V]{
				chunks: append(x.chunks, y.chunks...),
				count:  x.count + y.count,
			}
		},
	)
	result := make([]V, kept.count)
	if kept.count == 0 {
		return result
	}
	offsets := make([]int, len(kept.chunks))
	offset := 0
	for i, chunk := range kept.chunks {
		offsets[i] = offset
		offset += len(chunk)
	}
	For(len(kept.chunks), 1, func(low, high int) {
		for i := low; i < high; i++ {
			copy(result[offsets[i]:], kept.chunks[i])
		}
	})
	return result
}
