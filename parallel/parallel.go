// Package parallel provides functions for expressing data-parallel
// algorithms: loops over index ranges, reductions, and filters.
//
// Every function consults concurrency.HasConcurrency at the start of
// each call. If it reports false, the function runs sequentially on
// the calling goroutine, with the same results as the functions in
// package sequential. Otherwise the range is split recursively, and the
// pieces are executed on a bounded set of goroutines (see
// concurrency.Limit).
//
// All functions are synchronous: they return only when all work they
// started has terminated. None of them can be cancelled. If a function
// passed to them panics, the panic is recovered on the goroutine that
// executed it and re-raised on the goroutine that called into this
// package.
package parallel

import (
	"github.com/exascience/tokwork"
	"github.com/exascience/tokwork/concurrency"
	"github.com/exascience/tokwork/internal"
)

// Do receives zero or more thunks and executes them in parallel.
//
// Do returns only when all thunks have terminated. If one or more
// thunks panic, Do eventually panics with the left-most recovered panic
// value.
func Do(thunks ...tokwork.Thunk) {
	switch len(thunks) {
	case 0:
		return
	case 1:
		thunks[0]()
		return
	}
	if !concurrency.HasConcurrency() {
		for _, thunk := range thunks {
			thunk()
		}
		return
	}
	var do func([]tokwork.Thunk)
	do = func(thunks []tokwork.Thunk) {
		switch len(thunks) {
		case 1:
			thunks[0]()
		case 2:
			internal.Fork(thunks[0], thunks[1])
		default:
			half := len(thunks) / 2
			internal.Fork(
				func() { do(thunks[:half]) },
				func() { do(thunks[half:]) },
			)
		}
	}
	do(thunks)
}

/*
For invokes body for subranges that together cover the half-open
interval from 0 to n, each index exactly once. Subranges never
overlap.

Subranges are at least grain indices long, except when n itself is
smaller than grain. A grain of 0 or less means 1. For picks larger
subranges on its own when the range is large compared to the
concurrency limit.

If concurrency.HasConcurrency reports false, For calls body(0, n)
once on the calling goroutine. For returns immediately if n is 0, and
panics if n < 0.
*/
func For(n, grain int, body tokwork.RangeFunc) {
	leaf := internal.LeafSize(n, grain)
	if n == 0 {
		return
	}
	if !concurrency.HasConcurrency() {
		body(0, n)
		return
	}
	internal.Split(0, n, leaf, body)
}

/*
ForEach invokes f once for every element of items, possibly in
parallel, using the same partitioning as For with a grain size of 1.
*/
func ForEach[E any](items []E, f func(item E)) {
	For(len(items), 1, func(low, high int) {
		for _, item := range items[low:high] {
			f(item)
		}
	})
}

/*
Reduce folds the half-open interval from 0 to n into a single value.

The range is split like in For. Each leaf subrange is folded by loop,
starting from identity, and the partial results are combined pairwise
by join as the recursion unwinds. The left operand of join always
covers lower indices than the right operand.

join must be associative and identity must be an identity element of
join, otherwise the result depends on how the range was split. This
includes floating-point addition, for which results may differ
slightly between runs with different concurrency limits or grain
sizes. identity is passed to every leaf, so it must not be mutated by
loop.

If n is 0, Reduce returns identity without calling loop or join. If
concurrency.HasConcurrency reports false, Reduce returns
loop(0, n, identity) and never calls join. Reduce panics if n < 0.
*/
func Reduce[V any](
	identity V,
	n, grain int,
	loop tokwork.FoldFunc[V],
	join tokwork.JoinFunc[V],
) V {
	leaf := internal.LeafSize(n, grain)
	if n == 0 {
		return identity
	}
	if !concurrency.HasConcurrency() {
		return loop(0, n, identity)
	}
	var recur func(int, int) V
	recur = func(low, high int) V {
		if high-low < 2*leaf {
			return loop(low, high, identity)
		}
		mid := low + (high-low)/2
		var left, right V
		internal.Fork(
			func() { left = recur(low, mid) },
			func() { right = recur(mid, high) },
		)
		return join(left, right)
	}
	return recur(0, n)
}
