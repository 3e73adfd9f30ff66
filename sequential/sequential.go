// Package sequential provides sequential implementations of the
// functions provided by the parallel package. They follow the same
// contracts, but always run on the calling goroutine in a single pass,
// regardless of the concurrency limit. This is useful for testing and
// debugging, and as the reference the parallel implementations are
// checked against.
package sequential

import (
	"fmt"

	"github.com/exascience/tokwork"
)

func checkRange(n int) {
	if n < 0 {
		panic(fmt.Sprintf("invalid range: 0:%v", n))
	}
}

// Do receives zero or more thunks and executes them sequentially, from
// left to right.
func Do(thunks ...tokwork.Thunk) {
	for _, thunk := range thunks {
		thunk()
	}
}

// For calls body(0, n) once, unless n is 0. For panics if n < 0.
func For(n int, body tokwork.RangeFunc) {
	checkRange(n)
	if n > 0 {
		body(0, n)
	}
}

// ForEach invokes f once for every element of items, in order.
func ForEach[E any](items []E, f func(item E)) {
	for _, item := range items {
		f(item)
	}
}

// Reduce returns loop(0, n, identity), or identity if n is 0. join is
// never called; it is accepted so that calls can be switched between
// this package and package parallel. Reduce panics if n < 0.
func Reduce[V any](
	identity V,
	n int,
	loop tokwork.FoldFunc[V],
	_ tokwork.JoinFunc[V],
) V {
	checkRange(n)
	if n == 0 {
		return identity
	}
	return loop(0, n, identity)
}

// FilterN evaluates pred for every index from 0 to n in order, and
// returns the kept values in index order.
func FilterN[V any](n int, pred tokwork.FilterFunc[V]) []V {
	checkRange(n)
	result := make([]V, 0)
	for i := 0; i < n; i++ {
		if v, ok := pred(i); ok {
			result = append(result, v)
		}
	}
	return result
}
