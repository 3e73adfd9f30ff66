/*
Package sort provides a parallel, in-place, unstable sort.

Sort and its slice variants consult concurrency.HasConcurrency. If it
reports false, they sort sequentially; otherwise they use a parallel
quicksort. Both paths order the data according to the comparison, but
neither is stable: the relative order of equal elements is
unspecified, and may differ between the two paths.
*/
package sort

import (
	"cmp"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/exascience/tokwork/concurrency"
	"github.com/exascience/tokwork/parallel"
)

/*
SequentialSorter is a type, typically a collection, that can be
sequentially sorted. This is needed as a base case for the parallel
sorting algorithm in this package. It is recommended to implement
this interface by using the functions in the sort or slices packages
of Go's standard library.
*/
type SequentialSorter interface {
	// Sort the range that starts at index i and ends at index j. If the
	// collection that is represented by this interface is a slice, then
	// the slice expression collection[i:j] returns the correct slice to
	// be sorted.
	SequentialSort(i, j int)
}

// checkInterval is the number of comparisons IsSorted performs between
// checks whether another goroutine has already found an inversion.
const checkInterval = 1024

/*
IsSorted determines in parallel whether data is already sorted. It
attempts to terminate early when the return value is false.
*/
func IsSorted(data sort.Interface) bool {
	size := data.Len()
	if size < qsortGrainSize || !concurrency.HasConcurrency() {
		return sort.IsSorted(data)
	}
	var unsorted atomic.Bool
	parallel.For(size-1, qsortGrainSize, func(low, high int) {
		for i := low + 1; i <= high; i++ {
			if (i%checkInterval) == 0 && unsorted.Load() {
				return
			}
			if data.Less(i, i-1) {
				unsorted.Store(true)
				return
			}
		}
	})
	return !unsorted.Load()
}

// sliceSorter attaches the methods of Sorter to a slice and a
// three-way comparison function.
type sliceSorter[E any] struct {
	s   []E
	cmp func(a, b E) int
}

// SequentialSort implements the method of the SequentialSorter interface.
func (s sliceSorter[E]) SequentialSort(i, j int) {
	slices.SortFunc(s.s[i:j], s.cmp)
}

func (s sliceSorter[E]) Len() int {
	return len(s.s)
}

func (s sliceSorter[E]) Less(i, j int) bool {
	return s.cmp(s.s[i], s.s[j]) < 0
}

func (s sliceSorter[E]) Swap(i, j int) {
	s.s[i], s.s[j] = s.s[j], s.s[i]
}

// Slice sorts a slice of ordered values in increasing order.
func Slice[S ~[]E, E cmp.Ordered](s S) {
	Sort(sliceSorter[E]{s, cmp.Compare[E]})
}

/*
SliceFunc sorts a slice in increasing order as determined by cmp,
which must return a negative number when a < b, a positive number when
a > b, and 0 otherwise, like the comparison functions of the slices
package.
*/
func SliceFunc[S ~[]E, E any](s S, cmp func(a, b E) int) {
	Sort(sliceSorter[E]{s, cmp})
}

/*
SliceIsSorted determines in parallel whether a slice of ordered values
is sorted in increasing order. It attempts to terminate early when the
return value is false.
*/
func SliceIsSorted[S ~[]E, E cmp.Ordered](s S) bool {
	return IsSorted(sliceSorter[E]{s, cmp.Compare[E]})
}

/*
SliceIsSortedFunc determines in parallel whether a slice is sorted in
increasing order as determined by cmp.
*/
func SliceIsSortedFunc[S ~[]E, E any](s S, cmp func(a, b E) int) bool {
	return IsSorted(sliceSorter[E]{s, cmp})
}
