package sort

import (
	"sort"

	"github.com/exascience/tokwork/concurrency"
	"github.com/exascience/tokwork/parallel"
)

const qsortGrainSize = 0x500

/*
A type, typically a collection, that satisfies sort.Sorter can be
sorted by Sort in this package. The methods require that (ranges of)
elements of the collection can be enumerated by integer indices.
*/
type Sorter interface {
	SequentialSorter
	sort.Interface
}

func medianOfThree(data sort.Interface, l, m, r int) int {
	if data.Less(l, m) {
		if data.Less(m, r) {
			return m
		} else if data.Less(l, r) {
			return r
		}
	} else if data.Less(r, m) {
		return m
	} else if data.Less(r, l) {
		return r
	}
	return l
}

func pseudoMedianOfNine(data sort.Interface, index, size int) int {
	offset := size / 8
	return medianOfThree(data,
		medianOfThree(data, index, index+offset, index+offset*2),
		medianOfThree(data, index+offset*3, index+offset*4, index+offset*5),
		medianOfThree(data, index+offset*6, index+offset*7, index+size-1),
	)
}

// partition moves the pseudo median of nine of data[index:index+size]
// to its final position p, with no element greater than it to its left
// and no element less than it to its right, and returns p.
func partition(data sort.Interface, index, size int) int {
	m := pseudoMedianOfNine(data, index, size)
	if m > index {
		data.Swap(index, m)
	}
	i, j := index, index+size
outer:
	for {
		for {
			j--
			if !data.Less(index, j) {
				break
			}
		}
		for {
			if i == j {
				break outer
			}
			i++
			if !data.Less(i, index) {
				break
			}
		}
		if i == j {
			break outer
		}
		data.Swap(i, j)
	}
	data.Swap(j, index)
	return j
}

/*
Sort sorts data in place, in increasing order as determined by its
Less method. The sort is not stable.

If concurrency.HasConcurrency reports false, or data is small, Sort
calls data.SequentialSort(0, data.Len()). Otherwise it uses a
parallel quicksort that falls back to SequentialSort for small
partitions.
*/
func Sort(data Sorter) {
	size := data.Len()
	sSort := data.SequentialSort
	if size < qsortGrainSize || !concurrency.HasConcurrency() {
		sSort(0, size)
		return
	}
	var pSort func(int, int)
	pSort = func(index, size int) {
		if size < qsortGrainSize {
			sSort(index, index+size)
			return
		}
		j := partition(data, index, size)
		i := j + 1
		parallel.Do(
			func() { pSort(index, j-index) },
			func() { pSort(i, index+size-i) },
		)
	}
	if !IsSorted(data) {
		pSort(0, size)
	}
}
