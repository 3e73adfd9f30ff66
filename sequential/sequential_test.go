package sequential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForSingleCall(t *testing.T) {
	var calls [][2]int
	For(12345, func(low, high int) {
		calls = append(calls, [2]int{low, high})
	})
	assert.Equal(t, [][2]int{{0, 12345}}, calls)

	For(0, func(int, int) { t.Fatal("body called for an empty range") })
	assert.Panics(t, func() { For(-1, func(int, int) {}) })
}

func TestDoOrder(t *testing.T) {
	var order []int
	Do(
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
		func() { order = append(order, 3) },
	)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestForEachOrder(t *testing.T) {
	var seen []string
	ForEach([]string{"a", "b", "c"}, func(s string) { seen = append(seen, s) })
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestReduce(t *testing.T) {
	sum := func(low, high, partial int) int {
		for i := low; i < high; i++ {
			partial += i
		}
		return partial
	}
	add := func(x, y int) int { return x + y }
	assert.Equal(t, 7, Reduce(7, 0, sum, add))
	assert.Equal(t, 4950, Reduce(0, 100, sum, add))
}

func TestFilterN(t *testing.T) {
	odd := func(i int) (int, bool) { return i, i%2 == 1 }
	assert.Equal(t, []int{1, 3, 5, 7, 9}, FilterN(10, odd))
	assert.Equal(t, []int{}, FilterN(0, odd))
}
