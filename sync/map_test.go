package sync

import (
	"fmt"
	"hash/fnv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func TestNewMapDefaultSize(t *testing.T) {
	m := NewMap[string, int](0, fnvHash)
	assert.Greater(t, m.Len(), 0)
	m = NewMap[string, int](7, fnvHash)
	assert.Equal(t, 7, m.Len())
	for _, k := range []string{"a", "b", "c"} {
		i := m.Index(k)
		assert.True(t, 0 <= i && i < 7)
		assert.Same(t, &m.splits[i], m.Split(k))
	}
}

func TestLoadOrCompute(t *testing.T) {
	m := NewMap[string, int](4, fnvHash)
	_, ok := m.Load("x", nil)
	assert.False(t, ok)

	calls, visits := 0, 0
	compute := func() int { calls++; return 3 }
	visit := func(int) { visits++ }
	v, loaded := m.LoadOrCompute("x", compute, visit)
	assert.False(t, loaded)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, visits)

	v, loaded = m.LoadOrCompute("x", func() int { return 4 }, visit)
	assert.True(t, loaded)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, visits)

	var seen int
	v, ok = m.Load("x", func(v int) { seen = v })
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, seen)
	assert.Equal(t, 1, m.Size())
}

func TestModify(t *testing.T) {
	m := NewMap[string, int](4, fnvHash)
	inc := func(value int, ok bool) (int, bool) { return value + 1, true }
	for i := 0; i < 3; i++ {
		m.Modify("n", inc)
	}
	v, _ := m.Load("n", nil)
	assert.Equal(t, 3, v)

	m.ModifyAt(m.Index("n"), "n", inc)
	v, _ = m.Load("n", nil)
	assert.Equal(t, 4, v)

	m.Modify("n", func(int, bool) (int, bool) { return 0, false })
	_, ok := m.Load("n", nil)
	assert.False(t, ok)
}

func TestModifyPanicUnlocks(t *testing.T) {
	m := NewMap[string, int](1, fnvHash)
	m.Modify("k", func(int, bool) (int, bool) { return 1, true })
	assert.Panics(t, func() {
		m.Modify("k", func(int, bool) (int, bool) { panic("boom") })
	})
	v, ok := m.Load("k", nil)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestConcurrentLoadOrCompute(t *testing.T) {
	m := NewMap[string, int](16, fnvHash)
	var wg sync.WaitGroup
	winners := make([][]int, 8)
	for g := range winners {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			row := make([]int, 1000)
			for k := range row {
				row[k], _ = m.LoadOrCompute(fmt.Sprint(k), func() int { return g }, nil)
			}
			winners[g] = row
		}(g)
	}
	wg.Wait()
	for k := 0; k < 1000; k++ {
		for g := 1; g < len(winners); g++ {
			require.Equal(t, winners[0][k], winners[g][k], "key %d", k)
		}
	}
	assert.Equal(t, 1000, m.Size())
}

func TestCount(t *testing.T) {
	m := NewMap[string, int](8, fnvHash)
	for i := 0; i < 100; i++ {
		m.LoadOrCompute(fmt.Sprint(i), func() int { return i }, nil)
	}
	assert.Equal(t, 50, m.Count(func(_ string, v int) bool { return v%2 == 0 }))
	assert.Equal(t, 100, m.Size())
}
