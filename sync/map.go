/*
Package sync provides a sharded map similar to the concurrent map of
Go's standard library, however here with a focus on throughput under
parallel access rather than on general concurrency. The map consists of
several splits that can be locked individually, so accesses to
different splits never block each other.

The token table of tokwork is built on this map. For other
synchronization primitives, such as condition variables, mutual
exclusion locks, object pools, or atomic memory primitives, please use
the standard library.
*/
package sync

import (
	"runtime"
	"sync"

	"github.com/exascience/tokwork/parallel"
)

/*
A Split is a partial map that belongs to a larger Map, which can be
individually locked. Its enclosed map can then be individually
accessed without blocking accesses to other splits.
*/
type Split[K comparable, V any] struct {
	sync.RWMutex
	Map map[K]V
}

/*
A Map is a parallel map that consists of several split maps that can
be individually locked and accessed.

The zero Map is not valid.
*/
type Map[K comparable, V any] struct {
	splits []Split[K, V]
	hash   func(K) uint64
}

/*
NewMap returns a map with size splits, using hash to assign keys to
splits.

If size is <= 0, runtime.GOMAXPROCS(0) is used instead.
*/
func NewMap[K comparable, V any](size int, hash func(K) uint64) *Map[K, V] {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	splits := make([]Split[K, V], size)
	for i := range splits {
		splits[i].Map = make(map[K]V)
	}
	return &Map[K, V]{splits: splits, hash: hash}
}

// Len returns the number of splits.
func (m *Map[K, V]) Len() int {
	return len(m.splits)
}

// Index returns the index of the split for a particular key.
func (m *Map[K, V]) Index(key K) int {
	return int(m.hash(key) % uint64(len(m.splits)))
}

/*
Split retrieves the split for a particular key.

The split must be locked/unlocked properly by user programs to safely
access its contents. In many cases, it is easier to use one of the
high-level methods, like Load, LoadOrCompute, and Modify, which
implicitly take care of proper locking.
*/
func (m *Map[K, V]) Split(key K) *Split[K, V] {
	return &m.splits[m.Index(key)]
}

/*
Load returns the value stored in the map for a key, or the zero value
if no value is present. The ok result indicates whether value was
found in the map.

If visit is not nil and a value is found, visit is called with the
value while the split is still read-locked, so a concurrent Modify
cannot remove the value before visit returns.
*/
func (m *Map[K, V]) Load(key K, visit func(V)) (value V, ok bool) {
	split := m.Split(key)
	split.RLock()
	defer split.RUnlock()
	if value, ok = split.Map[key]; ok && visit != nil {
		visit(value)
	}
	return
}

/*
LoadOrCompute returns the existing value for the key if
present. Otherwise, it calls computer, and then stores and returns the
computed value. The loaded result is true if the value was loaded,
false if stored.

The computer function is invoked either zero times or once. While
computer is executing no locks related to this map are being held.

The computed value may not be stored and returned, since a parallel
goroutine may have successfully stored a value for the key in the
meantime. In that case, the value stored by the parallel goroutine is
returned instead.

If visit is not nil, it is called once with a loaded value while the
split is still locked, as in Load. It is not called for a stored
value.
*/
func (m *Map[K, V]) LoadOrCompute(key K, computer func() V, visit func(V)) (actual V, loaded bool) {
	if actual, loaded = m.Load(key, visit); loaded {
		return
	}
	value := computer()
	split := m.Split(key)
	split.Lock()
	defer split.Unlock()
	if actual, loaded = split.Map[key]; loaded {
		if visit != nil {
			visit(actual)
		}
		return
	}
	split.Map[key] = value
	return value, false
}

/*
Modify looks up a value for the key if present and passes it to the
modifier. The ok parameter indicates whether value was found in the
map. The replacement returned by the modifier is then stored as a
value for key in the map if storeNotDelete is true, otherwise the
value is deleted from the map. Modify returns the same results as
modifier.

The modifier is invoked exactly once. While modifier is executing, a
lock is being held on a portion of the map, so the function should be
brief. If modifier panics, the map is left unchanged and the lock is
released.
*/
func (m *Map[K, V]) Modify(key K, modifier func(value V, ok bool) (replacement V, storeNotDelete bool)) (replacement V, storeNotDelete bool) {
	return m.ModifyAt(m.Index(key), key, modifier)
}

// ModifyAt is like Modify, for callers that have remembered the index of
// the split for key. i must be the result of Index(key).
func (m *Map[K, V]) ModifyAt(i int, key K, modifier func(value V, ok bool) (replacement V, storeNotDelete bool)) (replacement V, storeNotDelete bool) {
	split := &m.splits[i]
	split.Lock()
	defer split.Unlock()
	value, ok := split.Map[key]
	if replacement, storeNotDelete = modifier(value, ok); storeNotDelete {
		split.Map[key] = replacement
	} else {
		delete(split.Map, key)
	}
	return
}

func (split *Split[K, V]) splitRange(f func(key K, value V) bool) bool {
	split.RLock()
	defer split.RUnlock()
	for key, value := range split.Map {
		if !f(key, value) {
			return false
		}
	}
	return true
}

/*
Count returns the number of entries for which f returns true, visiting
the splits in parallel. Count reflects each split at the moment it is
visited.
*/
func (m *Map[K, V]) Count(f func(key K, value V) bool) int {
	splits := m.splits
	return parallel.Reduce(0, len(splits), 1,
		func(low, high, count int) int {
			for i := low; i < high; i++ {
				splits[i].splitRange(func(key K, value V) bool {
					if f(key, value) {
						count++
					}
					return true
				})
			}
			return count
		},
		func(x, y int) int { return x + y },
	)
}

// Size returns the number of entries in the map.
func (m *Map[K, V]) Size() int {
	return m.Count(func(K, V) bool { return true })
}
