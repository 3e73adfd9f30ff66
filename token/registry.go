package token

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
	"github.com/toolkits/pkg/logger"

	psync "github.com/exascience/tokwork/sync"
)

// numSets is the number of independently locked sets of the registry.
const numSets = 128

/*
A rep is the canonical representation of an interned string.

refCount holds twice the number of strong references in its upper
bits. Bit 0 is set while the rep is counted (mortal), and cleared for
good once it becomes immortal. The count of an immortal rep is
meaningless and never inspected again.
*/
type rep struct {
	str      string
	setNum   int
	cmpCode  uint64
	id       uint64
	hash     uint64
	refCount atomic.Uint64
}

const (
	countedBit = 1
	oneRef     = 2
)

// compareCode packs the first eight bytes of s big-endian, padding with
// zeros, so that comparing codes agrees with comparing strings whenever
// the codes differ.
func compareCode(s string) uint64 {
	var buf [8]byte
	copy(buf[:], s)
	return binary.BigEndian.Uint64(buf[:])
}

func newRep(s string, setNum int, id uint64, immortal bool) *rep {
	var idBytes [8]byte
	binary.LittleEndian.PutUint64(idBytes[:], id)
	rp := &rep{
		str:     s,
		setNum:  setNum,
		cmpCode: compareCode(s),
		id:      id,
		hash:    murmur3.Sum64(idBytes[:]),
	}
	if !immortal {
		rp.refCount.Store(oneRef | countedBit)
	}
	return rp
}

func (rp *rep) isCounted() bool {
	return rp.refCount.Load()&countedBit != 0
}

// acquire adds a strong reference, and reports whether rp is still
// counted. No reference is added to an immortal rep.
func (rp *rep) acquire() bool {
	if !rp.isCounted() {
		return false
	}
	return rp.refCount.Add(oneRef)&countedBit != 0
}

// makeImmortal clears the counted bit.
func (rp *rep) makeImmortal() {
	for {
		cur := rp.refCount.Load()
		if cur&countedBit == 0 || rp.refCount.CompareAndSwap(cur, cur&^countedBit) {
			return
		}
	}
}

/*
A registry is the process-wide intern table. It maps string content to
the one live rep for that content.

Reps are looked up and inserted while holding a lock on their set
only. A reference that may be the last one is also dropped under that
lock, so a lookup can never resurrect a rep that is being removed.
*/
type registry struct {
	sets   *psync.Map[string, *rep]
	nextID atomic.Uint64
}

func hashString(s string) uint64 {
	return murmur3.Sum64([]byte(s))
}

var theRegistry = sync.OnceValue(func() *registry {
	return &registry{sets: psync.NewMap[string, *rep](numSets, hashString)}
})

/*
findOrCreate returns the rep for s with a new strong reference, and
whether the reference is counted. If there is no rep for s yet, one is
created. If immortal is true, the rep is made immortal.

A rep for s is built before the set is locked for writing. If another
goroutine inserted a rep for s in the meantime, the one built here is
dropped, and the winner's rep is returned.
*/
func (r *registry) findOrCreate(s string, immortal bool) (*rep, bool) {
	var counted bool
	rp, loaded := r.sets.LoadOrCompute(s,
		func() *rep {
			return newRep(s, r.sets.Index(s), r.nextID.Add(1), immortal)
		},
		func(rp *rep) {
			if immortal {
				rp.makeImmortal()
			} else {
				counted = rp.acquire()
			}
		},
	)
	if !loaded {
		counted = !immortal
	}
	return rp, counted
}

// find returns the rep for s with a new strong reference, or nil if
// there is none.
func (r *registry) find(s string) (*rep, bool) {
	var counted bool
	rp, _ := r.sets.Load(s, func(rp *rep) {
		counted = rp.acquire()
	})
	return rp, counted
}

/*
release drops a strong reference to rp. If it was the last one, rp is
removed from the registry.

References that are certainly not the last are dropped without
locking. Releasing a rep more often than it was acquired is a bug in
the caller, and release panics.
*/
func (r *registry) release(rp *rep) {
	for {
		cur := rp.refCount.Load()
		if cur&countedBit == 0 {
			return
		}
		if cur < 2*oneRef {
			break
		}
		if rp.refCount.CompareAndSwap(cur, cur-oneRef) {
			return
		}
	}
	r.sets.ModifyAt(rp.setNum, rp.str, func(entry *rep, ok bool) (*rep, bool) {
		for {
			cur := rp.refCount.Load()
			if cur&countedBit == 0 {
				return entry, ok
			}
			if cur < oneRef {
				logger.Errorf("token %q released more often than acquired", rp.str)
				panic(fmt.Sprintf("token: reference count underflow for %q", rp.str))
			}
			if !ok || entry != rp {
				logger.Errorf("token %q is not registered", rp.str)
				panic(fmt.Sprintf("token: releasing unregistered rep for %q", rp.str))
			}
			if rp.refCount.CompareAndSwap(cur, cur-oneRef) {
				return entry, cur-oneRef != countedBit
			}
		}
	})
}

// Stats describes the contents of the token registry at one point in
// time.
type Stats struct {
	// Live is the number of distinct strings that are interned.
	Live int
	// Immortal is the number of live strings that are immortal.
	Immortal int
	// Sets is the number of independently locked sets.
	Sets int
}

// ReadStats returns the current Stats of the registry. Each set is
// inspected under its own lock, so the result is not an atomic snapshot
// while tokens are being created or released.
func ReadStats() Stats {
	r := theRegistry()
	return Stats{
		Live:     r.sets.Size(),
		Immortal: r.sets.Count(func(_ string, rp *rep) bool { return !rp.isCounted() }),
		Sets:     r.sets.Len(),
	}
}
