/*
Package concurrency provides the process-wide concurrency policy that is
consulted by every parallel primitive in tokwork.

The policy holds a concurrency limit, the maximum number of goroutines
a single parallel call may keep busy at the same time, and the physical
concurrency of the host, which is queried once and cached. The limit is
initialised lazily on first use. If the environment variable
TOKWORK_THREAD_LIMIT is set at that point, it pins the limit for the
lifetime of the process and later calls to SetLimit, SetLimitArgument
and SetMaximumLimit are ignored.

Reads of the limit are a single atomic load, since they happen at the
start of every parallel call. No parallel primitive ever writes the
limit.
*/
package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/toolkits/pkg/logger"
)

/*
A Policy holds a concurrency limit together with the physical
concurrency it is derived from.

Most programs use the process-wide policy through the package-level
functions. Separate policies are useful in tests that need a fixed
physical concurrency.
*/
type Policy struct {
	physical   int
	limit      atomic.Int64
	overridden bool
}

/*
NewPolicy returns a policy for a host with the given physical
concurrency, which is clamped to at least 1.

If override is different from 0, it is interpreted like the argument
of SetLimitArgument, and the resulting limit is pinned: subsequent
calls that set the limit have no effect. Otherwise the limit starts
out unrestricted, that is, equal to the physical concurrency.
*/
func NewPolicy(physical, override int) *Policy {
	if physical < 1 {
		physical = 1
	}
	p := &Policy{physical: physical}
	p.limit.Store(int64(physical))
	if override != 0 {
		p.limit.Store(int64(p.normalize(override)))
		p.overridden = true
	}
	return p
}

// normalize maps a limit argument to a limit, see SetLimitArgument.
func (p *Policy) normalize(n int) int {
	switch {
	case n > p.physical:
		return p.physical
	case n > 0:
		return n
	case n+p.physical < 1:
		return 1
	default:
		return n + p.physical
	}
}

// Limit returns the current concurrency limit, which is always >= 1.
func (p *Policy) Limit() int {
	return int(p.limit.Load())
}

// PhysicalLimit returns the physical concurrency of the host.
func (p *Policy) PhysicalLimit() int {
	return p.physical
}

/*
HasConcurrency reports whether parallel primitives should run in
parallel: the host must have more than one CPU, and the limit must not
be 1.
*/
func (p *Policy) HasConcurrency() bool {
	return p.physical > 1 && p.limit.Load() > 1
}

// Overridden reports whether the limit was pinned when the policy was
// created.
func (p *Policy) Overridden() bool {
	return p.overridden
}

/*
SetLimit sets the concurrency limit to n.

A value of 0 leaves the limit unchanged. Values above the physical
concurrency are accepted. Negative values are treated like 1. SetLimit
has no effect if the limit is pinned by an override.
*/
func (p *Policy) SetLimit(n int) {
	if n == 0 {
		return
	}
	if p.overridden {
		logger.Debugf("concurrency limit %d ignored, pinned to %d by %s", n, p.Limit(), envVar)
		return
	}
	if n < 1 {
		n = 1
	}
	p.limit.Store(int64(n))
}

/*
SetLimitArgument sets the concurrency limit from a command-line style
argument.

An argument of 0 leaves the limit unchanged. A positive argument sets
the limit to that value, but not above the physical concurrency. A
negative argument -k leaves k CPUs free: the limit becomes the
physical concurrency minus k, but never less than 1.
*/
func (p *Policy) SetLimitArgument(n int) {
	if n == 0 {
		return
	}
	p.SetLimit(p.normalize(n))
}

// SetMaximumLimit sets the concurrency limit to the physical
// concurrency.
func (p *Policy) SetMaximumLimit() {
	p.SetLimit(p.physical)
}

var (
	current  atomic.Pointer[Policy]
	initOnce sync.Once
)

func newDefaultPolicy() *Policy {
	physical := runtime.NumCPU()
	override := readOverride()
	p := NewPolicy(physical, override)
	if p.overridden {
		logger.Infof("concurrency limit pinned to %d by %s=%d (physical concurrency %d)",
			p.Limit(), envVar, override, physical)
	}
	return p
}

func defaultPolicy() *Policy {
	if p := current.Load(); p != nil {
		return p
	}
	initOnce.Do(func() {
		current.CompareAndSwap(nil, newDefaultPolicy())
	})
	return current.Load()
}

// Default returns the process-wide policy.
func Default() *Policy {
	return defaultPolicy()
}

/*
SetDefault installs p as the process-wide policy and returns the
policy it replaces. It bypasses the environment override, so it is
meant for tests and for programs that embed tokwork and know their
host better than runtime.NumCPU does. Parallel calls that are running
while the policy is replaced may observe either policy.

SetDefault panics if p is nil.
*/
func SetDefault(p *Policy) *Policy {
	if p == nil {
		panic("concurrency: nil policy")
	}
	old := defaultPolicy()
	current.Store(p)
	return old
}

// Limit returns the concurrency limit of the process-wide policy.
func Limit() int {
	return defaultPolicy().Limit()
}

// PhysicalLimit returns the physical concurrency of the host.
func PhysicalLimit() int {
	return defaultPolicy().PhysicalLimit()
}

// HasConcurrency reports whether parallel primitives run in parallel
// under the process-wide policy.
func HasConcurrency() bool {
	return defaultPolicy().HasConcurrency()
}

// Overridden reports whether the process-wide limit is pinned by the
// environment.
func Overridden() bool {
	return defaultPolicy().Overridden()
}

// SetLimit sets the process-wide concurrency limit. See Policy.SetLimit.
func SetLimit(n int) {
	defaultPolicy().SetLimit(n)
}

// SetLimitArgument sets the process-wide concurrency limit from a
// command-line style argument. See Policy.SetLimitArgument.
func SetLimitArgument(n int) {
	defaultPolicy().SetLimitArgument(n)
}

// SetMaximumLimit sets the process-wide concurrency limit to the
// physical concurrency.
func SetMaximumLimit() {
	defaultPolicy().SetMaximumLimit()
}
