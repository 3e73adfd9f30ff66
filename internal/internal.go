// Package internal provides the fork/join substrate shared by the
// parallel and sort packages.
package internal

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/exascience/tokwork/concurrency"
)

// leavesPerWorker is the number of leaf ranges per unit of concurrency
// that LeafSize aims for, so that uneven leaves can still be balanced.
const leavesPerWorker = 4

// workers counts the goroutines currently started by Fork across the
// whole process.
var workers atomic.Int64

/*
Fork executes left and right, possibly in parallel, and returns only
when both have terminated.

The right thunk is handed to a new goroutine if fewer than
concurrency.Limit()-1 goroutines started by Fork are still running;
otherwise both thunks run on the calling goroutine, left first. The
calling goroutine always runs left.

If one or both thunks panic, Fork panics with the left-most panic
value, after both thunks have terminated.
*/
func Fork(left, right func()) {
	limit := int64(concurrency.Limit())
	if workers.Add(1) >= limit {
		workers.Add(-1)
		left()
		right()
		return
	}
	var p interface{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer func() {
			p = WrapPanic(recover())
			workers.Add(-1)
			wg.Done()
		}()
		right()
	}()
	var p0 interface{}
	func() {
		defer func() {
			p0 = recover()
		}()
		left()
	}()
	wg.Wait()
	if p0 != nil {
		panic(p0)
	}
	if p != nil {
		panic(p)
	}
}

// Workers returns the number of goroutines currently started by Fork.
func Workers() int {
	return int(workers.Load())
}

/*
LeafSize determines the size of the leaf ranges into which a range of
size n is split, given a grain size.

The result is never below grain, so that leaves are never smaller than
the grain size (except a range smaller than grain, which is a single
leaf). Above the grain size, the range is split into about
leavesPerWorker * concurrency.Limit() leaves.

A grain size <= 0 is treated as 1. LeafSize panics if n < 0.
*/
func LeafSize(n, grain int) int {
	if n < 0 {
		panic(fmt.Sprintf("invalid range: 0:%v", n))
	}
	if grain < 1 {
		grain = 1
	}
	leaves := leavesPerWorker * concurrency.Limit()
	if size := (n + leaves - 1) / leaves; size > grain {
		return size
	}
	return grain
}

/*
Split recursively divides the range from low to high in halves until
the pieces are smaller than twice leaf, and calls f once for every
piece. Halves are forked with Fork, so the calls to f may run in
parallel. Pieces never overlap and together cover the whole range.
*/
func Split(low, high, leaf int, f func(low, high int)) {
	if high-low < 2*leaf {
		f(low, high)
		return
	}
	mid := low + (high-low)/2
	Fork(
		func() { Split(low, mid, leaf, f) },
		func() { Split(mid, high, leaf, f) },
	)
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if _, isError := p.(error); isError {
			r := errors.New(s)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}
