// Package tokwork provides the string-interning and data-parallel core that
// performance-sensitive code builds on: a process-wide, reference-counted
// token table, and a small set of parallel loop, reduce, sort and filter
// primitives that run on a bounded fork/join substrate.
//
// Tokwork provides the following subpackages:
//
// tokwork/token provides Token, a cheap, comparable and hashable handle to a
// canonical copy of a string, together with helpers for converting between
// strings and tokens, and a human-friendly dictionary ordering for strings.
//
// tokwork/concurrency provides the process-wide concurrency limit that every
// parallel primitive consults before it decides between parallel and
// sequential execution.
//
// tokwork/parallel provides For, ForEach, Do, Reduce, and FilterN.
//
// tokwork/sequential provides sequential implementations of all functions
// from tokwork/parallel, for testing and debugging purposes.
//
// tokwork/sort provides a parallel, unstable in-place sort.
//
// tokwork/sync provides a sharded map whose splits can be locked
// individually. The token table is built on it.
//
// tokwork/metrics exposes the state of the token table and of the
// concurrency policy as Prometheus metrics.
//
// The fork/join model has been influenced by Cilk and Threading Building
// Blocks. See http://supertech.csail.mit.edu/papers/steal.pdf for some
// theoretical background.
package tokwork
