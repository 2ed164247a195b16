// File: api/executor.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor contract supplying each pipeline's execution affinity.

package api

// Executor runs submitted tasks on a single execution unit, in order.
// A pipeline bound to an executor dispatches all handler callbacks on
// it, so within one pipeline handler invocation is strictly ordered and
// never concurrent with itself.
type Executor interface {
	// Submit schedules task for execution. Returns an error if the
	// executor has shut down.
	Submit(task func()) error

	// InLoop reports whether the calling goroutine is the executor's
	// own execution unit.
	InLoop() bool
}
