// File: api/promise.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-completion future for outbound operations.

package api

// Promise represents the eventual outcome of one outbound operation.
// It is completed exactly once by whichever node performs the terminal
// transport action, regardless of whether anyone still observes it.
// A caller may abandon interest at any time; the underlying operation
// still runs to completion.
type Promise interface {
	// Complete finishes the promise with err (nil means success).
	// It reports whether this call performed the transition; later
	// calls return false and leave the first outcome intact.
	Complete(err error) bool
	// Done is closed when the promise completes.
	Done() <-chan struct{}
	// Err returns the completion error, or nil while pending or on
	// success.
	Err() error
	// IsDone reports whether the promise has completed.
	IsDone() bool
	// OnComplete registers fn to run when the promise completes. If
	// the promise is already done, fn runs immediately on the calling
	// goroutine; otherwise it runs on the completing goroutine.
	OnComplete(fn func(err error))
}
