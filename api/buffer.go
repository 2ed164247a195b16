// File: api/buffer.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Payload boundary with the buffer subsystem. The pipeline treats read
// and write payloads as opaque owned values; this file only names the
// minimal surface the core touches.

package api

// Buffer describes a pooled memory region used as an I/O payload.
type Buffer interface {
	// Bytes returns a view of the current buffer data.
	Bytes() []byte

	// Release returns the buffer to its pool. After Release, the
	// buffer must not be used.
	Release()

	// Copy returns a deep copy of buffer contents as a standalone
	// []byte.
	Copy() []byte
}

// Releasable is the minimal ownership contract the pipeline enforces:
// a payload that is dropped unconsumed at the tail sentinel is released
// if it implements this interface.
type Releasable interface {
	Release()
}
