// File: internal/gid/gid.go
// Package gid extracts the current goroutine id.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine ids are the execution-unit identity key for thread-local
// storage lookup. The id is parsed from the runtime.Stack header
// ("goroutine N [running]:"), which is the only stable way to obtain it
// without linkname tricks. The parse costs one small stack dump, so
// callers on hot paths cache the result for the lifetime of their
// goroutine.

package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Get returns the id of the calling goroutine.
func Get() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, prefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		// The header format is fixed by the runtime; reaching this
		// indicates a corrupted stack dump.
		panic("gid: cannot parse goroutine id: " + string(b))
	}
	return id
}
