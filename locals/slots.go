// File: locals/slots.go
// Package locals implements the process-wide slot index allocator.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package locals

import (
	"sync/atomic"

	"github.com/momentics/hioload-pipeline/api"
)

// nextIndex is the only cross-goroutine mutable state in this package
// besides the storage registries. Indices are monotonically increasing,
// process-wide unique, never reused or compacted.
var nextIndex atomic.Int32

// toRemoveSlot is reserved before any user handle can allocate, so it
// always occupies slot 0 of every Storage. It holds the per-storage set
// of handles that currently have a value, which lets RemoveAll and Size
// avoid an O(capacity) scan.
var toRemoveSlot = NextSlot()

// NextSlot allocates a fresh slot index. Exhausting the index space is
// a programming defect, not a runtime condition: NextSlot panics with
// api.ErrSlotSpaceExhausted and leaves the counter unchanged so every
// later call fails the same way.
func NextSlot() int {
	idx := nextIndex.Add(1) - 1
	if idx < 0 {
		nextIndex.Add(-1)
		panic(api.ErrSlotSpaceExhausted)
	}
	return int(idx)
}

// LastSlot returns the most recently allocated slot index, or -1 when
// none has been allocated.
func LastSlot() int {
	return int(nextIndex.Load()) - 1
}
