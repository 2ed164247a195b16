// File: locals/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package locals implements the fast per-execution-unit storage engine
// used by hioload-pipeline hot paths.
//
// A FastLocal is a typed handle bound to one process-wide slot index,
// assigned once and never reused. Values live in a per-goroutine
// Storage: a growable array indexed by slot, so the frequent case is an
// O(1) array read instead of a hashed thread-local lookup. Goroutines
// owned by the runtime mark themselves fast-path capable (MarkFast) and
// resolve their Storage through a flat table indexed by goroutine id;
// any other goroutine transparently falls back to a hashed lookup,
// functionally identical but slower.
//
// A Storage is owned exclusively by the goroutine that created it. No
// other goroutine ever reads or writes it; cross-goroutine sharing of
// state must go through explicit value handoff. RemoveAll is the
// sanctioned way for worker-retirement code to drop the calling
// goroutine's storage without leaking state into reused workers.
package locals
