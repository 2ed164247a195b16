// File: locals/current.go
// Package locals implements storage resolution for the calling goroutine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Two resolution paths mirror the two kinds of execution units:
//
//   - fast path: goroutines the runtime owns call MarkFast once at
//     startup, binding their Storage into a flat table indexed by
//     goroutine id. Resolution is then one atomic load plus an array
//     read.
//   - slow path: any other goroutine resolves through a mutex-guarded
//     hash map keyed by goroutine id. Functionally identical, one
//     hashed lookup slower.
//
// Table entries are only ever written for the calling goroutine's own
// id (under fastMu) and only ever read by that same goroutine, so plain
// element reads are safe while the table pointer itself is swapped
// atomically on growth.

package locals

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-pipeline/internal/gid"
)

// maxFastUnits caps the fast table. Runtime workers start early and
// carry small goroutine ids; a unit whose id falls beyond the cap is
// silently served by the slow path instead of growing the table without
// bound.
const maxFastUnits = 1 << 16

var (
	fastMu  sync.Mutex
	fastTab atomic.Pointer[[]*Storage]

	slowMu  sync.RWMutex
	slowTab = make(map[int64]*Storage)
)

// Current returns the calling goroutine's Storage, creating one on
// first call.
func Current() *Storage {
	g := gid.Get()
	if tab := fastTab.Load(); tab != nil && g < int64(len(*tab)) {
		if s := (*tab)[g]; s != nil {
			return s
		}
	}
	return slowGet(g)
}

// CurrentIfSet returns the calling goroutine's Storage, or nil if none
// exists yet. It never creates storage.
func CurrentIfSet() *Storage {
	return storageIfSet(gid.Get())
}

func storageIfSet(g int64) *Storage {
	if tab := fastTab.Load(); tab != nil && g < int64(len(*tab)) {
		if s := (*tab)[g]; s != nil {
			return s
		}
	}
	slowMu.RLock()
	s := slowTab[g]
	slowMu.RUnlock()
	return s
}

func slowGet(g int64) *Storage {
	slowMu.RLock()
	s := slowTab[g]
	slowMu.RUnlock()
	if s != nil {
		return s
	}
	slowMu.Lock()
	defer slowMu.Unlock()
	if s = slowTab[g]; s == nil {
		s = newStorage()
		slowTab[g] = s
	}
	return s
}

// MarkFast marks the calling goroutine as fast-path capable and returns
// its Storage, creating (or migrating from the slow path) as needed.
// Runtime-owned execution units call this once at startup; pairs with
// RemoveAll at retirement.
func MarkFast() *Storage {
	g := gid.Get()
	if g >= maxFastUnits {
		return slowGet(g)
	}

	fastMu.Lock()
	defer fastMu.Unlock()

	tab := fastTab.Load()
	if tab == nil || g >= int64(len(*tab)) {
		tab = growFastTable(tab, g)
	}
	if s := (*tab)[g]; s != nil {
		return s
	}

	// Adopt an existing slow-path storage so values set before the
	// mark stay visible.
	slowMu.Lock()
	s := slowTab[g]
	delete(slowTab, g)
	slowMu.Unlock()
	if s == nil {
		s = newStorage()
	}
	(*tab)[g] = s
	return s
}

// growFastTable replaces the table with one of the next power-of-two
// size >= g+1. Caller holds fastMu.
func growFastTable(old *[]*Storage, g int64) *[]*Storage {
	newLen := 1
	for int64(newLen) <= g {
		newLen <<= 1
	}
	newTab := make([]*Storage, newLen)
	if old != nil {
		copy(newTab, *old)
	}
	fastTab.Store(&newTab)
	return &newTab
}

// unbind drops the calling goroutine's storage association from both
// paths. The storage itself becomes garbage once the caller releases
// its references.
func unbind(g int64) {
	if g < maxFastUnits {
		fastMu.Lock()
		if tab := fastTab.Load(); tab != nil && g < int64(len(*tab)) {
			(*tab)[g] = nil
		}
		fastMu.Unlock()
	}
	slowMu.Lock()
	delete(slowTab, g)
	slowMu.Unlock()
}

// RemoveAll removes every FastLocal value currently set in the calling
// goroutine's storage, invoking removal callbacks, then discards the
// storage association entirely. Embedding environments call this before
// returning a worker goroutine to a shared pool so no thread-bound
// state leaks into its next tenant. Calling it with no storage bound is
// a no-op.
func RemoveAll() {
	g := gid.Get()
	s := storageIfSet(g)
	if s == nil {
		return
	}
	defer unbind(g)

	v := s.get(toRemoveSlot)
	if v == Unset || v == nil {
		return
	}
	set := v.(map[remover]struct{})
	// Snapshot: removeFrom mutates the set while we iterate.
	handles := make([]remover, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	for _, h := range handles {
		h.removeFrom(s)
	}
}

// Size returns the number of thread-local values bound to the calling
// goroutine, zero when no storage exists.
func Size() int {
	if s := CurrentIfSet(); s != nil {
		return s.Size()
	}
	return 0
}

// Destroy drops every slow-path storage association in the process.
// Call at shutdown in embedding environments so storages are not
// retained for goroutines the runtime does not own. Fast-path units are
// unaffected; they release their own storage via RemoveAll.
func Destroy() {
	slowMu.Lock()
	slowTab = make(map[int64]*Storage)
	slowMu.Unlock()
}
