// File: locals/storage.go
// Package locals implements the per-goroutine indexed storage.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package locals

import (
	"bytes"
	"math/rand"
	"reflect"
	"time"
)

const (
	initialCapacity = 32

	scratchBufferInitialSize = 1024
	scratchBufferMaxSize     = 4 * 1024

	scratchListInitialCap = 8
)

// unsetType has pointer identity only; see Unset.
type unsetType struct{ _ byte }

// Unset is the sentinel distinguishing "never set" from any real value,
// including a stored nil. Slots beyond the current capacity also read
// as Unset.
var Unset any = &unsetType{}

// IntHolder boxes a counter kept in storage so callers can mutate it in
// place without a slot write per increment.
type IntHolder struct {
	Value int
}

// Storage is the indexed value table for one execution unit, plus a
// small fixed set of well-known scratch caches the runtime reuses to
// avoid per-call allocation. It is owned exclusively by the goroutine
// it was created for and is deliberately lock-free: the single-owner
// discipline makes synchronization unnecessary.
type Storage struct {
	indexed []any

	// Well-known caches, created lazily on first use.
	scratchBuf    *bytes.Buffer
	scratchList   []any
	encoderCache  map[string]any
	decoderCache  map[string]any
	sharableCache map[reflect.Type]bool
	counter       *IntHolder
	rnd           *rand.Rand
}

func newStorage() *Storage {
	indexed := make([]any, initialCapacity)
	for i := range indexed {
		indexed[i] = Unset
	}
	return &Storage{indexed: indexed}
}

// get returns the value at index, or Unset when the slot is out of
// range or holds no value.
func (s *Storage) get(index int) any {
	if index < len(s.indexed) {
		return s.indexed[index]
	}
	return Unset
}

// set stores value at index, growing the table as needed, and reports
// whether the slot transitioned from Unset to set.
func (s *Storage) set(index int, value any) bool {
	if index < len(s.indexed) {
		old := s.indexed[index]
		s.indexed[index] = value
		return old == Unset
	}
	s.expandAndSet(index, value)
	return true
}

// expandAndSet grows the table to the next power of two >= index+1,
// fills the new positions with Unset, then stores value. Capacity only
// grows; it is never compacted, which keeps the warmed-up case
// allocation-free.
func (s *Storage) expandAndSet(index int, value any) {
	newCapacity := index
	newCapacity |= newCapacity >> 1
	newCapacity |= newCapacity >> 2
	newCapacity |= newCapacity >> 4
	newCapacity |= newCapacity >> 8
	newCapacity |= newCapacity >> 16
	newCapacity++

	newIndexed := make([]any, newCapacity)
	copy(newIndexed, s.indexed)
	for i := len(s.indexed); i < newCapacity; i++ {
		newIndexed[i] = Unset
	}
	newIndexed[index] = value
	s.indexed = newIndexed
}

// remove resets the slot to Unset and returns the previous value, which
// may be Unset.
func (s *Storage) remove(index int) any {
	if index < len(s.indexed) {
		v := s.indexed[index]
		s.indexed[index] = Unset
		return v
	}
	return Unset
}

func (s *Storage) isSet(index int) bool {
	return index < len(s.indexed) && s.indexed[index] != Unset
}

// Size returns the number of values bound to this storage: set slots
// plus instantiated well-known caches. The bookkeeping slot that backs
// RemoveAll is never counted.
func (s *Storage) Size() int {
	count := 0
	if s.scratchBuf != nil {
		count++
	}
	if s.scratchList != nil {
		count++
	}
	if s.encoderCache != nil {
		count++
	}
	if s.decoderCache != nil {
		count++
	}
	if s.sharableCache != nil {
		count++
	}
	if s.counter != nil {
		count++
	}
	if s.rnd != nil {
		count++
	}
	for i, v := range s.indexed {
		if i == toRemoveSlot {
			continue
		}
		if v != Unset {
			count++
		}
	}
	return count
}

// ScratchBuffer returns the storage's reusable byte buffer, reset to
// empty. A buffer that has grown past scratchBufferMaxSize is replaced
// so one oversized payload does not pin memory for the lifetime of the
// worker.
func (s *Storage) ScratchBuffer() *bytes.Buffer {
	b := s.scratchBuf
	if b == nil {
		b = bytes.NewBuffer(make([]byte, 0, scratchBufferInitialSize))
		s.scratchBuf = b
		return b
	}
	if b.Cap() > scratchBufferMaxSize {
		b = bytes.NewBuffer(make([]byte, 0, scratchBufferInitialSize))
		s.scratchBuf = b
		return b
	}
	b.Reset()
	return b
}

// ScratchList returns the storage's reusable []any, cleared, with at
// least minCap capacity.
func (s *Storage) ScratchList(minCap int) []any {
	if minCap < scratchListInitialCap {
		minCap = scratchListInitialCap
	}
	if cap(s.scratchList) < minCap {
		s.scratchList = make([]any, 0, minCap)
	}
	s.scratchList = s.scratchList[:0]
	return s.scratchList
}

// EncoderCache returns the per-unit encoder cache keyed by charset or
// codec name.
func (s *Storage) EncoderCache() map[string]any {
	if s.encoderCache == nil {
		s.encoderCache = make(map[string]any)
	}
	return s.encoderCache
}

// DecoderCache returns the per-unit decoder cache keyed by charset or
// codec name.
func (s *Storage) DecoderCache() map[string]any {
	if s.decoderCache == nil {
		s.decoderCache = make(map[string]any)
	}
	return s.decoderCache
}

// SharableCache caches, per handler type, whether the type was judged
// shareable, so bind-time checks do not repeat the inspection.
func (s *Storage) SharableCache() map[reflect.Type]bool {
	if s.sharableCache == nil {
		// Start small to keep per-worker overhead low.
		s.sharableCache = make(map[reflect.Type]bool, 4)
	}
	return s.sharableCache
}

// Counter returns the storage's boxed counter.
func (s *Storage) Counter() *IntHolder {
	if s.counter == nil {
		s.counter = &IntHolder{}
	}
	return s.counter
}

// Random returns the per-unit random source. Keeping one per storage
// avoids contention on the global locked source.
func (s *Storage) Random() *rand.Rand {
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s.rnd
}
