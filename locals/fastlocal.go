// File: locals/fastlocal.go
// Package locals implements the typed slot handle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package locals

import (
	"github.com/momentics/hioload-pipeline/internal/logutil"
)

// remover lets the to-remove set hold handles of differing value types.
type remover interface {
	removeFrom(s *Storage)
}

// FastLocal is a typed handle bound to one allocated slot index. It is
// not itself storage: the same handle reads and writes a different
// value in every Storage it is invoked against. The index is assigned
// at construction and immutable for the handle's lifetime; two handles
// are interchangeable only if they are the same handle.
//
// Each method has a variant taking an explicit *Storage. Hot paths that
// already resolved their storage once (an executor worker, typically)
// use those to skip per-access resolution.
type FastLocal[T any] struct {
	index       int
	initializer func() (T, error)
	onRemoval   func(T) error
}

// Option configures a FastLocal at construction.
type Option[T any] func(*FastLocal[T])

// WithInitializer supplies the value computed on first Get of an unset
// slot. Without one, the zero value of T is used.
func WithInitializer[T any](init func() (T, error)) Option[T] {
	return func(fl *FastLocal[T]) { fl.initializer = init }
}

// WithOnRemoval registers a callback invoked with the previous value
// whenever a set slot is removed. Callback failures are logged and do
// not block the slot reset.
func WithOnRemoval[T any](fn func(T) error) Option[T] {
	return func(fl *FastLocal[T]) { fl.onRemoval = fn }
}

// New allocates a fresh slot and returns its handle.
func New[T any](opts ...Option[T]) *FastLocal[T] {
	fl := &FastLocal[T]{index: NextSlot()}
	for _, o := range opts {
		o(fl)
	}
	return fl
}

// Index returns the handle's slot index.
func (fl *FastLocal[T]) Index() int {
	return fl.index
}

// Get returns the current value for the calling goroutine, lazily
// initializing an unset slot. An initializer error is returned to the
// caller and the slot stays unset, so a retry is possible.
func (fl *FastLocal[T]) Get() (T, error) {
	return fl.GetFrom(Current())
}

// GetFrom is Get against an explicit storage, which must belong to the
// calling goroutine.
func (fl *FastLocal[T]) GetFrom(s *Storage) (T, error) {
	if v := s.get(fl.index); v != Unset {
		return v.(T), nil
	}
	return fl.initialize(s)
}

func (fl *FastLocal[T]) initialize(s *Storage) (T, error) {
	var v T
	if fl.initializer != nil {
		var err error
		if v, err = fl.initializer(); err != nil {
			return v, err
		}
	}
	s.set(fl.index, v)
	addToRemoveSet(s, fl)
	return v, nil
}

// Set stores value for the calling goroutine. Storing the Unset
// sentinel itself behaves as Remove.
func (fl *FastLocal[T]) Set(value T) {
	fl.SetIn(Current(), value)
}

// SetIn is Set against an explicit storage.
func (fl *FastLocal[T]) SetIn(s *Storage, value T) {
	if any(value) == Unset {
		fl.RemoveFrom(s)
		return
	}
	if s.set(fl.index, value) {
		addToRemoveSet(s, fl)
	}
}

// IsSet reports whether the slot holds a value for the calling
// goroutine. It never triggers initialization.
func (fl *FastLocal[T]) IsSet() bool {
	s := CurrentIfSet()
	return s != nil && s.isSet(fl.index)
}

// IsSetIn is IsSet against an explicit storage.
func (fl *FastLocal[T]) IsSetIn(s *Storage) bool {
	return s != nil && s.isSet(fl.index)
}

// Remove resets the slot to unset for the calling goroutine, invoking
// the removal callback with the previous value if one was set. A
// subsequent Get triggers the initializer again.
func (fl *FastLocal[T]) Remove() {
	if s := CurrentIfSet(); s != nil {
		fl.RemoveFrom(s)
	}
}

// RemoveFrom is Remove against an explicit storage.
func (fl *FastLocal[T]) RemoveFrom(s *Storage) {
	if s == nil {
		return
	}
	v := s.remove(fl.index)
	removeFromRemoveSet(s, fl)
	if v == Unset || fl.onRemoval == nil {
		return
	}
	if err := fl.onRemoval(v.(T)); err != nil {
		logutil.Logger().Error().
			Err(err).
			Int("slot", fl.index).
			Msg("fastlocal removal callback failed")
	}
}

func (fl *FastLocal[T]) removeFrom(s *Storage) {
	fl.RemoveFrom(s)
}

// addToRemoveSet registers a handle holding a value in s, keeping
// RemoveAll proportional to the set count rather than the capacity.
func addToRemoveSet(s *Storage, h remover) {
	v := s.get(toRemoveSlot)
	var set map[remover]struct{}
	if v == Unset || v == nil {
		set = make(map[remover]struct{})
		s.set(toRemoveSlot, set)
	} else {
		set = v.(map[remover]struct{})
	}
	set[h] = struct{}{}
}

func removeFromRemoveSet(s *Storage, h remover) {
	v := s.get(toRemoveSlot)
	if v == Unset || v == nil {
		return
	}
	delete(v.(map[remover]struct{}), h)
}
