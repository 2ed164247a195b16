// File: executor/ring.go
// Package executor provides the serialized execution affinity behind a
// pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring buffer for tasks produced and consumed by the loop goroutine
// itself. Single-owner, so no atomics are needed.

package executor

type taskRing struct {
	mask    uint64
	entries []func()
	head    uint64
	tail    uint64
}

// newTaskRing creates a ring with capacity rounded up to a power of two.
func newTaskRing(capacity int) *taskRing {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &taskRing{mask: uint64(size - 1), entries: make([]func(), size)}
}

// enqueue adds task; returns false if full.
func (r *taskRing) enqueue(task func()) bool {
	if r.tail-r.head >= uint64(len(r.entries)) {
		return false
	}
	r.entries[r.tail&r.mask] = task
	r.tail++
	return true
}

// dequeue removes and returns a task; ok false if empty.
func (r *taskRing) dequeue() (task func(), ok bool) {
	if r.head >= r.tail {
		return nil, false
	}
	task = r.entries[r.head&r.mask]
	r.entries[r.head&r.mask] = nil
	r.head++
	return task, true
}

func (r *taskRing) empty() bool { return r.head == r.tail }
