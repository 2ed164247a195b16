// File: executor/executor.go
// Package executor provides the serialized execution affinity behind a
// pipeline.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop runs every submitted task on one dedicated goroutine. Pipelines
// bound to a Loop get single-threaded handler execution without locks:
// events fired from foreign goroutines are marshalled here, events
// fired from inside a handler run inline.

package executor

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/internal/gid"
	"github.com/momentics/hioload-pipeline/internal/logutil"
	"github.com/momentics/hioload-pipeline/locals"
)

const (
	localRingCapacity = 1024
	// idle spins before the loop parks on the wakeup channel.
	idleSpins = 64
)

// Loop is a single-goroutine task executor.
type Loop struct {
	// inbox holds tasks submitted from foreign goroutines. draining
	// flips once the loop performed its final drain; an enqueue after
	// that point would be lost, so Submit refuses it.
	inboxMu  sync.Mutex
	inbox    *queue.Queue
	draining bool

	// local holds tasks submitted from inside the loop. Owned by the
	// loop goroutine.
	local *taskRing

	wakeup  chan struct{}
	closeCh chan struct{}
	stopped chan struct{}
	closed  atomic.Bool

	loopGID atomic.Int64
	cpu     int
}

// LoopOption configures a Loop at construction.
type LoopOption func(*Loop)

// WithCPU pins the loop's OS thread to the given CPU. Best effort on
// platforms without affinity syscalls.
func WithCPU(cpu int) LoopOption {
	return func(l *Loop) { l.cpu = cpu }
}

// NewLoop starts the loop goroutine and returns the executor.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		inbox:   queue.New(),
		local:   newTaskRing(localRingCapacity),
		wakeup:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		stopped: make(chan struct{}),
		cpu:     -1,
	}
	for _, o := range opts {
		o(l)
	}
	go l.run()
	return l
}

// InLoop reports whether the caller is the loop goroutine.
func (l *Loop) InLoop() bool {
	return gid.Get() == l.loopGID.Load()
}

// Submit schedules task on the loop. Tasks submitted from inside the
// loop keep FIFO order relative to each other, as do tasks from any
// single foreign goroutine.
func (l *Loop) Submit(task func()) error {
	if l.closed.Load() {
		return api.ErrExecutorClosed
	}
	if l.InLoop() {
		if l.local.enqueue(task) {
			return nil
		}
		// local ring full, spill to the shared inbox
	}
	l.inboxMu.Lock()
	if l.draining {
		l.inboxMu.Unlock()
		return api.ErrExecutorClosed
	}
	l.inbox.Add(task)
	l.inboxMu.Unlock()
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the loop after draining already-accepted tasks and waits
// for the loop goroutine to exit. Safe to call more than once. When the
// caller is the loop goroutine itself it cannot wait on its own exit;
// the loop then stops after the current batch finishes.
func (l *Loop) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.closeCh)
	}
	if l.InLoop() {
		return
	}
	<-l.stopped
}

func (l *Loop) run() {
	runtime.LockOSThread()
	if l.cpu >= 0 {
		pinThread(l.cpu)
	}
	l.loopGID.Store(gid.Get())
	locals.MarkFast()
	defer func() {
		locals.RemoveAll()
		close(l.stopped)
	}()

	spins := 0
	for {
		if l.runPending() {
			spins = 0
			continue
		}
		select {
		case <-l.closeCh:
			l.shutdown()
			return
		default:
		}
		if spins < idleSpins {
			spins++
			runtime.Gosched()
			continue
		}
		select {
		case <-l.wakeup:
		case <-l.closeCh:
			l.shutdown()
			return
		}
	}
}

// shutdown performs the final drain. Raising draining between the two
// passes closes the window where a Submit that already passed the
// closed check adds a task nobody would ever run.
func (l *Loop) shutdown() {
	l.runPending()
	l.inboxMu.Lock()
	l.draining = true
	l.inboxMu.Unlock()
	l.runPending()
}

// runPending drains the local ring, then one inbox batch. Reports
// whether any task ran.
func (l *Loop) runPending() bool {
	ran := false
	for {
		task, ok := l.local.dequeue()
		if !ok {
			break
		}
		l.execute(task)
		ran = true
	}
	for {
		l.inboxMu.Lock()
		if l.inbox.Length() == 0 {
			l.inboxMu.Unlock()
			break
		}
		task := l.inbox.Remove().(func())
		l.inboxMu.Unlock()
		l.execute(task)
		ran = true
		// tasks the inbox task spawned in-loop run before the next
		// foreign one
		for {
			t, ok := l.local.dequeue()
			if !ok {
				break
			}
			l.execute(t)
		}
	}
	return ran
}

func (l *Loop) execute(task func()) {
	defer recoverTask()
	task()
}

// recoverTask keeps the loop alive across a panicking task.
func recoverTask() {
	if r := recover(); r != nil {
		logutil.Logger().Error().
			Interface("panic", r).
			Msg("submitted task panicked; loop continues")
	}
}

var _ api.Executor = (*Loop)(nil)
