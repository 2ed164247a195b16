// File: pipeline/promise.go
// Package pipeline implements the single-completion outbound promise.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/internal/logutil"
)

type promise struct {
	mu        sync.Mutex
	completed bool
	err       error
	done      chan struct{}
	listeners []func(error)
}

// NewPromise returns a pending promise. The pipeline creates one per
// outbound operation; external callers need it only when threading a
// promise through the *With context variants.
func NewPromise() api.Promise {
	return &promise{done: make(chan struct{})}
}

func (p *promise) Complete(err error) bool {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return false
	}
	p.completed = true
	p.err = err
	listeners := p.listeners
	p.listeners = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range listeners {
		notifyListener(fn, err)
	}
	return true
}

func (p *promise) Done() <-chan struct{} {
	return p.done
}

func (p *promise) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *promise) IsDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

func (p *promise) OnComplete(fn func(err error)) {
	p.mu.Lock()
	if !p.completed {
		p.listeners = append(p.listeners, fn)
		p.mu.Unlock()
		return
	}
	err := p.err
	p.mu.Unlock()
	notifyListener(fn, err)
}

// notifyListener shields the completing goroutine from listener panics.
func notifyListener(fn func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			logutil.Logger().Error().
				Interface("panic", r).
				Msg("promise listener panicked")
		}
	}()
	fn(err)
}
