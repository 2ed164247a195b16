// File: fake/transport.go
// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the transport
// boundary a pipeline's head drives.

package fake

import (
	"net"
	"sync"

	"github.com/momentics/hioload-pipeline/api"
)

// Transport is a recording implementation of api.Transport. Every
// operation appends its name to Calls and returns the error configured
// for it, nil otherwise.
type Transport struct {
	mu      sync.Mutex
	calls   []string
	written []any
	errs    map[string]error
}

// NewTransport creates a fake transport that succeeds on every call.
func NewTransport() *Transport {
	return &Transport{errs: make(map[string]error)}
}

// FailWith makes the named operation ("bind", "connect", "disconnect",
// "close", "deregister", "read", "write", "flush") return err.
func (t *Transport) FailWith(op string, err error) {
	t.mu.Lock()
	t.errs[op] = err
	t.mu.Unlock()
}

// Calls returns a copy of the recorded operation names, in order.
func (t *Transport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

// Written returns a copy of the messages passed to Write, in order.
func (t *Transport) Written() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]any, len(t.written))
	copy(out, t.written)
	return out
}

func (t *Transport) record(op string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, op)
	return t.errs[op]
}

func (t *Transport) Bind(addr net.Addr) error             { return t.record("bind") }
func (t *Transport) Connect(remote, local net.Addr) error { return t.record("connect") }
func (t *Transport) Disconnect() error                    { return t.record("disconnect") }
func (t *Transport) Close() error                         { return t.record("close") }
func (t *Transport) Deregister() error                    { return t.record("deregister") }
func (t *Transport) BeginRead() error                     { return t.record("read") }
func (t *Transport) Flush() error                         { return t.record("flush") }

func (t *Transport) Write(msg any) error {
	t.mu.Lock()
	t.calls = append(t.calls, "write")
	t.written = append(t.written, msg)
	err := t.errs["write"]
	t.mu.Unlock()
	return err
}

var _ api.Transport = (*Transport)(nil)
