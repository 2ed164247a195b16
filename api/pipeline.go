// File: api/pipeline.go
// Package api defines the pipeline contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Pipeline owns an ordered chain of handler contexts bounded by fixed
// head and tail sentinels. The head represents the transport boundary;
// the tail terminates inbound propagation. The chain is never empty.
//
// Mutation is safe from any goroutine. Traversal order is deterministic
// insertion order; removing or replacing a node preserves the relative
// order of the remainder.
type Pipeline interface {
	// AddFirst inserts a handler right after the head sentinel.
	// An empty name is auto-generated from the handler type.
	AddFirst(name string, h Handler) error
	// AddLast inserts a handler right before the tail sentinel.
	AddLast(name string, h Handler) error
	// AddBefore inserts a handler before the named context.
	AddBefore(base, name string, h Handler) error
	// AddAfter inserts a handler after the named context.
	AddAfter(base, name string, h Handler) error
	// Remove unlinks the context bound to h.
	Remove(h Handler) error
	// RemoveByName unlinks the named context and returns its handler.
	RemoveByName(name string) (Handler, error)
	// Replace swaps the named context's handler for a new one, keeping
	// the position, and returns the replaced handler.
	Replace(name, newName string, h Handler) (Handler, error)

	// Context returns the context bound to h, or nil.
	Context(h Handler) Context
	// ContextByName returns the named context, or nil.
	ContextByName(name string) Context
	// Names lists the user handler names in traversal order.
	Names() []string

	// Executor returns the pipeline's execution affinity, or nil when
	// the pipeline runs caller-inline.
	Executor() Executor
	// Transport returns the transport bound to the head sentinel.
	Transport() Transport

	// Inbound entry points: events enter at the head sentinel and
	// propagate toward the tail.
	FireChannelRegistered() Pipeline
	FireChannelUnregistered() Pipeline
	FireChannelActive() Pipeline
	FireChannelInactive() Pipeline
	FireChannelRead(msg any) Pipeline
	FireChannelReadComplete() Pipeline
	FireChannelWritabilityChanged() Pipeline
	FireUserEventTriggered(evt any) Pipeline
	FireExceptionCaught(err error) Pipeline

	// Outbound entry points: operations start at the tail and
	// propagate toward the head sentinel.
	Bind(addr net.Addr) Promise
	Connect(remote, local net.Addr) Promise
	Disconnect() Promise
	Close() Promise
	Deregister() Promise
	Read() Pipeline
	Write(msg any) Promise
	Flush() Pipeline
	WriteAndFlush(msg any) Promise
}
