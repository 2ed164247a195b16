// File: api/context.go
// Package api defines the per-attachment context contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Context binds one Handler to one position in one Pipeline. A handler
// instance added to several pipelines (or several times to one) receives
// a distinct Context per attachment, each with its own name, attribute
// space, and removed flag.
//
// The Fire* methods continue inbound propagation from this context
// toward the tail; the outbound methods continue propagation toward the
// head. Both families are safe to call from any goroutine: invocation
// is marshalled onto the pipeline's executor when the caller is not
// already on it.
type Context interface {
	// Name is the unique name of this context within its pipeline.
	Name() string
	// Handler returns the handler bound to this context.
	Handler() Handler
	// Pipeline returns the owning pipeline.
	Pipeline() Pipeline
	// Executor returns the execution affinity of this context.
	Executor() Executor
	// IsRemoved reports whether this context has been unlinked from
	// its pipeline. Once true it stays true; dispatch through a
	// removed context routes around it.
	IsRemoved() bool

	// Attr and SetAttr access this context's own attribute space.
	// State kept here is per-attachment, never shared between the
	// contexts of a shareable handler.
	Attr(key string) (any, bool)
	SetAttr(key string, value any)

	FireChannelRegistered() Context
	FireChannelUnregistered() Context
	FireChannelActive() Context
	FireChannelInactive() Context
	FireChannelRead(msg any) Context
	FireChannelReadComplete() Context
	FireChannelWritabilityChanged() Context
	FireUserEventTriggered(evt any) Context
	FireExceptionCaught(err error) Context

	Bind(addr net.Addr) Promise
	Connect(remote, local net.Addr) Promise
	Disconnect() Promise
	Close() Promise
	Deregister() Promise
	Read() Context
	Write(msg any) Promise
	Flush() Context
	WriteAndFlush(msg any) Promise

	// Promise-threading variants used by outbound handlers to forward
	// an in-flight operation without minting a fresh promise. Each
	// returns the promise it was given.
	BindWith(addr net.Addr, p Promise) Promise
	ConnectWith(remote, local net.Addr, p Promise) Promise
	DisconnectWith(p Promise) Promise
	CloseWith(p Promise) Promise
	DeregisterWith(p Promise) Promise
	WriteWith(msg any, p Promise) Promise
}
