// File: api/handler.go
// Package api defines handler capability contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Handler is the base contract every pipeline handler satisfies.
// HandlerAdded fires exactly once when the handler's context is wired
// into a pipeline chain; HandlerRemoved fires exactly once when the
// context is unlinked.
type Handler interface {
	HandlerAdded(ctx Context)
	HandlerRemoved(ctx Context)
}

// InboundHandler intercepts events flowing from the transport toward
// the application. Implementations receive the context bound to their
// position and decide whether to consume, transform, or forward each
// event via the ctx.Fire* methods.
type InboundHandler interface {
	Handler

	ChannelRegistered(ctx Context)
	ChannelUnregistered(ctx Context)
	ChannelActive(ctx Context)
	ChannelInactive(ctx Context)
	// ChannelRead receives one inbound payload. Ownership of msg
	// transfers to the handler; forward it or release it.
	ChannelRead(ctx Context, msg any)
	ChannelReadComplete(ctx Context)
	ChannelWritabilityChanged(ctx Context)
	UserEventTriggered(ctx Context, evt any)
	// ExceptionCaught handles an inbound error. Handlers that do not
	// treat errors must forward unchanged so a terminal handler can
	// still observe the failure.
	ExceptionCaught(ctx Context, err error)
}

// OutboundHandler intercepts operations flowing from the application
// toward the transport. Each completing operation threads a Promise
// that is completed exactly once by the terminal node.
type OutboundHandler interface {
	Handler

	Bind(ctx Context, addr net.Addr, p Promise)
	Connect(ctx Context, remote, local net.Addr, p Promise)
	Disconnect(ctx Context, p Promise)
	Close(ctx Context, p Promise)
	Deregister(ctx Context, p Promise)
	Read(ctx Context)
	Write(ctx Context, msg any, p Promise)
	Flush(ctx Context)
}

// Shareable marks a handler instance as safe to bind to more than one
// context concurrently. A shareable handler must keep connection state
// in the context attribute space, never in its own fields. Binding a
// handler that does not implement Shareable to a second context is a
// configuration error.
type Shareable interface {
	IsShareable() bool
}
