// File: adapters/handler_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Embeddable forwarding bases for pipeline handlers. Embedding one
// gives a handler the full capability interface while overriding only
// the callbacks it cares about; everything else forwards unchanged.

package adapters

import (
	"net"

	"github.com/momentics/hioload-pipeline/api"
)

// Base provides no-op lifecycle callbacks. Every adapter embeds it.
type Base struct{}

func (Base) HandlerAdded(api.Context)   {}
func (Base) HandlerRemoved(api.Context) {}

// Inbound forwards every inbound event to the next inbound handler.
type Inbound struct {
	Base
}

func (Inbound) ChannelRegistered(ctx api.Context)   { ctx.FireChannelRegistered() }
func (Inbound) ChannelUnregistered(ctx api.Context) { ctx.FireChannelUnregistered() }
func (Inbound) ChannelActive(ctx api.Context)       { ctx.FireChannelActive() }
func (Inbound) ChannelInactive(ctx api.Context)     { ctx.FireChannelInactive() }
func (Inbound) ChannelRead(ctx api.Context, msg any) {
	ctx.FireChannelRead(msg)
}
func (Inbound) ChannelReadComplete(ctx api.Context) { ctx.FireChannelReadComplete() }
func (Inbound) ChannelWritabilityChanged(ctx api.Context) {
	ctx.FireChannelWritabilityChanged()
}
func (Inbound) UserEventTriggered(ctx api.Context, evt any) {
	ctx.FireUserEventTriggered(evt)
}
func (Inbound) ExceptionCaught(ctx api.Context, err error) {
	ctx.FireExceptionCaught(err)
}

// Outbound forwards every outbound operation to the previous outbound
// handler, threading the caller's promise through unchanged.
type Outbound struct {
	Base
}

func (Outbound) Bind(ctx api.Context, addr net.Addr, p api.Promise) {
	ctx.BindWith(addr, p)
}
func (Outbound) Connect(ctx api.Context, remote, local net.Addr, p api.Promise) {
	ctx.ConnectWith(remote, local, p)
}
func (Outbound) Disconnect(ctx api.Context, p api.Promise) { ctx.DisconnectWith(p) }
func (Outbound) Close(ctx api.Context, p api.Promise)      { ctx.CloseWith(p) }
func (Outbound) Deregister(ctx api.Context, p api.Promise) { ctx.DeregisterWith(p) }
func (Outbound) Read(ctx api.Context)                      { ctx.Read() }
func (Outbound) Write(ctx api.Context, msg any, p api.Promise) {
	ctx.WriteWith(msg, p)
}
func (Outbound) Flush(ctx api.Context) { ctx.Flush() }

// Duplex forwards in both directions. Written out in full rather than
// embedding Inbound and Outbound, which would make the shared
// lifecycle methods ambiguous.
type Duplex struct {
	Base
}

func (Duplex) ChannelRegistered(ctx api.Context)   { ctx.FireChannelRegistered() }
func (Duplex) ChannelUnregistered(ctx api.Context) { ctx.FireChannelUnregistered() }
func (Duplex) ChannelActive(ctx api.Context)       { ctx.FireChannelActive() }
func (Duplex) ChannelInactive(ctx api.Context)     { ctx.FireChannelInactive() }
func (Duplex) ChannelRead(ctx api.Context, msg any) {
	ctx.FireChannelRead(msg)
}
func (Duplex) ChannelReadComplete(ctx api.Context) { ctx.FireChannelReadComplete() }
func (Duplex) ChannelWritabilityChanged(ctx api.Context) {
	ctx.FireChannelWritabilityChanged()
}
func (Duplex) UserEventTriggered(ctx api.Context, evt any) {
	ctx.FireUserEventTriggered(evt)
}
func (Duplex) ExceptionCaught(ctx api.Context, err error) {
	ctx.FireExceptionCaught(err)
}

func (Duplex) Bind(ctx api.Context, addr net.Addr, p api.Promise) {
	ctx.BindWith(addr, p)
}
func (Duplex) Connect(ctx api.Context, remote, local net.Addr, p api.Promise) {
	ctx.ConnectWith(remote, local, p)
}
func (Duplex) Disconnect(ctx api.Context, p api.Promise) { ctx.DisconnectWith(p) }
func (Duplex) Close(ctx api.Context, p api.Promise)      { ctx.CloseWith(p) }
func (Duplex) Deregister(ctx api.Context, p api.Promise) { ctx.DeregisterWith(p) }
func (Duplex) Read(ctx api.Context)                      { ctx.Read() }
func (Duplex) Write(ctx api.Context, msg any, p api.Promise) {
	ctx.WriteWith(msg, p)
}
func (Duplex) Flush(ctx api.Context) { ctx.Flush() }

// ChannelReadFunc adapts a plain function into an inbound handler that
// only observes reads.
type ChannelReadFunc func(ctx api.Context, msg any)

func (ChannelReadFunc) HandlerAdded(api.Context)   {}
func (ChannelReadFunc) HandlerRemoved(api.Context) {}

func (ChannelReadFunc) ChannelRegistered(ctx api.Context)   { ctx.FireChannelRegistered() }
func (ChannelReadFunc) ChannelUnregistered(ctx api.Context) { ctx.FireChannelUnregistered() }
func (ChannelReadFunc) ChannelActive(ctx api.Context)       { ctx.FireChannelActive() }
func (ChannelReadFunc) ChannelInactive(ctx api.Context)     { ctx.FireChannelInactive() }
func (f ChannelReadFunc) ChannelRead(ctx api.Context, msg any) {
	f(ctx, msg)
}
func (ChannelReadFunc) ChannelReadComplete(ctx api.Context) { ctx.FireChannelReadComplete() }
func (ChannelReadFunc) ChannelWritabilityChanged(ctx api.Context) {
	ctx.FireChannelWritabilityChanged()
}
func (ChannelReadFunc) UserEventTriggered(ctx api.Context, evt any) {
	ctx.FireUserEventTriggered(evt)
}
func (ChannelReadFunc) ExceptionCaught(ctx api.Context, err error) {
	ctx.FireExceptionCaught(err)
}

var (
	_ api.InboundHandler  = Inbound{}
	_ api.OutboundHandler = Outbound{}
	_ api.InboundHandler  = Duplex{}
	_ api.OutboundHandler = Duplex{}
	_ api.InboundHandler  = ChannelReadFunc(nil)
)
