// File: pipeline/context.go
// Package pipeline implements the per-attachment handler context and
// the directional dispatch walks.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/internal/logutil"
)

// Context lifecycle states. handlerAdded fires exactly once on the
// init->added transition, handlerRemoved exactly once on the transition
// to removed.
const (
	stateInit int32 = iota
	stateAdded
	stateRemoved
)

type handlerContext struct {
	name     string
	handler  api.Handler
	pipeline *chainPipeline
	executor api.Executor

	// Capability axes, fixed at bind time.
	inbound  bool
	outbound bool

	state   atomic.Int32
	removed atomic.Bool

	// Links are written under the pipeline mutex and read lock-free by
	// dispatch. A removed context keeps its own links so an in-flight
	// traversal routes to its former neighbors.
	prev atomic.Pointer[handlerContext]
	next atomic.Pointer[handlerContext]

	// Per-attachment attribute space. Contexts of a shareable handler
	// each get their own.
	attrMu sync.RWMutex
	attrs  map[string]any
}

func newContext(p *chainPipeline, name string, h api.Handler) *handlerContext {
	_, in := h.(api.InboundHandler)
	_, out := h.(api.OutboundHandler)
	return &handlerContext{
		name:     name,
		handler:  h,
		pipeline: p,
		executor: p.executor,
		inbound:  in,
		outbound: out,
	}
}

func (c *handlerContext) Name() string           { return c.name }
func (c *handlerContext) Handler() api.Handler   { return c.handler }
func (c *handlerContext) Pipeline() api.Pipeline { return c.pipeline }
func (c *handlerContext) Executor() api.Executor { return c.executor }
func (c *handlerContext) IsRemoved() bool        { return c.removed.Load() }

func (c *handlerContext) Attr(key string) (any, bool) {
	c.attrMu.RLock()
	defer c.attrMu.RUnlock()
	v, ok := c.attrs[key]
	return v, ok
}

func (c *handlerContext) SetAttr(key string, value any) {
	c.attrMu.Lock()
	if c.attrs == nil {
		c.attrs = make(map[string]any)
	}
	c.attrs[key] = value
	c.attrMu.Unlock()
}

// findNextInbound walks toward the tail, skipping contexts whose
// handler declares no inbound capability and contexts already removed.
// The tail sentinel is inbound-capable and never removed, so the walk
// terminates.
func (c *handlerContext) findNextInbound() *handlerContext {
	n := c.next.Load()
	for !n.inbound || n.removed.Load() {
		n = n.next.Load()
	}
	return n
}

// findPrevOutbound walks toward the head, symmetric to
// findNextInbound. The head sentinel is outbound-capable.
func (c *handlerContext) findPrevOutbound() *handlerContext {
	n := c.prev.Load()
	for !n.outbound || n.removed.Load() {
		n = n.prev.Load()
	}
	return n
}

// invoke runs fn on the context's execution affinity: inline when
// already on it (or when the pipeline runs caller-inline), otherwise
// marshalled onto the executor. This makes every Fire*/outbound trigger
// safe to call from any goroutine.
func (c *handlerContext) invoke(fn func()) {
	if c.executor == nil || c.executor.InLoop() {
		fn()
		return
	}
	if err := c.executor.Submit(fn); err != nil {
		logutil.Logger().Error().
			Err(err).
			Str("ctx", c.name).
			Msg("event dropped: executor rejected dispatch")
	}
}

// invokeOutbound is invoke for promise-carrying operations. A rejected
// dispatch fails the promise, so a caller blocked on Done never hangs
// on an executor that shut down between trigger and delivery.
func (c *handlerContext) invokeOutbound(p api.Promise, fn func()) {
	if c.executor == nil || c.executor.InLoop() {
		fn()
		return
	}
	if err := c.executor.Submit(fn); err != nil {
		p.Complete(err)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("handler panic: %v", r)
}

// ---------------------------------------------------------------------
// Inbound propagation.
// ---------------------------------------------------------------------

// handleInboundPanic converts a panic in an inbound callback into an
// exception-caught event continuing from the panicking context, so a
// handler failure never unwinds into the event loop.
func (c *handlerContext) handleInboundPanic() {
	if r := recover(); r != nil {
		c.invokeExceptionCaught(panicError(r))
	}
}

func (c *handlerContext) FireChannelRegistered() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelRegistered() })
	return c
}

func (c *handlerContext) invokeChannelRegistered() {
	if c.removed.Load() {
		c.FireChannelRegistered()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelRegistered(c)
}

func (c *handlerContext) FireChannelUnregistered() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelUnregistered() })
	return c
}

func (c *handlerContext) invokeChannelUnregistered() {
	if c.removed.Load() {
		c.FireChannelUnregistered()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelUnregistered(c)
}

func (c *handlerContext) FireChannelActive() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelActive() })
	return c
}

func (c *handlerContext) invokeChannelActive() {
	if c.removed.Load() {
		c.FireChannelActive()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelActive(c)
}

func (c *handlerContext) FireChannelInactive() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelInactive() })
	return c
}

func (c *handlerContext) invokeChannelInactive() {
	if c.removed.Load() {
		c.FireChannelInactive()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelInactive(c)
}

func (c *handlerContext) FireChannelRead(msg any) api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelRead(msg) })
	return c
}

func (c *handlerContext) invokeChannelRead(msg any) {
	if c.removed.Load() {
		c.FireChannelRead(msg)
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelRead(c, msg)
}

func (c *handlerContext) FireChannelReadComplete() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelReadComplete() })
	return c
}

func (c *handlerContext) invokeChannelReadComplete() {
	if c.removed.Load() {
		c.FireChannelReadComplete()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelReadComplete(c)
}

func (c *handlerContext) FireChannelWritabilityChanged() api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeChannelWritabilityChanged() })
	return c
}

func (c *handlerContext) invokeChannelWritabilityChanged() {
	if c.removed.Load() {
		c.FireChannelWritabilityChanged()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).ChannelWritabilityChanged(c)
}

func (c *handlerContext) FireUserEventTriggered(evt any) api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeUserEventTriggered(evt) })
	return c
}

func (c *handlerContext) invokeUserEventTriggered(evt any) {
	if c.removed.Load() {
		c.FireUserEventTriggered(evt)
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.InboundHandler).UserEventTriggered(c, evt)
}

func (c *handlerContext) FireExceptionCaught(err error) api.Context {
	n := c.findNextInbound()
	n.invoke(func() { n.invokeExceptionCaught(err) })
	return c
}

// invokeExceptionCaught delivers err to this context's handler. A
// panicking exception handler cannot re-enter itself; the failure is
// logged and the original error forwarded so the chain's terminal
// handler still observes it.
func (c *handlerContext) invokeExceptionCaught(err error) {
	if c.removed.Load() || !c.inbound {
		c.FireExceptionCaught(err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logutil.Logger().Error().
				Str("ctx", c.name).
				Interface("panic", r).
				AnErr("original", err).
				Msg("exception handler panicked; forwarding original error")
			c.FireExceptionCaught(err)
		}
	}()
	c.handler.(api.InboundHandler).ExceptionCaught(c, err)
}

// ---------------------------------------------------------------------
// Outbound propagation.
// ---------------------------------------------------------------------

// failOnPanic converts a panic in a promise-carrying outbound callback
// into a promise failure instead of a pipeline event.
func failOnPanic(p api.Promise) {
	if r := recover(); r != nil {
		p.Complete(panicError(r))
	}
}

func (c *handlerContext) Bind(addr net.Addr) api.Promise {
	return c.BindWith(addr, NewPromise())
}

func (c *handlerContext) BindWith(addr net.Addr, p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeBind(addr, p) })
	return p
}

func (c *handlerContext) invokeBind(addr net.Addr, p api.Promise) {
	if c.removed.Load() {
		c.BindWith(addr, p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Bind(c, addr, p)
}

func (c *handlerContext) Connect(remote, local net.Addr) api.Promise {
	return c.ConnectWith(remote, local, NewPromise())
}

func (c *handlerContext) ConnectWith(remote, local net.Addr, p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeConnect(remote, local, p) })
	return p
}

func (c *handlerContext) invokeConnect(remote, local net.Addr, p api.Promise) {
	if c.removed.Load() {
		c.ConnectWith(remote, local, p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Connect(c, remote, local, p)
}

func (c *handlerContext) Disconnect() api.Promise {
	return c.DisconnectWith(NewPromise())
}

func (c *handlerContext) DisconnectWith(p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeDisconnect(p) })
	return p
}

func (c *handlerContext) invokeDisconnect(p api.Promise) {
	if c.removed.Load() {
		c.DisconnectWith(p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Disconnect(c, p)
}

func (c *handlerContext) Close() api.Promise {
	return c.CloseWith(NewPromise())
}

func (c *handlerContext) CloseWith(p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeClose(p) })
	return p
}

func (c *handlerContext) invokeClose(p api.Promise) {
	if c.removed.Load() {
		c.CloseWith(p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Close(c, p)
}

func (c *handlerContext) Deregister() api.Promise {
	return c.DeregisterWith(NewPromise())
}

func (c *handlerContext) DeregisterWith(p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeDeregister(p) })
	return p
}

func (c *handlerContext) invokeDeregister(p api.Promise) {
	if c.removed.Load() {
		c.DeregisterWith(p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Deregister(c, p)
}

func (c *handlerContext) Read() api.Context {
	n := c.findPrevOutbound()
	n.invoke(func() { n.invokeRead() })
	return c
}

func (c *handlerContext) invokeRead() {
	if c.removed.Load() {
		c.Read()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.OutboundHandler).Read(c)
}

func (c *handlerContext) Write(msg any) api.Promise {
	return c.WriteWith(msg, NewPromise())
}

func (c *handlerContext) WriteWith(msg any, p api.Promise) api.Promise {
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() { n.invokeWrite(msg, p) })
	return p
}

func (c *handlerContext) invokeWrite(msg any, p api.Promise) {
	if c.removed.Load() {
		c.WriteWith(msg, p)
		return
	}
	defer failOnPanic(p)
	c.handler.(api.OutboundHandler).Write(c, msg, p)
}

func (c *handlerContext) Flush() api.Context {
	n := c.findPrevOutbound()
	n.invoke(func() { n.invokeFlush() })
	return c
}

func (c *handlerContext) invokeFlush() {
	if c.removed.Load() {
		c.Flush()
		return
	}
	defer c.handleInboundPanic()
	c.handler.(api.OutboundHandler).Flush(c)
}

func (c *handlerContext) WriteAndFlush(msg any) api.Promise {
	p := NewPromise()
	n := c.findPrevOutbound()
	n.invokeOutbound(p, func() {
		n.invokeWrite(msg, p)
		n.invokeFlush()
	})
	return p
}

// ---------------------------------------------------------------------
// Lifecycle.
// ---------------------------------------------------------------------

// callHandlerAdded fires HandlerAdded exactly once, on the execution
// affinity.
func (c *handlerContext) callHandlerAdded() {
	c.invoke(func() {
		if !c.state.CompareAndSwap(stateInit, stateAdded) {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logutil.Logger().Error().
					Str("ctx", c.name).
					Interface("panic", r).
					Msg("HandlerAdded panicked")
			}
		}()
		c.handler.HandlerAdded(c)
	})
}

// callHandlerRemoved fires HandlerRemoved exactly once, after the
// context was unlinked.
func (c *handlerContext) callHandlerRemoved() {
	c.invoke(func() {
		prev := c.state.Swap(stateRemoved)
		if prev == stateRemoved || prev == stateInit {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logutil.Logger().Error().
					Str("ctx", c.name).
					Interface("panic", r).
					Msg("HandlerRemoved panicked")
			}
		}()
		c.handler.HandlerRemoved(c)
	})
}

var _ api.Context = (*handlerContext)(nil)
