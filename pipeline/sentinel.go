// File: pipeline/sentinel.go
// Package pipeline implements the head and tail sentinel handlers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"net"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/internal/logutil"
)

const (
	headName = "head"
	tailName = "tail"
)

// headHandler is the transport boundary. Outbound operations that reach
// it are translated into exactly one transport call whose result
// completes the operation's promise; inbound events entering at the
// head are forwarded unchanged toward the tail.
type headHandler struct {
	transport api.Transport
}

func (h *headHandler) HandlerAdded(api.Context)   {}
func (h *headHandler) HandlerRemoved(api.Context) {}

func (h *headHandler) ChannelRegistered(ctx api.Context)   { ctx.FireChannelRegistered() }
func (h *headHandler) ChannelUnregistered(ctx api.Context) { ctx.FireChannelUnregistered() }
func (h *headHandler) ChannelActive(ctx api.Context)       { ctx.FireChannelActive() }
func (h *headHandler) ChannelInactive(ctx api.Context)     { ctx.FireChannelInactive() }
func (h *headHandler) ChannelRead(ctx api.Context, msg any) {
	ctx.FireChannelRead(msg)
}
func (h *headHandler) ChannelReadComplete(ctx api.Context) { ctx.FireChannelReadComplete() }
func (h *headHandler) ChannelWritabilityChanged(ctx api.Context) {
	ctx.FireChannelWritabilityChanged()
}
func (h *headHandler) UserEventTriggered(ctx api.Context, evt any) {
	ctx.FireUserEventTriggered(evt)
}
func (h *headHandler) ExceptionCaught(ctx api.Context, err error) {
	ctx.FireExceptionCaught(err)
}

// terminate completes the promise with the transport outcome. The head
// is the sole completer on the success path, keeping the exactly-once
// invariant.
func terminate(p api.Promise, err error) {
	if !p.Complete(err) {
		logutil.Logger().Warn().Msg("outbound promise was already completed before the transport action")
	}
}

func (h *headHandler) Bind(ctx api.Context, addr net.Addr, p api.Promise) {
	terminate(p, h.transport.Bind(addr))
}

func (h *headHandler) Connect(ctx api.Context, remote, local net.Addr, p api.Promise) {
	terminate(p, h.transport.Connect(remote, local))
}

func (h *headHandler) Disconnect(ctx api.Context, p api.Promise) {
	terminate(p, h.transport.Disconnect())
}

func (h *headHandler) Close(ctx api.Context, p api.Promise) {
	terminate(p, h.transport.Close())
}

func (h *headHandler) Deregister(ctx api.Context, p api.Promise) {
	terminate(p, h.transport.Deregister())
}

func (h *headHandler) Read(ctx api.Context) {
	if err := h.transport.BeginRead(); err != nil {
		ctx.FireExceptionCaught(err)
	}
}

func (h *headHandler) Write(ctx api.Context, msg any, p api.Promise) {
	terminate(p, h.transport.Write(msg))
}

func (h *headHandler) Flush(ctx api.Context) {
	if err := h.transport.Flush(); err != nil {
		ctx.FireExceptionCaught(err)
	}
}

// tailHandler terminates inbound propagation. Events that reach it were
// consumed by nobody; they are dropped, never silently: reads release
// their payload, errors are logged loudly because an unhandled error
// usually means a missing terminal handler.
type tailHandler struct{}

func (t *tailHandler) HandlerAdded(api.Context)   {}
func (t *tailHandler) HandlerRemoved(api.Context) {}

func (t *tailHandler) ChannelRegistered(api.Context)         {}
func (t *tailHandler) ChannelUnregistered(api.Context)       {}
func (t *tailHandler) ChannelActive(api.Context)             {}
func (t *tailHandler) ChannelInactive(api.Context)           {}
func (t *tailHandler) ChannelReadComplete(api.Context)       {}
func (t *tailHandler) ChannelWritabilityChanged(api.Context) {}

func (t *tailHandler) ChannelRead(ctx api.Context, msg any) {
	logutil.Logger().Debug().
		Msgf("discarded inbound message reaching the tail: %T", msg)
	if r, ok := msg.(api.Releasable); ok {
		r.Release()
	}
}

func (t *tailHandler) UserEventTriggered(ctx api.Context, evt any) {
	logutil.Logger().Debug().
		Msgf("discarded user event reaching the tail: %T", evt)
	if r, ok := evt.(api.Releasable); ok {
		r.Release()
	}
}

func (t *tailHandler) ExceptionCaught(ctx api.Context, err error) {
	logutil.Logger().Warn().
		Err(err).
		Msg("an error reached the tail of the pipeline unhandled; add a terminal handler to treat it")
}
