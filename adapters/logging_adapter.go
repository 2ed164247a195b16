// File: adapters/logging_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event-tracing handler. Logs every event passing through it, then
// forwards. Stateless and safe to bind into multiple pipelines.

package adapters

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/internal/logutil"
)

// Logging traces pipeline traffic at the configured level.
type Logging struct {
	Level zerolog.Level
}

// NewLogging returns a tracer logging at debug level.
func NewLogging() *Logging {
	return &Logging{Level: zerolog.DebugLevel}
}

func (l *Logging) IsShareable() bool { return true }

func typeName(v any) string { return fmt.Sprintf("%T", v) }

func (l *Logging) log(ctx api.Context, event string) *zerolog.Event {
	return logutil.Logger().WithLevel(l.Level).
		Str("ctx", ctx.Name()).
		Str("event", event)
}

func (l *Logging) HandlerAdded(api.Context)   {}
func (l *Logging) HandlerRemoved(api.Context) {}

func (l *Logging) ChannelRegistered(ctx api.Context) {
	l.log(ctx, "registered").Send()
	ctx.FireChannelRegistered()
}

func (l *Logging) ChannelUnregistered(ctx api.Context) {
	l.log(ctx, "unregistered").Send()
	ctx.FireChannelUnregistered()
}

func (l *Logging) ChannelActive(ctx api.Context) {
	l.log(ctx, "active").Send()
	ctx.FireChannelActive()
}

func (l *Logging) ChannelInactive(ctx api.Context) {
	l.log(ctx, "inactive").Send()
	ctx.FireChannelInactive()
}

func (l *Logging) ChannelRead(ctx api.Context, msg any) {
	l.log(ctx, "read").Str("type", typeName(msg)).Send()
	ctx.FireChannelRead(msg)
}

func (l *Logging) ChannelReadComplete(ctx api.Context) {
	l.log(ctx, "read_complete").Send()
	ctx.FireChannelReadComplete()
}

func (l *Logging) ChannelWritabilityChanged(ctx api.Context) {
	l.log(ctx, "writability_changed").Send()
	ctx.FireChannelWritabilityChanged()
}

func (l *Logging) UserEventTriggered(ctx api.Context, evt any) {
	l.log(ctx, "user_event").Str("type", typeName(evt)).Send()
	ctx.FireUserEventTriggered(evt)
}

func (l *Logging) ExceptionCaught(ctx api.Context, err error) {
	l.log(ctx, "exception").Err(err).Send()
	ctx.FireExceptionCaught(err)
}

func (l *Logging) Bind(ctx api.Context, addr net.Addr, p api.Promise) {
	l.log(ctx, "bind").Stringer("addr", addr).Send()
	ctx.BindWith(addr, p)
}

func (l *Logging) Connect(ctx api.Context, remote, local net.Addr, p api.Promise) {
	l.log(ctx, "connect").Stringer("remote", remote).Send()
	ctx.ConnectWith(remote, local, p)
}

func (l *Logging) Disconnect(ctx api.Context, p api.Promise) {
	l.log(ctx, "disconnect").Send()
	ctx.DisconnectWith(p)
}

func (l *Logging) Close(ctx api.Context, p api.Promise) {
	l.log(ctx, "close").Send()
	ctx.CloseWith(p)
}

func (l *Logging) Deregister(ctx api.Context, p api.Promise) {
	l.log(ctx, "deregister").Send()
	ctx.DeregisterWith(p)
}

func (l *Logging) Read(ctx api.Context) {
	l.log(ctx, "read_request").Send()
	ctx.Read()
}

func (l *Logging) Write(ctx api.Context, msg any, p api.Promise) {
	l.log(ctx, "write").Str("type", typeName(msg)).Send()
	ctx.WriteWith(msg, p)
}

func (l *Logging) Flush(ctx api.Context) {
	l.log(ctx, "flush").Send()
	ctx.Flush()
}

var (
	_ api.InboundHandler  = (*Logging)(nil)
	_ api.OutboundHandler = (*Logging)(nil)
	_ api.Shareable       = (*Logging)(nil)
)
