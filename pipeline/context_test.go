// File: pipeline/context_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pipeline/adapters"
	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/fake"
	"github.com/momentics/hioload-pipeline/pipeline"
)

// panicOnRead blows up on the first inbound message.
type panicOnRead struct {
	adapters.Inbound
	cause any
}

func (h *panicOnRead) ChannelRead(api.Context, any) { panic(h.cause) }

// panicOnWrite blows up on the first outbound write.
type panicOnWrite struct {
	adapters.Outbound
	cause any
}

func (h *panicOnWrite) Write(api.Context, any, api.Promise) { panic(h.cause) }

// errorSink records errors arriving at ExceptionCaught.
type errorSink struct {
	adapters.Inbound
	got []error
}

func (h *errorSink) ExceptionCaught(ctx api.Context, err error) {
	h.got = append(h.got, err)
}

func TestInboundPanicBecomesExceptionCaught(t *testing.T) {
	cause := errors.New("decode failed")
	sink := &errorSink{}
	pl := pipeline.New(fake.NewTransport())
	require.NoError(t, pl.AddLast("boom", &panicOnRead{cause: cause}))
	require.NoError(t, pl.AddLast("sink", sink))

	pl.FireChannelRead("msg")

	require.Len(t, sink.got, 1)
	assert.ErrorIs(t, sink.got[0], cause)
}

func TestInboundPanicWithNonErrorValue(t *testing.T) {
	sink := &errorSink{}
	pl := pipeline.New(fake.NewTransport())
	require.NoError(t, pl.AddLast("boom", &panicOnRead{cause: "index out of range"}))
	require.NoError(t, pl.AddLast("sink", sink))

	pl.FireChannelRead("msg")

	require.Len(t, sink.got, 1)
	assert.Contains(t, sink.got[0].Error(), "index out of range")
}

func TestOutboundPanicFailsThePromise(t *testing.T) {
	cause := errors.New("encode failed")
	tr := fake.NewTransport()
	pl := pipeline.New(tr)
	require.NoError(t, pl.AddLast("boom", &panicOnWrite{cause: cause}))

	p := pl.Write("payload")

	require.True(t, p.IsDone())
	assert.ErrorIs(t, p.Err(), cause)
	assert.Empty(t, tr.Calls())
}

func TestExceptionEventSkipsEarlierHandlers(t *testing.T) {
	cause := errors.New("boom")
	first := &errorSink{}
	second := &errorSink{}
	pl := pipeline.New(fake.NewTransport())
	require.NoError(t, pl.AddLast("first", first))
	require.NoError(t, pl.AddLast("boom", &panicOnRead{cause: cause}))
	require.NoError(t, pl.AddLast("second", second))

	pl.FireChannelRead("msg")

	// the error continues from the panicking context toward the tail
	assert.Empty(t, first.got)
	require.Len(t, second.got, 1)
}

// released tracks whether the tail released an unhandled payload.
type released struct {
	freed bool
}

func (r *released) Release() { r.freed = true }

func TestTailReleasesUnhandledMessage(t *testing.T) {
	msg := &released{}
	pl := pipeline.New(fake.NewTransport())

	pl.FireChannelRead(msg)

	assert.True(t, msg.freed)
}

func TestContextAccessors(t *testing.T) {
	h := &errorSink{}
	pl := pipeline.New(fake.NewTransport())
	require.NoError(t, pl.AddLast("sink", h))

	ctx := pl.ContextByName("sink")
	require.NotNil(t, ctx)
	assert.Equal(t, "sink", ctx.Name())
	assert.Same(t, h, ctx.Handler())
	assert.Same(t, pl, ctx.Pipeline())
	assert.False(t, ctx.IsRemoved())
	assert.Nil(t, pl.ContextByName("missing"))
}
