// File: pipeline/pipeline_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline_test

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pipeline/adapters"
	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/executor"
	"github.com/momentics/hioload-pipeline/fake"
	"github.com/momentics/hioload-pipeline/pipeline"
)

// eventLog collects dispatch traces from handlers under test.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// recorder traces reads and writes through a duplex handler.
type recorder struct {
	adapters.Duplex
	id  string
	log *eventLog
}

func (r *recorder) ChannelRead(ctx api.Context, msg any) {
	r.log.add(r.id + ":read")
	ctx.FireChannelRead(msg)
}

func (r *recorder) Write(ctx api.Context, msg any, p api.Promise) {
	r.log.add(r.id + ":write")
	ctx.WriteWith(msg, p)
}

func (r *recorder) HandlerAdded(api.Context)   { r.log.add(r.id + ":added") }
func (r *recorder) HandlerRemoved(api.Context) { r.log.add(r.id + ":removed") }

// inboundOnly observes reads and has no outbound capability.
type inboundOnly struct {
	adapters.Inbound
	id  string
	log *eventLog
}

func (h *inboundOnly) ChannelRead(ctx api.Context, msg any) {
	h.log.add(h.id + ":read")
	ctx.FireChannelRead(msg)
}

// outboundOnly observes writes and has no inbound capability.
type outboundOnly struct {
	adapters.Outbound
	id  string
	log *eventLog
}

func (h *outboundOnly) Write(ctx api.Context, msg any, p api.Promise) {
	h.log.add(h.id + ":write")
	ctx.WriteWith(msg, p)
}

// sharedCounter is bindable into any number of pipelines.
type sharedCounter struct {
	adapters.Inbound
}

func (*sharedCounter) IsShareable() bool { return true }

func newChain(t *testing.T, log *eventLog, ids ...string) (api.Pipeline, *fake.Transport) {
	t.Helper()
	tr := fake.NewTransport()
	pl := pipeline.New(tr)
	for _, id := range ids {
		require.NoError(t, pl.AddLast(id, &recorder{id: id, log: log}))
	}
	return pl, tr
}

func TestInboundRunsHeadToTail(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h2", "h3")

	pl.FireChannelRead("msg")

	assert.Equal(t, []string{
		"h1:added", "h2:added", "h3:added",
		"h1:read", "h2:read", "h3:read",
	}, log.snapshot())
}

func TestOutboundRunsTailToHead(t *testing.T) {
	log := &eventLog{}
	pl, tr := newChain(t, log, "h1", "h2", "h3")

	p := pl.Write("payload")

	require.True(t, p.IsDone())
	assert.NoError(t, p.Err())
	assert.Equal(t, []string{
		"h1:added", "h2:added", "h3:added",
		"h3:write", "h2:write", "h1:write",
	}, log.snapshot())
	assert.Equal(t, []any{"payload"}, tr.Written())
}

func TestDispatchSkipsUninterestedHandlers(t *testing.T) {
	log := &eventLog{}
	tr := fake.NewTransport()
	pl := pipeline.New(tr)
	require.NoError(t, pl.AddLast("in", &inboundOnly{id: "in", log: log}))
	require.NoError(t, pl.AddLast("out", &outboundOnly{id: "out", log: log}))
	require.NoError(t, pl.AddLast("both", &recorder{id: "both", log: log}))

	pl.FireChannelRead("m")
	pl.Write("m")

	assert.Equal(t, []string{
		"both:added",
		"in:read", "both:read",
		"both:write", "out:write",
	}, log.snapshot())
}

func TestRemovedHandlerIsBypassed(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h2", "h3")

	mid, err := pl.RemoveByName("h2")
	require.NoError(t, err)
	require.NotNil(t, mid)

	pl.FireChannelRead("msg")

	assert.Equal(t, []string{
		"h1:added", "h2:added", "h3:added",
		"h2:removed",
		"h1:read", "h3:read",
	}, log.snapshot())
}

func TestFiringFromRemovedContextReachesFormerNeighbors(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h2", "h3")

	ctx := pl.ContextByName("h2")
	require.NotNil(t, ctx)
	_, err := pl.RemoveByName("h2")
	require.NoError(t, err)
	require.True(t, ctx.IsRemoved())

	ctx.FireChannelRead("late")

	assert.Contains(t, log.snapshot(), "h3:read")
	assert.NotContains(t, log.snapshot(), "h1:read")
}

func TestDuplicateNameRejected(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1")

	err := pl.AddLast("h1", &recorder{id: "dup", log: log})
	require.Error(t, err)
	assert.ErrorContains(t, err, api.ErrDuplicateName.Error())
	assert.Equal(t, []string{"h1"}, pl.Names())
}

func TestSentinelNamesAreReserved(t *testing.T) {
	pl := pipeline.New(fake.NewTransport())

	assert.Error(t, pl.AddLast("head", &sharedCounter{}))
	assert.Error(t, pl.AddFirst("tail", &sharedCounter{}))
	_, err := pl.RemoveByName("head")
	assert.ErrorIs(t, err, api.ErrSentinel)
	_, err = pl.Replace("tail", "", &sharedCounter{})
	assert.ErrorIs(t, err, api.ErrSentinel)
}

func TestNonShareableHandlerCannotBindTwice(t *testing.T) {
	log := &eventLog{}
	h := &recorder{id: "solo", log: log}
	p1 := pipeline.New(fake.NewTransport())
	p2 := pipeline.New(fake.NewTransport())

	require.NoError(t, p1.AddLast("solo", h))
	err := p2.AddLast("solo", h)
	assert.ErrorIs(t, err, api.ErrNotShareable)

	// removal releases the binding
	require.NoError(t, p1.Remove(h))
	assert.NoError(t, p2.AddLast("solo", h))
}

func TestShareableHandlerBindsEverywhere(t *testing.T) {
	h := &sharedCounter{}
	p1 := pipeline.New(fake.NewTransport())
	p2 := pipeline.New(fake.NewTransport())

	require.NoError(t, p1.AddLast("shared", h))
	require.NoError(t, p2.AddLast("shared", h))
}

func TestSharedHandlerContextsHaveSeparateAttrs(t *testing.T) {
	h := &sharedCounter{}
	p1 := pipeline.New(fake.NewTransport())
	p2 := pipeline.New(fake.NewTransport())
	require.NoError(t, p1.AddLast("shared", h))
	require.NoError(t, p2.AddLast("shared", h))

	c1 := p1.Context(h)
	c2 := p2.Context(h)
	require.NotNil(t, c1)
	require.NotNil(t, c2)

	c1.SetAttr("conn", "a")
	c2.SetAttr("conn", "b")

	v1, ok := c1.Attr("conn")
	require.True(t, ok)
	v2, ok := c2.Attr("conn")
	require.True(t, ok)
	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)
}

func TestAddBeforeAndAfterPlacement(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h3")

	require.NoError(t, pl.AddBefore("h3", "h2", &recorder{id: "h2", log: log}))
	require.NoError(t, pl.AddAfter("h3", "h4", &recorder{id: "h4", log: log}))

	assert.Equal(t, []string{"h1", "h2", "h3", "h4"}, pl.Names())

	err := pl.AddBefore("missing", "x", &recorder{id: "x", log: log})
	assert.ErrorIs(t, err, api.ErrHandlerNotFound)
}

func TestReplaceSwapsHandlerInPlace(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h2", "h3")

	old, err := pl.Replace("h2", "h2b", &recorder{id: "h2b", log: log})
	require.NoError(t, err)
	assert.Equal(t, "h2", old.(*recorder).id)
	assert.Equal(t, []string{"h1", "h2b", "h3"}, pl.Names())

	pl.FireChannelRead("m")
	assert.Equal(t, []string{
		"h1:added", "h2:added", "h3:added",
		"h2b:added", "h2:removed",
		"h1:read", "h2b:read", "h3:read",
	}, log.snapshot())
}

func TestEventFromReplacedContextPassesThroughReplacement(t *testing.T) {
	log := &eventLog{}
	pl, _ := newChain(t, log, "h1", "h2", "h3")

	stale := pl.ContextByName("h2")
	require.NotNil(t, stale)
	_, err := pl.Replace("h2", "h2b", &recorder{id: "h2b", log: log})
	require.NoError(t, err)

	stale.FireChannelRead("late")

	snap := log.snapshot()
	assert.Contains(t, snap, "h2b:read")
	assert.Contains(t, snap, "h3:read")
	assert.NotContains(t, snap, "h1:read")
}

func TestRejectedDispatchFailsThePromise(t *testing.T) {
	loop := executor.NewLoop()
	loop.Close()
	pl := pipeline.New(fake.NewTransport(), pipeline.WithExecutor(loop))

	p := pl.Write("payload")

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("promise never completed after executor rejected dispatch")
	}
	assert.ErrorIs(t, p.Err(), api.ErrExecutorClosed)
}

func TestGeneratedNamesAreUnique(t *testing.T) {
	log := &eventLog{}
	pl := pipeline.New(fake.NewTransport())
	require.NoError(t, pl.AddLast("", &recorder{id: "a", log: log}))
	require.NoError(t, pl.AddLast("", &recorder{id: "b", log: log}))

	names := pl.Names()
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
}

func TestTransportFailureFailsThePromise(t *testing.T) {
	boom := errors.New("connection reset")
	tr := fake.NewTransport()
	tr.FailWith("write", boom)
	pl := pipeline.New(tr)

	p := pl.Write("payload")

	require.True(t, p.IsDone())
	assert.ErrorIs(t, p.Err(), boom)
}

func TestBindReachesTransport(t *testing.T) {
	tr := fake.NewTransport()
	pl := pipeline.New(tr)
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}

	p := pl.Bind(addr)

	require.True(t, p.IsDone())
	assert.NoError(t, p.Err())
	assert.Equal(t, []string{"bind"}, tr.Calls())
}

func TestWriteAndFlushOrdersTransportCalls(t *testing.T) {
	tr := fake.NewTransport()
	pl := pipeline.New(tr)

	p := pl.WriteAndFlush("payload")

	require.True(t, p.IsDone())
	assert.NoError(t, p.Err())
	assert.Equal(t, []string{"write", "flush"}, tr.Calls())
}
