// File: pipeline/pipeline.go
// Package pipeline implements the handler chain and its mutation API.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"net"
	"reflect"
	"strconv"
	"sync"

	"github.com/momentics/hioload-pipeline/api"
	"github.com/momentics/hioload-pipeline/locals"
)

type chainPipeline struct {
	mu        sync.Mutex // guards chain mutation
	head      *handlerContext
	tail      *handlerContext
	transport api.Transport
	executor  api.Executor
}

// Option configures a pipeline at construction.
type Option func(*chainPipeline)

// WithExecutor binds the pipeline to an execution affinity. Without
// one, dispatch runs caller-inline (useful for tests and embedding
// runtimes that already serialize per connection).
func WithExecutor(ex api.Executor) Option {
	return func(p *chainPipeline) { p.executor = ex }
}

// New builds a pipeline whose head sentinel drives the given transport.
// The chain initially contains only the two sentinels.
func New(transport api.Transport, opts ...Option) api.Pipeline {
	p := &chainPipeline{transport: transport}
	for _, o := range opts {
		o(p)
	}

	p.head = newContext(p, headName, &headHandler{transport: transport})
	p.tail = newContext(p, tailName, &tailHandler{})
	p.head.state.Store(stateAdded)
	p.tail.state.Store(stateAdded)
	p.head.next.Store(p.tail)
	p.tail.prev.Store(p.head)
	return p
}

func (p *chainPipeline) Executor() api.Executor   { return p.executor }
func (p *chainPipeline) Transport() api.Transport { return p.transport }

// ---------------------------------------------------------------------
// Shareable enforcement.
// ---------------------------------------------------------------------

// bindings counts live contexts per handler instance, across all
// pipelines, so a non-shareable handler bound twice is rejected at the
// mutation call. Handlers with uncomparable dynamic types cannot be
// tracked and are assumed exclusive by construction.
var (
	bindMu   sync.Mutex
	bindings = make(map[api.Handler]int)
)

// isShareable judges the handler and memoizes the per-type verdict in
// the calling unit's storage, so repeated binds skip the inspection.
func isShareable(h api.Handler) bool {
	t := reflect.TypeOf(h)
	cache := locals.Current().SharableCache()
	if v, ok := cache[t]; ok {
		return v
	}
	s, ok := h.(api.Shareable)
	v := ok && s.IsShareable()
	cache[t] = v
	return v
}

func acquireHandler(h api.Handler) error {
	if isShareable(h) {
		return nil
	}
	if !reflect.TypeOf(h).Comparable() {
		return nil
	}
	bindMu.Lock()
	defer bindMu.Unlock()
	if bindings[h] > 0 {
		return api.ErrNotShareable
	}
	bindings[h]++
	return nil
}

func releaseHandler(h api.Handler) {
	if isShareable(h) || !reflect.TypeOf(h).Comparable() {
		return
	}
	bindMu.Lock()
	if bindings[h] > 1 {
		bindings[h]--
	} else {
		delete(bindings, h)
	}
	bindMu.Unlock()
}

// ---------------------------------------------------------------------
// Mutation.
// ---------------------------------------------------------------------

// context0 finds a user context by name. Caller holds p.mu.
func (p *chainPipeline) context0(name string) *handlerContext {
	for c := p.head.next.Load(); c != p.tail; c = c.next.Load() {
		if c.name == name {
			return c
		}
	}
	return nil
}

// contextOf finds the context bound to h. Caller holds p.mu.
func (p *chainPipeline) contextOf(h api.Handler) *handlerContext {
	for c := p.head.next.Load(); c != p.tail; c = c.next.Load() {
		if c.handler == h {
			return c
		}
	}
	return nil
}

func (p *chainPipeline) generateName(h api.Handler) string {
	base := reflect.TypeOf(h).String() + "#"
	for i := 0; ; i++ {
		name := base + strconv.Itoa(i)
		if p.context0(name) == nil {
			return name
		}
	}
}

// checkAdd validates an insertion and reserves the handler binding.
// Caller holds p.mu. Pipeline state is unchanged on error.
func (p *chainPipeline) checkAdd(name string, h api.Handler) (string, error) {
	if name == "" {
		name = p.generateName(h)
	} else if name == headName || name == tailName || p.context0(name) != nil {
		return "", api.NewError(api.ErrCodeConfiguration, api.ErrDuplicateName.Error()).
			WithContext("name", name)
	}
	if err := acquireHandler(h); err != nil {
		return "", err
	}
	return name, nil
}

// insert links ctx between prev and next. Caller holds p.mu.
func (p *chainPipeline) insert(prev, next, ctx *handlerContext) {
	ctx.prev.Store(prev)
	ctx.next.Store(next)
	prev.next.Store(ctx)
	next.prev.Store(ctx)
}

func (p *chainPipeline) AddFirst(name string, h api.Handler) error {
	p.mu.Lock()
	name, err := p.checkAdd(name, h)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	ctx := newContext(p, name, h)
	p.insert(p.head, p.head.next.Load(), ctx)
	p.mu.Unlock()

	ctx.callHandlerAdded()
	return nil
}

func (p *chainPipeline) AddLast(name string, h api.Handler) error {
	p.mu.Lock()
	name, err := p.checkAdd(name, h)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	ctx := newContext(p, name, h)
	p.insert(p.tail.prev.Load(), p.tail, ctx)
	p.mu.Unlock()

	ctx.callHandlerAdded()
	return nil
}

func (p *chainPipeline) AddBefore(base, name string, h api.Handler) error {
	return p.addRelative(base, name, h, true)
}

func (p *chainPipeline) AddAfter(base, name string, h api.Handler) error {
	return p.addRelative(base, name, h, false)
}

func (p *chainPipeline) addRelative(base, name string, h api.Handler, before bool) error {
	p.mu.Lock()
	at := p.context0(base)
	if at == nil {
		p.mu.Unlock()
		return api.ErrHandlerNotFound
	}
	name, err := p.checkAdd(name, h)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	ctx := newContext(p, name, h)
	if before {
		p.insert(at.prev.Load(), at, ctx)
	} else {
		p.insert(at, at.next.Load(), ctx)
	}
	p.mu.Unlock()

	ctx.callHandlerAdded()
	return nil
}

// unlink detaches ctx from the chain; ctx keeps its own links so an
// in-flight traversal passing through it reaches its former neighbors.
// Caller holds p.mu.
func (p *chainPipeline) unlink(ctx *handlerContext) {
	prev := ctx.prev.Load()
	next := ctx.next.Load()
	prev.next.Store(next)
	next.prev.Store(prev)
	ctx.removed.Store(true)
}

func (p *chainPipeline) Remove(h api.Handler) error {
	p.mu.Lock()
	ctx := p.contextOf(h)
	if ctx == nil {
		p.mu.Unlock()
		return api.ErrHandlerNotFound
	}
	p.unlink(ctx)
	p.mu.Unlock()

	ctx.callHandlerRemoved()
	releaseHandler(h)
	return nil
}

func (p *chainPipeline) RemoveByName(name string) (api.Handler, error) {
	if name == headName || name == tailName {
		return nil, api.ErrSentinel
	}
	p.mu.Lock()
	ctx := p.context0(name)
	if ctx == nil {
		p.mu.Unlock()
		return nil, api.ErrHandlerNotFound
	}
	p.unlink(ctx)
	p.mu.Unlock()

	ctx.callHandlerRemoved()
	releaseHandler(ctx.handler)
	return ctx.handler, nil
}

func (p *chainPipeline) Replace(name, newName string, h api.Handler) (api.Handler, error) {
	if name == headName || name == tailName {
		return nil, api.ErrSentinel
	}
	p.mu.Lock()
	old := p.context0(name)
	if old == nil {
		p.mu.Unlock()
		return nil, api.ErrHandlerNotFound
	}
	if newName == "" {
		newName = name
	}
	if newName != name && (newName == headName || newName == tailName || p.context0(newName) != nil) {
		p.mu.Unlock()
		return nil, api.NewError(api.ErrCodeConfiguration, api.ErrDuplicateName.Error()).
			WithContext("name", newName)
	}
	if err := acquireHandler(h); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	ctx := newContext(p, newName, h)
	p.insert(old.prev.Load(), old.next.Load(), ctx)
	// An event fired from a stale reference to the replaced context
	// must still pass through the replacement, so the old links point
	// at it in both directions.
	old.prev.Store(ctx)
	old.next.Store(ctx)
	old.removed.Store(true)
	p.mu.Unlock()

	ctx.callHandlerAdded()
	old.callHandlerRemoved()
	releaseHandler(old.handler)
	return old.handler, nil
}

// ---------------------------------------------------------------------
// Lookup.
// ---------------------------------------------------------------------

func (p *chainPipeline) Context(h api.Handler) api.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx := p.contextOf(h); ctx != nil {
		return ctx
	}
	return nil
}

func (p *chainPipeline) ContextByName(name string) api.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx := p.context0(name); ctx != nil {
		return ctx
	}
	return nil
}

func (p *chainPipeline) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for c := p.head.next.Load(); c != p.tail; c = c.next.Load() {
		names = append(names, c.name)
	}
	return names
}

// ---------------------------------------------------------------------
// Entry points. Inbound events enter at the head sentinel; outbound
// operations start at the tail.
// ---------------------------------------------------------------------

func (p *chainPipeline) FireChannelRegistered() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelRegistered() })
	return p
}

func (p *chainPipeline) FireChannelUnregistered() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelUnregistered() })
	return p
}

func (p *chainPipeline) FireChannelActive() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelActive() })
	return p
}

func (p *chainPipeline) FireChannelInactive() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelInactive() })
	return p
}

func (p *chainPipeline) FireChannelRead(msg any) api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelRead(msg) })
	return p
}

func (p *chainPipeline) FireChannelReadComplete() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelReadComplete() })
	return p
}

func (p *chainPipeline) FireChannelWritabilityChanged() api.Pipeline {
	p.head.invoke(func() { p.head.invokeChannelWritabilityChanged() })
	return p
}

func (p *chainPipeline) FireUserEventTriggered(evt any) api.Pipeline {
	p.head.invoke(func() { p.head.invokeUserEventTriggered(evt) })
	return p
}

func (p *chainPipeline) FireExceptionCaught(err error) api.Pipeline {
	p.head.invoke(func() { p.head.invokeExceptionCaught(err) })
	return p
}

func (p *chainPipeline) Bind(addr net.Addr) api.Promise {
	return p.tail.Bind(addr)
}

func (p *chainPipeline) Connect(remote, local net.Addr) api.Promise {
	return p.tail.Connect(remote, local)
}

func (p *chainPipeline) Disconnect() api.Promise {
	return p.tail.Disconnect()
}

func (p *chainPipeline) Close() api.Promise {
	return p.tail.Close()
}

func (p *chainPipeline) Deregister() api.Promise {
	return p.tail.Deregister()
}

func (p *chainPipeline) Read() api.Pipeline {
	p.tail.Read()
	return p
}

func (p *chainPipeline) Write(msg any) api.Promise {
	return p.tail.Write(msg)
}

func (p *chainPipeline) Flush() api.Pipeline {
	p.tail.Flush()
	return p
}

func (p *chainPipeline) WriteAndFlush(msg any) api.Promise {
	return p.tail.WriteAndFlush(msg)
}

var _ api.Pipeline = (*chainPipeline)(nil)
