package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a process-unique span ID.
func NextSpanID() uint64 { return spanCounter.Add(1) }

type tracerKey struct{}

type spanKey struct{}

// SpanContext is the span propagated to callees.
type SpanContext struct {
	SpanID uint64
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// CurrentSpan returns the innermost span recorded in ctx; zero at the root.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx != nil {
		if sc, ok := ctx.Value(spanKey{}).(SpanContext); ok {
			return sc
		}
	}
	return SpanContext{}
}

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanKey{}, sc)
}

// Span is an open begin/end pair. A span that was filtered out by level is
// inert: End and WithExtra do nothing and ID is 0.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

var inertSpan = Span{tracer: Nop}

// Begin opens a span under parent (0 for a root).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Level().ShouldEmit(scope) {
		s := inertSpan
		return &s
	}
	s := &Span{
		tracer:  t,
		id:      NextSpanID(),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// StartSpan opens a span under the current span of ctx and returns a context
// in which it is current.
func StartSpan(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	s := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	if s.id == 0 {
		return s, ctx
	}
	return s, WithSpanContext(ctx, SpanContext{SpanID: s.id})
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.id == 0 {
		return 0
	}
	d := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return d
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}
