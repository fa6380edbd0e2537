package trace

import (
	"errors"
	"io"
	"sync"
)

// Tracer receives trace events. Implementations are goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled is Level() > LevelOff.
	Enabled() bool
}

// gate holds the level shared by every tracer implementation.
type gate struct{ level Level }

func (g gate) Level() Level  { return g.level }
func (g gate) Enabled() bool { return g.level > LevelOff }

// admits lets heartbeats through regardless of scope.
func (g gate) admits(ev *Event) bool {
	return ev.Kind == KindHeartbeat || g.level.ShouldEmit(ev.Scope)
}

type nopTracer struct{ gate }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop discards everything. FromContext returns it when no tracer is set.
var Nop Tracer = nopTracer{}

// StreamTracer formats and writes each event as it arrives.
type StreamTracer struct {
	gate
	mu     sync.Mutex
	w      io.Writer
	format Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{gate: gate{level}, w: w, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Seq = NextSeq()
	// трассировка не должна ронять проверку
	_, _ = t.w.Write(FormatEvent(ev, t.format))
}

func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the writer unless it is stderr/stdout.
func (t *StreamTracer) Close() error {
	err := t.Flush()
	if c, ok := t.w.(io.Closer); ok && !isStdStream(t.w) {
		err = errors.Join(err, c.Close())
	}
	return err
}

// RingTracer keeps the most recent events in memory for a dump on exit.
type RingTracer struct {
	gate
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
}

// NewRingTracer keeps up to capacity events; non-positive means 4096.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{gate: gate{level}, buf: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = NextSeq()
	t.buf[t.next] = stored
	t.next = (t.next + 1) % len(t.buf)
	if t.count < len(t.buf) {
		t.count++
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	start := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(start+i)%len(t.buf)])
	}
	return out
}

// Dump writes the snapshot in the given format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	gate
	tracers []Tracer
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{gate: gate{level}, tracers: tracers}
}

func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}
