package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeRule, true},
		{LevelPhase, ScopeResolver, false},
		{LevelDetail, ScopeResolver, true},
		{LevelDetail, ScopeSymbol, false},
		{LevelDebug, ScopeSymbol, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(Both) = %v, %v", m, err)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeResolver, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snap))
	}
	if snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected order: %s %s %s", snap[0].Name, snap[1].Name, snap[2].Name)
	}
}

func TestSpanNestingThroughContext(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	tr := FromContext(ctx)
	outer, ctx := StartSpan(ctx, ScopeDriver, "check")
	if CurrentSpan(ctx).SpanID != outer.ID() {
		t.Fatalf("StartSpan did not make the span current")
	}
	inner := Begin(tr, ScopeResolver, "cache_read", CurrentSpan(ctx).SpanID).WithExtra("path", "/tmp/x")
	inner.End("hit")
	// ScopeSymbol is filtered at LevelDetail
	Point(tr, ScopeSymbol, "reported", "Field A.b", inner.ID())
	outer.End("")

	snap := ring.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	end := snap[2]
	if end.Kind != KindSpanEnd || end.ParentID != outer.ID() || end.Extra["path"] != "/tmp/x" {
		t.Fatalf("unexpected inner end event: %+v", end)
	}
}

func TestNopWhenDisabled(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer should fall back to Nop")
	}
	span := Begin(Nop, ScopeDriver, "x", 0)
	if span.ID() != 0 {
		t.Fatalf("nop span should have zero id")
	}
	if d := span.End(""); d != 0 {
		t.Fatalf("nop span duration = %v", d)
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("LevelOff should build a disabled tracer: %v", err)
	}
}

func TestStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(st, ScopeRule, "rule:NullabilityRule", "checked=3", 7)
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("ndjson line: %v", err)
	}
	if decoded["scope"] != "rule" || decoded["detail"] != "checked=3" {
		t.Fatalf("unexpected json: %v", decoded)
	}

	ev := &Event{
		Time:     time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
		Kind:     KindSpanEnd,
		Scope:    ScopeResolver,
		ParentID: 1,
		Name:     "annotations_scan",
		Detail:   "files=2",
		Extra:    map[string]string{"b": "2", "a": "1"},
	}
	text := string(FormatEvent(ev, FormatText))
	want := "03:04:05.006 resolver     ← annotations_scan (files=2) {a=1, b=2}\n"
	if text != want {
		t.Fatalf("text format:\n got %q\nwant %q", text, want)
	}
	if !strings.HasSuffix(string(FormatEvent(ev, FormatAuto)), "\n") {
		t.Fatalf("auto format should fall back to text")
	}
}

func TestFilteredSpanKeepsParent(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	outer, ctx := StartSpan(ctx, ScopeDriver, "check")
	inner, innerCtx := StartSpan(ctx, ScopeResolver, "annotations_scan")
	if inner.ID() != 0 {
		t.Fatalf("resolver span must be filtered at phase level")
	}
	if CurrentSpan(innerCtx).SpanID != outer.ID() {
		t.Fatalf("filtered span must not replace the current span")
	}
	inner.WithExtra("k", "v").End("ignored")
	outer.End("")
	if n := len(ring.Snapshot()); n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
	// heartbeats pass every level above off
	ring := NewRingTracer(64, LevelError)
	hb := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()
	snap := ring.Snapshot()
	if len(snap) == 0 || snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1" {
		t.Fatalf("unexpected heartbeat events: %+v", snap)
	}
}
