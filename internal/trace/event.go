package trace

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers one CLI command and the check phases.
	ScopeDriver Scope = iota + 1
	// ScopeRule covers one rule run over an assembly.
	ScopeRule
	// ScopeResolver covers the annotation cache, folder scans and
	// side-by-side files.
	ScopeResolver
	// ScopeSymbol is one analyzed symbol.
	ScopeSymbol
)

var scopeNames = [...]string{
	ScopeDriver:   "driver",
	ScopeRule:     "rule",
	ScopeResolver: "resolver",
	ScopeSymbol:   "symbol",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // e.g. "annotations_cache_read", "rule:NullabilityRule"
	Detail   string
	Extra    map[string]string
}

// Level controls verbosity.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError keeps only what a ring dump needs after a failure.
	LevelError
	LevelPhase  // driver + rule
	LevelDetail // + resolver
	LevelDebug  // + per-symbol outcomes
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

// levelMaxScope is the finest scope each level admits; 0 admits nothing.
var levelMaxScope = [...]Scope{
	LevelOff:    0,
	LevelError:  0,
	LevelPhase:  ScopeRule,
	LevelDetail: ScopeResolver,
	LevelDebug:  ScopeSymbol,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the level names case-insensitively.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(levelMaxScope) {
		return false
	}
	return scope != 0 && scope <= levelMaxScope[l]
}
