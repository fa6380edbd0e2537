package resolver

import (
	"context"

	"nullcheck/internal/annotations"
	"nullcheck/internal/diag"
	"nullcheck/internal/symbols"
)

// Resolver answers whether a symbol carries an external annotation.
// EnsureScanned must succeed before lookups are meaningful.
type Resolver interface {
	EnsureScanned(ctx context.Context) error
	HasAnnotationForSymbol(sym symbols.Symbol, appliesToItem bool) bool
}

// DiagnosticSource is implemented by resolvers that report problems with
// their own inputs, such as a malformed side-by-side file.
type DiagnosticSource interface {
	ReportTo(r diag.Reporter)
}

// Simple serves lookups from one fixed map.
type Simple struct {
	m annotations.Map
}

func NewSimple(m annotations.Map) *Simple {
	return &Simple{m: m}
}

func (*Simple) EnsureScanned(context.Context) error { return nil }

func (s *Simple) HasAnnotationForSymbol(sym symbols.Symbol, appliesToItem bool) bool {
	return s.m.Contains(sym, appliesToItem)
}
