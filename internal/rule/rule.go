// Package rule turns analysis verdicts into diagnostics, one per logical
// symbol.
package rule

import (
	"fmt"
	"strings"

	"nullcheck/internal/analysis"
	"nullcheck/internal/diag"
	"nullcheck/internal/symbols"
)

// Rule is one run of the plain or the item nullability rule. Each Rule owns
// its set of reported keys; create a new Rule per run.
type Rule struct {
	code  diag.Code
	item  bool
	dedup *diag.DedupReporter
}

// NewNullabilityRule reports members and parameters that need [NotNull] or
// [CanBeNull].
func NewNullabilityRule(out diag.Reporter) *Rule {
	return &Rule{code: diag.NullabilityDecorate, dedup: diag.NewDedupReporter(out)}
}

// NewItemNullabilityRule reports members and parameters that need
// [ItemNotNull] or [ItemCanBeNull].
func NewItemNullabilityRule(out diag.Reporter) *Rule {
	return &Rule{code: diag.ItemNullabilityDecorate, item: true, dedup: diag.NewDedupReporter(out)}
}

func (r *Rule) Code() diag.Code { return r.code }

func (r *Rule) Name() string { return r.code.RuleName() }

func (r *Rule) AppliesToItem() bool { return r.item }

// Reported returns the number of distinct symbols reported so far.
func (r *Rule) Reported() int { return r.dedup.Len() }

// Check analyzes sym and reports it when it needs an annotation.
func (r *Rule) Check(sym symbols.Symbol, external analysis.ExternalAnnotations) (analysis.Outcome, error) {
	a, err := analysis.NewAnalyzer(sym, external, r.item)
	if err != nil {
		return 0, err
	}
	return a.Analyze(r.Report), nil
}

// Report emits a diagnostic for sym unless its identity key was reported
// before. overrideKey replaces the computed key when set.
func (r *Rule) Report(sym symbols.Symbol, overrideKey string) {
	key := overrideKey
	if key == "" {
		key = IdentityKey(sym)
	}
	d := diag.New(diag.SevWarning, r.code, key, r.message(sym)).
		WithSymbol(sym.Kind().String(), sym.String()).
		WithLocation(sym.ContainingAssemblyPath())
	if overrideKey != "" {
		if i := strings.LastIndexByte(overrideKey, ':'); i > 1 {
			d = d.WithNote(fmt.Sprintf("index parameter '%s'", overrideKey[i+1:]))
		}
	}
	r.dedup.Report(d)
}

// IdentityKey is the doc-ID of sym, or {method doc-ID}:{name} for
// parameters.
func IdentityKey(sym symbols.Symbol) string {
	if p, ok := sym.(*symbols.Parameter); ok {
		id, _ := p.ContainingMethod().DocumentationCommentID()
		return id + ":" + p.Name()
	}
	id, _ := sym.DocumentationCommentID()
	return id
}

func (r *Rule) message(sym symbols.Symbol) string {
	kind := sym.Kind().String()
	if sym.Kind() == symbols.KindMethod {
		kind = "Method (return value)"
	}
	if r.item {
		return fmt.Sprintf("%s '%s' has nullable item type and must be decorated with [ItemNotNull] or [ItemCanBeNull].", kind, sym.Name())
	}
	return fmt.Sprintf("%s '%s' is of nullable type and must be decorated with [NotNull] or [CanBeNull].", kind, sym.Name())
}
