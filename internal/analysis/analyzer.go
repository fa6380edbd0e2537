package analysis

import (
	"errors"
	"fmt"
	"strings"

	"nullcheck/internal/symbols"
)

// maxChainDepth bounds walks over override chains.
const maxChainDepth = 64

// ErrTypeNotAnalyzable is returned by NewAnalyzer for *symbols.Type.
var ErrTypeNotAnalyzable = errors.New("types are not analyzable")

// ExternalAnnotations answers whether a symbol is annotated outside of the
// analyzed code. resolver.Resolver implements it.
type ExternalAnnotations interface {
	HasAnnotationForSymbol(sym symbols.Symbol, appliesToItem bool) bool
}

// ReportFunc receives the symbol to report and, for redirected reports, the
// identity key to deduplicate on. overrideKey is empty otherwise.
type ReportFunc func(sym symbols.Symbol, overrideKey string)

// Analyzer checks one symbol.
type Analyzer interface {
	// Analyze calls report at most once and returns how the analysis ended.
	Analyze(report ReportFunc) Outcome
}

// Outcome names the exemption stage that ended an analysis, or
// OutcomeReported.
type Outcome uint8

const (
	OutcomeReported Outcome = iota
	ExemptAnnotated
	ExemptNotNullable
	ExemptCompilerType
	ExemptCompilerNamed
	ExemptGenerated
	ExemptAnnotationDefinition
	ExemptExternallyAnnotated
	ExemptNotRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReported:
		return "reported"
	case ExemptAnnotated:
		return "annotated"
	case ExemptNotNullable:
		return "not-nullable"
	case ExemptCompilerType:
		return "compiler-type"
	case ExemptCompilerNamed:
		return "compiler-named"
	case ExemptGenerated:
		return "generated"
	case ExemptAnnotationDefinition:
		return "annotation-definition"
	case ExemptExternallyAnnotated:
		return "external"
	case ExemptNotRequired:
		return "not-required"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// RequirementKind is the verdict of the kind-specific rules.
type RequirementKind uint8

const (
	NotRequired RequirementKind = iota
	Required
	// RequiredRedirected reports Target under Key instead of the analyzed
	// symbol, for indexer parameters seen through both accessors.
	RequiredRedirected
)

type Requirement struct {
	Kind   RequirementKind
	Target symbols.Symbol
	Key    string
}

var (
	notRequired = Requirement{Kind: NotRequired}
	required    = Requirement{Kind: Required}
)

// NewAnalyzer returns the analyzer for sym's kind.
func NewAnalyzer(sym symbols.Symbol, external ExternalAnnotations, appliesToItem bool) (Analyzer, error) {
	if external == nil {
		return nil, errors.New("analysis: nil external annotations")
	}
	c := checker{external: external, item: appliesToItem}
	switch s := sym.(type) {
	case *symbols.Field:
		return &analyzer{checker: c, sym: s, requires: fieldAnalyzer{checker: c, field: s}.requiresAnnotation}, nil
	case *symbols.Property:
		return &analyzer{checker: c, sym: s, requires: propertyAnalyzer{checker: c, property: s}.requiresAnnotation}, nil
	case *symbols.Method:
		return &analyzer{checker: c, sym: s, requires: methodAnalyzer{checker: c, method: s}.requiresAnnotation}, nil
	case *symbols.Parameter:
		return &analyzer{checker: c, sym: s, requires: parameterAnalyzer{checker: c, param: s}.requiresAnnotation}, nil
	case *symbols.Type:
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAnalyzable, s.FullName())
	case nil:
		return nil, errors.New("analysis: nil symbol")
	}
	return nil, fmt.Errorf("analysis: unexpected symbol %T", sym)
}

type checker struct {
	external ExternalAnnotations
	item     bool
}

// annotated reports an own or external annotation on sym.
func (c checker) annotated(sym symbols.Symbol) bool {
	return sym.HasNullabilityAnnotation(c.item) || c.external.HasAnnotationForSymbol(sym, c.item)
}

type analyzer struct {
	checker
	sym      symbols.Symbol
	requires func() Requirement
}

func (a *analyzer) Analyze(report ReportFunc) Outcome {
	sym := a.sym
	if sym.HasNullabilityAnnotation(a.item) {
		return ExemptAnnotated
	}

	typ, ok := EffectiveType(sym, a.item)
	if !ok || !typ.CanContainNull() {
		return ExemptNotNullable
	}
	if typ.IsCompilerControlled() || typ.HasCompilerGeneratedAnnotation() {
		return ExemptCompilerType
	}

	owner := sym.ContainingType()
	if isCompilerNamed(sym.Name()) || (owner != nil && isCompilerNamed(owner.Name())) {
		return ExemptCompilerNamed
	}
	if sym.HasCompilerGeneratedAnnotation() || sym.HasDebuggerNonUserCodeAnnotation() {
		return ExemptGenerated
	}
	if owner != nil && owner.HasConditionalAnnotationMarker() {
		return ExemptAnnotationDefinition
	}
	if a.external.HasAnnotationForSymbol(sym, a.item) {
		return ExemptExternallyAnnotated
	}

	req := a.requires()
	switch req.Kind {
	case Required:
		report(sym, "")
	case RequiredRedirected:
		report(req.Target, req.Key)
	default:
		return ExemptNotRequired
	}
	return OutcomeReported
}

// isCompilerNamed matches identifiers no source code can declare, such as
// lambda closures and display classes.
func isCompilerNamed(name string) bool {
	return strings.ContainsAny(name, "<>$")
}

// implementedInterfaceMember finds the member of iface that m implements.
func implementedInterfaceMember(iface *symbols.Type, m symbols.Member) symbols.Member {
	for _, im := range iface.Members() {
		if m.IsImplementationForInterfaceMember(im) {
			return im
		}
	}
	return nil
}

// hasAnnotationInInterface reports whether an interface member implemented
// by m is annotated.
func (c checker) hasAnnotationInInterface(m symbols.Member) bool {
	owner := m.ContainingType()
	if owner == nil {
		return false
	}
	for _, iface := range owner.Interfaces() {
		if im := implementedInterfaceMember(iface, m); im != nil && c.annotated(im) {
			return true
		}
	}
	return false
}
