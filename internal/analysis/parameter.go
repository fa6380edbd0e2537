package analysis

import "nullcheck/internal/symbols"

const (
	setterValueParameter = "value"
	indexerGetter        = "get_Item"
	indexerSetter        = "set_Item"
)

type parameterAnalyzer struct {
	checker
	param *symbols.Parameter
}

func (a parameterAnalyzer) requiresAnnotation() Requirement {
	p := a.param
	method := p.ContainingMethod()
	if isCompilerNamed(method.Name()) {
		return notRequired
	}
	if owner := p.ContainingType(); owner != nil && owner.HasCompilerGeneratedAnnotation() {
		return notRequired
	}

	req := required
	if method.IsAccessor() {
		if !isIndexParameter(p, method) {
			return notRequired
		}
		// index parameters appear in get_Item and set_Item alike; both
		// report on the indexer under one key per parameter
		if prop := method.ContainingProperty(); prop != nil {
			if id, ok := prop.DocumentationCommentID(); ok {
				req = Requirement{Kind: RequiredRedirected, Target: prop, Key: id + ":" + p.Name()}
			}
		}
	}

	if a.hasAnnotationInInterface(p) || a.hasAnnotationInBaseClass() {
		return notRequired
	}
	return req
}

func isIndexParameter(p *symbols.Parameter, accessor *symbols.Method) bool {
	name := accessor.Name()
	return p.Name() != setterValueParameter && (name == indexerGetter || name == indexerSetter)
}

func (a parameterAnalyzer) hasAnnotationInBaseClass() bool {
	base := baseParameterOf(a.param)
	for depth := 0; base != nil && depth < maxChainDepth; depth++ {
		if a.annotated(base) || a.hasAnnotationInInterface(base) {
			return true
		}
		base = baseParameterOf(base)
	}
	return false
}

// hasAnnotationInInterface checks the parameter at the same position of the
// interface member implemented by p's method.
func (a parameterAnalyzer) hasAnnotationInInterface(p *symbols.Parameter) bool {
	owner := p.ContainingType()
	if owner == nil {
		return false
	}
	method := p.ContainingMethod()
	for _, iface := range owner.Interfaces() {
		im := implementedInterfaceMember(iface, method)
		if im == nil {
			continue
		}
		if ip := parameterAt(parametersOf(im), p.Index()); ip != nil && a.annotated(ip) {
			return true
		}
	}
	return false
}

// baseParameterOf returns the parameter at the same position in the
// overridden method, or in the overridden indexer for accessors.
func baseParameterOf(p *symbols.Parameter) *symbols.Parameter {
	method := p.ContainingMethod()
	if base := method.OverriddenMethod(); base != nil {
		return parameterAt(base.Parameters(), p.Index())
	}
	if prop := method.ContainingProperty(); prop != nil {
		if base := prop.OverriddenProperty(); base != nil {
			return parameterAt(base.Parameters(), p.Index())
		}
	}
	return nil
}

func parametersOf(m symbols.Member) []*symbols.Parameter {
	switch m := m.(type) {
	case *symbols.Method:
		return m.Parameters()
	case *symbols.Property:
		return m.Parameters()
	}
	return nil
}

func parameterAt(params []*symbols.Parameter, i int) *symbols.Parameter {
	if i < 0 || i >= len(params) {
		return nil
	}
	return params[i]
}
