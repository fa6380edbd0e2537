package analysis

import "nullcheck/internal/symbols"

const delegateTypeName = "System.Delegate"

type methodAnalyzer struct {
	checker
	method *symbols.Method
}

func (a methodAnalyzer) requiresAnnotation() Requirement {
	m := a.method
	if m.IsCompilerControlled() {
		return notRequired
	}
	// accessors are covered by their property
	if m.IsAccessor() {
		return notRequired
	}
	if owner := m.ContainingType(); owner != nil && owner.IsOrDerivesFrom(delegateTypeName) {
		return notRequired
	}
	if a.hasAnnotationInInterface(m) || a.hasAnnotationInBaseClass() {
		return notRequired
	}
	return required
}

func (a methodAnalyzer) hasAnnotationInBaseClass() bool {
	base := a.method.OverriddenMethod()
	for depth := 0; base != nil && depth < maxChainDepth; depth++ {
		if a.annotated(base) || a.hasAnnotationInInterface(base) {
			return true
		}
		base = base.OverriddenMethod()
	}
	return false
}
