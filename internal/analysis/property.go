package analysis

import "nullcheck/internal/symbols"

type propertyAnalyzer struct {
	checker
	property *symbols.Property
}

func (a propertyAnalyzer) requiresAnnotation() Requirement {
	if owner := a.property.ContainingType(); owner != nil && owner.HasCompilerGeneratedAnnotation() {
		return notRequired
	}
	if a.hasAnnotationInInterface(a.property) || a.hasAnnotationInBaseClass() {
		return notRequired
	}
	return required
}

func (a propertyAnalyzer) hasAnnotationInBaseClass() bool {
	base := a.property.OverriddenProperty()
	for depth := 0; base != nil && depth < maxChainDepth; depth++ {
		if a.annotated(base) || a.hasAnnotationInInterface(base) {
			return true
		}
		base = base.OverriddenProperty()
	}
	return false
}
