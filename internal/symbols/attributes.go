package symbols

import "nullcheck/internal/host"

const (
	notNullAttribute               = "NotNullAttribute"
	canBeNullAttribute             = "CanBeNullAttribute"
	itemNotNullAttribute           = "ItemNotNullAttribute"
	itemCanBeNullAttribute         = "ItemCanBeNullAttribute"
	compilerGeneratedAttribute     = "CompilerGeneratedAttribute"
	debuggerNonUserCodeAttribute   = "DebuggerNonUserCodeAttribute"
	conditionalAttribute           = "ConditionalAttribute"
	annotationsConditionalArgument = "JETBRAINS_ANNOTATIONS"
)

func isNullabilityAttribute(a host.Attribute, item bool) bool {
	if item {
		return a.Name == itemNotNullAttribute || a.Name == itemCanBeNullAttribute
	}
	return a.Name == notNullAttribute || a.Name == canBeNullAttribute
}

func hasNullabilityAttribute(attrs []host.Attribute, item bool) bool {
	for _, a := range attrs {
		if isNullabilityAttribute(a, item) {
			return true
		}
	}
	return false
}

// isConditionalMarker matches [Conditional("JETBRAINS_ANNOTATIONS")], which
// marks types that define annotation attributes.
func isConditionalMarker(a host.Attribute) bool {
	return a.Name == conditionalAttribute && a.Arg(0) == annotationsConditionalArgument
}
