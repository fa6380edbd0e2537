package analysis

import "nullcheck/internal/symbols"

const (
	genericEnumerableName = "System.Collections.Generic.IEnumerable`1"
	enumerableName        = "System.Collections.IEnumerable"
)

// isDeferredWrapper reports generic types holding a single value that
// becomes available later.
func isDeferredWrapper(unbound string) bool {
	switch unbound {
	case "System.Lazy`1", "System.Threading.Tasks.Task`1", "System.Threading.Tasks.ValueTask`1":
		return true
	}
	return false
}

// EffectiveType returns the type whose nullability is analyzed: the declared
// type in plain mode, the element or wrapped value type in item mode. It
// returns false when item mode does not apply to the declared type.
func EffectiveType(sym symbols.Symbol, appliesToItem bool) (*symbols.Type, bool) {
	t := sym.Type()
	if t == nil {
		return nil, false
	}
	if !appliesToItem {
		return t, true
	}
	if t.IsVoid() {
		return nil, false
	}
	if it := sequenceItemType(t); it != nil {
		return it, true
	}
	if it := deferredValueType(t); it != nil {
		return it, true
	}
	return nil, false
}

func sequenceItemType(t *symbols.Type) *symbols.Type {
	candidates := append([]*symbols.Type{t}, t.Interfaces()...)
	for _, c := range candidates {
		if ug := c.UnboundGeneric(); ug != nil && ug.FullName() == genericEnumerableName {
			if args := c.TypeArguments(); len(args) == 1 {
				return args[0]
			}
		}
		if c.FullName() == enumerableName {
			return symbols.Object()
		}
	}
	return nil
}

func deferredValueType(t *symbols.Type) *symbols.Type {
	ug := t.UnboundGeneric()
	if ug == nil {
		return nil
	}
	if !isDeferredWrapper(ug.FullName()) {
		return nil
	}
	if args := t.TypeArguments(); len(args) == 1 {
		return args[0]
	}
	return nil
}
