package symbols

import (
	"strings"

	"nullcheck/internal/host"
)

const (
	voidTypeName      = "System.Void"
	nullableTypeName  = "System.Nullable`1"
	valueTypeBaseName = "System.ValueType"
	objectTypeName    = "System.Object"
	systemTypeName    = "System.Type"
)

// Type wraps a type reference. By-ref (ref/out) types are unwrapped to their
// element type on construction. A Type without a host node is synthetic: it
// only has a name.
type Type struct {
	node      host.Type
	synthetic string
}

// NewType wraps t, returning nil when t is nil.
func NewType(t host.Type) *Type {
	if t == nil {
		return nil
	}
	for t.IsReference() && t.ElementType() != nil {
		t = t.ElementType()
	}
	return &Type{node: t}
}

// Synthetic returns a node-less type that only carries a full name; it is a
// reference type with no members.
func Synthetic(fullName string) *Type {
	return &Type{synthetic: fullName}
}

// Object is the synthetic System.Object used as the item type of
// non-generic sequences.
func Object() *Type { return Synthetic(objectTypeName) }

func (t *Type) Kind() Kind { return KindType }

// Host returns the wrapped node, nil for synthetic types.
func (t *Type) Host() host.Type { return t.node }

func (t *Type) Name() string {
	if t.node == nil {
		name := t.synthetic
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return t.node.Name()
}

func (t *Type) FullName() string {
	if t.node == nil {
		return t.synthetic
	}
	return t.node.FullName()
}

func (t *Type) UnmangledNameWithTypeParameters() string {
	if t.node == nil {
		return t.synthetic
	}
	return t.node.UnmangledNameWithTypeParameters()
}

func (t *Type) String() string { return t.FullName() }

// Type of a type symbol is System.Type.
func (t *Type) Type() *Type { return Synthetic(systemTypeName) }

func (t *Type) ContainingType() *Type {
	if t.node == nil {
		return nil
	}
	return NewType(t.node.DeclaringType())
}

func (t *Type) ContainingAssemblyPath() string {
	if t.node == nil {
		return ""
	}
	return t.node.AssemblyPath()
}

func (t *Type) BaseType() *Type {
	if t.node == nil {
		return nil
	}
	return NewType(t.node.BaseType())
}

// UnboundGeneric is the generic definition of an instantiated type, or nil.
func (t *Type) UnboundGeneric() *Type {
	if t.node == nil {
		return nil
	}
	return NewType(t.node.Template())
}

func (t *Type) TypeArguments() []*Type {
	if t.node == nil {
		return nil
	}
	return wrapTypes(t.node.TemplateArguments())
}

func (t *Type) Interfaces() []*Type {
	if t.node == nil {
		return nil
	}
	return wrapTypes(t.node.Interfaces())
}

// Members returns the analyzable members (fields, properties, methods).
func (t *Type) Members() []Member {
	if t.node == nil {
		return nil
	}
	nodes := t.node.Members()
	out := make([]Member, 0, len(nodes))
	for _, n := range nodes {
		if m, ok := FromMember(n); ok {
			out = append(out, m)
		}
	}
	return out
}

func (t *Type) attributes() []host.Attribute {
	if t.node == nil {
		return nil
	}
	return t.node.Attributes()
}

func (t *Type) HasCompilerGeneratedAnnotation() bool {
	return host.HasAttribute(t.attributes(), compilerGeneratedAttribute)
}

func (t *Type) HasDebuggerNonUserCodeAnnotation() bool {
	return host.HasAttribute(t.attributes(), debuggerNonUserCodeAttribute)
}

// HasConditionalAnnotationMarker reports [Conditional("JETBRAINS_ANNOTATIONS")].
func (t *Type) HasConditionalAnnotationMarker() bool {
	for _, a := range t.attributes() {
		if isConditionalMarker(a) {
			return true
		}
	}
	return false
}

// Types never carry nullability annotations.
func (t *Type) HasNullabilityAnnotation(bool) bool { return false }

func (t *Type) DocumentationCommentID() (string, bool) {
	if t.node == nil {
		return "T:" + t.synthetic, true
	}
	return t.node.DocumentationCommentID(), true
}

func (t *Type) IsCompilerControlled() bool {
	return t.node != nil && t.node.IsCompilerControlled()
}

// IsValueType also holds for types deriving directly from System.ValueType:
// hosts report IsValueType false for struct-constrained generic parameters.
func (t *Type) IsValueType() bool {
	if t.node == nil {
		return false
	}
	if t.node.IsValueType() {
		return true
	}
	base := t.node.BaseType()
	return base != nil && base.FullName() == valueTypeBaseName
}

func (t *Type) IsNullableValueType() bool {
	return strings.HasPrefix(t.FullName(), nullableTypeName)
}

func (t *Type) IsVoid() bool {
	return t.FullName() == voidTypeName
}

func (t *Type) CanContainNull() bool {
	return !t.IsVoid() && (t.IsNullableValueType() || !t.IsValueType())
}

// IsOrDerivesFrom walks the base type chain looking for fullName.
func (t *Type) IsOrDerivesFrom(fullName string) bool {
	for cur := t; cur != nil; cur = cur.BaseType() {
		if cur.FullName() == fullName {
			return true
		}
	}
	return false
}

// ImplementsInterface reports whether the type or any base type lists the
// named interface.
func (t *Type) ImplementsInterface(fullName string) bool {
	for cur := t; cur != nil; cur = cur.BaseType() {
		for _, it := range cur.Interfaces() {
			if it.FullName() == fullName {
				return true
			}
		}
	}
	return false
}

func (*Type) sealed() {}

func wrapTypes(nodes []host.Type) []*Type {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Type, 0, len(nodes))
	for _, n := range nodes {
		if w := NewType(n); w != nil {
			out = append(out, w)
		}
	}
	return out
}
