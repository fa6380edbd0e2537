package host

// MemberKind discriminates the members a type exposes.
type MemberKind uint8

const (
	MemberOther MemberKind = iota
	MemberField
	MemberProperty
	MemberMethod
	MemberEvent
	MemberNestedType
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	case MemberMethod:
		return "method"
	case MemberEvent:
		return "event"
	case MemberNestedType:
		return "type"
	default:
		return "other"
	}
}

// Type is a type reference or definition.
type Type interface {
	// Name is the simple (possibly mangled) name, e.g. "List`1".
	Name() string
	// FullName is the namespace-qualified name including type arguments,
	// e.g. "System.Collections.Generic.List`1<System.String>".
	FullName() string
	// UnmangledNameWithTypeParameters renders the full name the way explicit
	// interface implementations are named, e.g.
	// "System.Collections.Generic.IList<T>".
	UnmangledNameWithTypeParameters() string
	DocumentationCommentID() string

	IsValueType() bool
	IsCompilerControlled() bool
	// IsReference reports a by-reference (ref/out) type; ElementType is the
	// referenced type then.
	IsReference() bool
	ElementType() Type

	BaseType() Type
	DeclaringType() Type
	// Template is the unbound generic definition of an instantiated generic
	// type, or nil.
	Template() Type
	TemplateArguments() []Type
	Interfaces() []Type
	Members() []Member
	Attributes() []Attribute

	// AssemblyPath is the file system location of the defining assembly, or
	// "" when unknown.
	AssemblyPath() string
}

// Member is anything declared inside a type.
type Member interface {
	MemberKind() MemberKind
	Name() string
	FullName() string
	DeclaringType() Type
	Attributes() []Attribute
	DocumentationCommentID() string
}

type Field interface {
	Member
	Type() Type
	IsLiteral() bool
	IsStatic() bool
	HasDefault() bool
}

type Property interface {
	Member
	Type() Type
	Parameters() []Parameter
	Getter() Method
	Setter() Method
	OverriddenProperty() Property
}

type Method interface {
	Member
	ReturnType() Type
	Parameters() []Parameter
	IsAccessor() bool
	IsCompilerControlled() bool
	// DeclaringMember is the property or event an accessor belongs to.
	DeclaringMember() Member
	OverriddenMethod() Method
	// Template is the generic method definition of an instantiated generic
	// method, or nil.
	Template() Method
	// ImplementedInterfaceMethods lists interface methods this method
	// implements explicitly.
	ImplementedInterfaceMethods() []Method
}

type Parameter interface {
	Name() string
	Type() Type
	DeclaringMethod() Method
	Index() int
	Attributes() []Attribute
}

// ParametersMatchStructurally reports whether two parameter lists have the
// same length and pairwise identical parameter type names.
func ParametersMatchStructurally(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type().FullName() != b[i].Type().FullName() {
			return false
		}
	}
	return true
}
