package symbols

import (
	"fmt"

	"nullcheck/internal/host"
)

type Kind uint8

const (
	KindField Kind = iota
	KindProperty
	KindMethod
	KindParameter
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "Field"
	case KindProperty:
		return "Property"
	case KindMethod:
		return "Method"
	case KindParameter:
		return "Parameter"
	case KindType:
		return "Type"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Symbol is implemented by *Field, *Property, *Method, *Parameter and *Type
// only.
type Symbol interface {
	Kind() Kind
	Name() string
	// Type is the declared type: field type, property type, method return
	// type or parameter type. By-ref types are unwrapped.
	Type() *Type
	// ContainingType is nil for top-level types.
	ContainingType() *Type
	ContainingAssemblyPath() string
	HasCompilerGeneratedAnnotation() bool
	HasDebuggerNonUserCodeAnnotation() bool
	HasNullabilityAnnotation(appliesToItem bool) bool
	// DocumentationCommentID returns false for parameters, which have none.
	DocumentationCommentID() (string, bool)
	String() string

	sealed()
}

// Member is a Symbol declared inside a type: *Field, *Property or *Method.
type Member interface {
	Symbol
	// IsImplementationForInterfaceMember reports whether this member
	// implements iface, explicitly or implicitly.
	IsImplementationForInterfaceMember(iface Member) bool
	hostMember() host.Member
}

// FromMember wraps a host member. Events, nested types and unknown members
// are not analyzable and yield false.
func FromMember(m host.Member) (Member, bool) {
	switch n := m.(type) {
	case host.Field:
		return NewField(n), true
	case host.Property:
		return NewProperty(n), true
	case host.Method:
		return NewMethod(n), true
	}
	return nil, false
}

type member struct {
	node host.Member
}

func (m member) Name() string { return m.node.Name() }

func (m member) ContainingType() *Type { return NewType(m.node.DeclaringType()) }

func (m member) ContainingAssemblyPath() string {
	if dt := m.node.DeclaringType(); dt != nil {
		return dt.AssemblyPath()
	}
	return ""
}

func (m member) HasCompilerGeneratedAnnotation() bool {
	return host.HasAttribute(m.node.Attributes(), compilerGeneratedAttribute)
}

func (m member) HasDebuggerNonUserCodeAnnotation() bool {
	return host.HasAttribute(m.node.Attributes(), debuggerNonUserCodeAttribute)
}

func (m member) HasNullabilityAnnotation(appliesToItem bool) bool {
	return hasNullabilityAttribute(m.node.Attributes(), appliesToItem)
}

func (m member) DocumentationCommentID() (string, bool) {
	return m.node.DocumentationCommentID(), true
}

func (m member) String() string { return m.node.FullName() }

func (m member) hostMember() host.Member { return m.node }

func (member) sealed() {}
