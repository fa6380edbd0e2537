package symbols

import "nullcheck/internal/host"

type Field struct {
	member
	node host.Field
}

func NewField(f host.Field) *Field {
	return &Field{member: member{node: f}, node: f}
}

func (f *Field) Kind() Kind { return KindField }

func (f *Field) Type() *Type { return NewType(f.node.Type()) }

// IsConstant reports a compile-time constant (literal static field with a
// default value).
func (f *Field) IsConstant() bool {
	return f.node.IsLiteral() && f.node.IsStatic() && f.node.HasDefault()
}

func (f *Field) IsImplementationForInterfaceMember(Member) bool { return false }
