package symbols

import "nullcheck/internal/host"

// Method is a method or method-like member (constructor, operator, accessor);
// its Type is the return type.
type Method struct {
	member
	node host.Method
}

func NewMethod(m host.Method) *Method {
	return &Method{member: member{node: m}, node: m}
}

func (m *Method) Kind() Kind { return KindMethod }

func (m *Method) Host() host.Method { return m.node }

func (m *Method) Type() *Type { return NewType(m.node.ReturnType()) }

// IsAccessor reports a property or event accessor.
func (m *Method) IsAccessor() bool { return m.node.IsAccessor() }

func (m *Method) IsCompilerControlled() bool { return m.node.IsCompilerControlled() }

// ContainingProperty is the property an accessor belongs to, or nil.
func (m *Method) ContainingProperty() *Property {
	if !m.node.IsAccessor() {
		return nil
	}
	if p, ok := m.node.DeclaringMember().(host.Property); ok && p != nil {
		return NewProperty(p)
	}
	return nil
}

func (m *Method) OverriddenMethod() *Method {
	base := m.node.OverriddenMethod()
	if base == nil {
		return nil
	}
	return NewMethod(base)
}

func (m *Method) Parameters() []*Parameter {
	return wrapParameters(m.node.Parameters())
}

// AsUnboundGenericMethodOrThis returns the generic definition of an
// instantiated generic method.
func (m *Method) AsUnboundGenericMethodOrThis() *Method {
	if tmpl := m.node.Template(); tmpl != nil {
		return NewMethod(tmpl)
	}
	return m
}

func (m *Method) IsImplementationForInterfaceMember(iface Member) bool {
	im, ok := iface.(*Method)
	if !ok {
		return false
	}
	for _, implemented := range m.node.ImplementedInterfaceMethods() {
		if implemented == im.node {
			return true
		}
	}
	implicit := m.Name() == im.Name() &&
		host.ParametersMatchStructurally(m.node.Parameters(), im.node.Parameters())
	// an explicit implementation elsewhere on the type takes over
	return implicit && !m.containingTypeHasExplicitImplementationFor(im)
}

func (m *Method) containingTypeHasExplicitImplementationFor(im *Method) bool {
	ifaceType := im.ContainingType()
	owner := m.ContainingType()
	if ifaceType == nil || owner == nil {
		return false
	}
	explicitName := ifaceType.UnmangledNameWithTypeParameters() + "." + m.Name()
	for _, other := range owner.Members() {
		om, ok := other.(*Method)
		if ok && om.Name() == explicitName &&
			host.ParametersMatchStructurally(om.node.Parameters(), m.node.Parameters()) {
			return true
		}
	}
	return false
}

func wrapParameters(nodes []host.Parameter) []*Parameter {
	out := make([]*Parameter, len(nodes))
	for i, p := range nodes {
		out[i] = NewParameter(p)
	}
	return out
}
