package symbols

import "nullcheck/internal/host"

// Property is a property or indexer.
type Property struct {
	member
	node host.Property
}

func NewProperty(p host.Property) *Property {
	return &Property{member: member{node: p}, node: p}
}

func (p *Property) Kind() Kind { return KindProperty }

func (p *Property) Host() host.Property { return p.node }

func (p *Property) Type() *Type { return NewType(p.node.Type()) }

func (p *Property) OverriddenProperty() *Property {
	base := p.node.OverriddenProperty()
	if base == nil {
		return nil
	}
	return NewProperty(base)
}

// Parameters are the index parameters of an indexer.
func (p *Property) Parameters() []*Parameter {
	return wrapParameters(p.node.Parameters())
}

func (p *Property) IsImplementationForInterfaceMember(iface Member) bool {
	ip, ok := iface.(*Property)
	if !ok {
		return false
	}
	if implementsAccessor(p.node.Getter(), ip.node.Getter()) ||
		implementsAccessor(p.node.Setter(), ip.node.Setter()) {
		return true
	}
	implicit := p.Name() == ip.Name() &&
		host.ParametersMatchStructurally(p.node.Parameters(), ip.node.Parameters())
	return implicit && !p.containingTypeHasExplicitImplementationFor(ip)
}

func implementsAccessor(accessor, ifaceAccessor host.Method) bool {
	if accessor == nil || ifaceAccessor == nil {
		return false
	}
	for _, implemented := range accessor.ImplementedInterfaceMethods() {
		if implemented == ifaceAccessor {
			return true
		}
	}
	return false
}

func (p *Property) containingTypeHasExplicitImplementationFor(ip *Property) bool {
	ifaceType := ip.ContainingType()
	owner := p.ContainingType()
	if ifaceType == nil || owner == nil {
		return false
	}
	explicitName := ifaceType.UnmangledNameWithTypeParameters() + "." + p.Name()
	for _, other := range owner.Members() {
		op, ok := other.(*Property)
		if ok && op.Name() == explicitName &&
			host.ParametersMatchStructurally(op.node.Parameters(), p.node.Parameters()) {
			return true
		}
	}
	return false
}
