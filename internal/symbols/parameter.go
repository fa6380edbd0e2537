package symbols

import "nullcheck/internal/host"

type Parameter struct {
	node host.Parameter
}

func NewParameter(p host.Parameter) *Parameter {
	return &Parameter{node: p}
}

func (p *Parameter) Kind() Kind { return KindParameter }

func (p *Parameter) Name() string { return p.node.Name() }

func (p *Parameter) Type() *Type { return NewType(p.node.Type()) }

func (p *Parameter) ContainingMethod() *Method {
	return NewMethod(p.node.DeclaringMethod())
}

func (p *Parameter) ContainingType() *Type {
	return NewType(p.node.DeclaringMethod().DeclaringType())
}

func (p *Parameter) ContainingAssemblyPath() string {
	if ct := p.ContainingType(); ct != nil {
		return ct.ContainingAssemblyPath()
	}
	return ""
}

// Index is the zero-based position in the declaring method's parameter list.
func (p *Parameter) Index() int { return p.node.Index() }

func (p *Parameter) HasCompilerGeneratedAnnotation() bool {
	return host.HasAttribute(p.node.Attributes(), compilerGeneratedAttribute)
}

func (p *Parameter) HasDebuggerNonUserCodeAnnotation() bool {
	return host.HasAttribute(p.node.Attributes(), debuggerNonUserCodeAttribute)
}

func (p *Parameter) HasNullabilityAnnotation(appliesToItem bool) bool {
	return hasNullabilityAttribute(p.node.Attributes(), appliesToItem)
}

// DocumentationCommentID is unavailable for parameters.
func (p *Parameter) DocumentationCommentID() (string, bool) { return "", false }

func (p *Parameter) String() string { return p.node.Name() }

// AsUnboundGenericParameterOrThis maps a parameter of an instantiated
// generic method onto the generic definition's parameter at the same index.
func (p *Parameter) AsUnboundGenericParameterOrThis() *Parameter {
	tmpl := p.node.DeclaringMethod().Template()
	if tmpl == nil {
		return p
	}
	params := tmpl.Parameters()
	if i := p.node.Index(); i >= 0 && i < len(params) {
		return NewParameter(params[i])
	}
	return p
}

func (*Parameter) sealed() {}
