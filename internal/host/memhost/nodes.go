package memhost

import (
	"nullcheck/internal/host"
)

type typeKind uint8

const (
	kindClass typeKind = iota
	kindStruct
	kindInterface
	kindEnum
	kindDelegate
	kindGenericParam
	kindArray
	kindByRef
)

// parseTypeKind maps the "kind" key of a dump; empty means class.
func parseTypeKind(s string) (typeKind, bool) {
	switch s {
	case "", "class":
		return kindClass, true
	case "struct":
		return kindStruct, true
	case "interface":
		return kindInterface, true
	case "enum":
		return kindEnum, true
	case "delegate":
		return kindDelegate, true
	}
	return 0, false
}

type buildState uint8

const (
	stateNew buildState = iota
	stateHeader
	stateMembers
	stateLinked
)

type typeNode struct {
	kind      typeKind
	ns        string
	name      string
	full      string
	unmangled string
	docName   string

	valueType          bool
	compilerControlled bool
	assembly           string
	attrs              []host.Attribute

	declaring host.Type
	template  host.Type
	args      []host.Type
	elem      host.Type
	base      host.Type
	direct    []host.Type
	ifaces    []host.Type
	members   []host.Member
	nested    []*typeNode

	// definitions and instantiations
	decl       *typeDecl
	typeParams []*typeNode
	env        map[string]host.Type

	// generic parameters
	paramIndex    int
	paramOfMethod bool
	structBound   bool

	state        buildState
	flattened    bool
	flattenGuard bool
}

var (
	_ host.Type   = (*typeNode)(nil)
	_ host.Member = (*typeNode)(nil)
)

func (t *typeNode) Name() string { return t.name }
func (t *typeNode) FullName() string { return t.full }
func (t *typeNode) UnmangledNameWithTypeParameters() string { return t.unmangled }
func (t *typeNode) DocumentationCommentID() string { return "T:" + t.docName }
func (t *typeNode) IsValueType() bool { return t.valueType }
func (t *typeNode) IsCompilerControlled() bool { return t.compilerControlled }
func (t *typeNode) IsReference() bool { return t.kind == kindByRef }
func (t *typeNode) ElementType() host.Type { return t.elem }
func (t *typeNode) BaseType() host.Type { return t.base }
func (t *typeNode) DeclaringType() host.Type { return t.declaring }
func (t *typeNode) Template() host.Type { return t.template }
func (t *typeNode) TemplateArguments() []host.Type { return t.args }
func (t *typeNode) Interfaces() []host.Type { return t.ifaces }
func (t *typeNode) Members() []host.Member { return t.members }
func (t *typeNode) Attributes() []host.Attribute { return t.attrs }
func (t *typeNode) AssemblyPath() string { return t.assembly }
func (t *typeNode) MemberKind() host.MemberKind { return host.MemberNestedType }

func (t *typeNode) String() string { return t.full }

type fieldNode struct {
	name       string
	declaring  *typeNode
	typ        host.Type
	attrs      []host.Attribute
	static     bool
	literal    bool
	hasDefault bool
	docID      string
}

var _ host.Field = (*fieldNode)(nil)

func (f *fieldNode) MemberKind() host.MemberKind { return host.MemberField }
func (f *fieldNode) Name() string { return f.name }
func (f *fieldNode) FullName() string { return f.declaring.full + "." + f.name }
func (f *fieldNode) DeclaringType() host.Type { return f.declaring }
func (f *fieldNode) Attributes() []host.Attribute { return f.attrs }
func (f *fieldNode) DocumentationCommentID() string { return f.docID }
func (f *fieldNode) Type() host.Type { return f.typ }
func (f *fieldNode) IsLiteral() bool { return f.literal }
func (f *fieldNode) IsStatic() bool { return f.static }
func (f *fieldNode) HasDefault() bool { return f.hasDefault }

type propertyNode struct {
	name       string
	declaring  *typeNode
	typ        host.Type
	attrs      []host.Attribute
	getter     *methodNode
	setter     *methodNode
	overridden host.Property
	docID      string
	decl       *propDecl
}

var _ host.Property = (*propertyNode)(nil)

func (p *propertyNode) MemberKind() host.MemberKind { return host.MemberProperty }
func (p *propertyNode) Name() string { return p.name }
func (p *propertyNode) FullName() string { return p.declaring.full + "." + p.name }
func (p *propertyNode) DeclaringType() host.Type { return p.declaring }
func (p *propertyNode) Attributes() []host.Attribute { return p.attrs }
func (p *propertyNode) DocumentationCommentID() string { return p.docID }
func (p *propertyNode) Type() host.Type { return p.typ }
func (p *propertyNode) OverriddenProperty() host.Property {
	return p.overridden
}

// Parameters returns the index parameters as declared by the getter, or by
// the setter without its trailing value parameter.
func (p *propertyNode) Parameters() []host.Parameter {
	if p.getter != nil {
		return p.getter.params
	}
	if p.setter != nil && len(p.setter.params) > 0 {
		return p.setter.params[:len(p.setter.params)-1]
	}
	return nil
}

func (p *propertyNode) Getter() host.Method {
	if p.getter == nil {
		return nil
	}
	return p.getter
}

func (p *propertyNode) Setter() host.Method {
	if p.setter == nil {
		return nil
	}
	return p.setter
}

type methodNode struct {
	name               string
	declaring          *typeNode
	ret                host.Type
	params             []host.Parameter
	attrs              []host.Attribute
	accessor           bool
	compilerControlled bool
	owner              host.Member
	overridden         host.Method
	implemented        []host.Method
	docID              string
	decl               *methodDecl
	env                map[string]host.Type
}

var _ host.Method = (*methodNode)(nil)

func (m *methodNode) MemberKind() host.MemberKind { return host.MemberMethod }
func (m *methodNode) Name() string { return m.name }
func (m *methodNode) FullName() string { return m.declaring.full + "." + m.name }
func (m *methodNode) DeclaringType() host.Type { return m.declaring }
func (m *methodNode) Attributes() []host.Attribute { return m.attrs }
func (m *methodNode) DocumentationCommentID() string { return m.docID }
func (m *methodNode) ReturnType() host.Type { return m.ret }
func (m *methodNode) Parameters() []host.Parameter { return m.params }
func (m *methodNode) IsAccessor() bool { return m.accessor }
func (m *methodNode) IsCompilerControlled() bool { return m.compilerControlled }
func (m *methodNode) DeclaringMember() host.Member { return m.owner }
func (m *methodNode) OverriddenMethod() host.Method { return m.overridden }
func (m *methodNode) ImplementedInterfaceMethods() []host.Method { return m.implemented }

// Template is always nil: dumps describe generic method definitions only.
func (m *methodNode) Template() host.Method { return nil }

type paramNode struct {
	name   string
	typ    host.Type
	method *methodNode
	index  int
	attrs  []host.Attribute
}

var _ host.Parameter = (*paramNode)(nil)

func (p *paramNode) Name() string { return p.name }
func (p *paramNode) Type() host.Type { return p.typ }
func (p *paramNode) DeclaringMethod() host.Method { return p.method }
func (p *paramNode) Index() int { return p.index }
func (p *paramNode) Attributes() []host.Attribute { return p.attrs }
