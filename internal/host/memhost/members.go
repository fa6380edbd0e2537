package memhost

import (
	"fmt"
	"strings"

	"nullcheck/internal/host"
)

func (b *builder) ensureMembers(t *typeNode) error {
	if t.state >= stateMembers {
		return nil
	}
	if err := b.ensureHeader(t); err != nil {
		return err
	}
	t.state = stateMembers
	if t.decl == nil || t.kind == kindArray {
		return nil
	}
	if t.template == nil {
		for _, n := range t.nested {
			t.members = append(t.members, n)
		}
	}

	d := t.decl
	for i := range d.Fields {
		fd := &d.Fields[i]
		typ, err := b.resolveString(fd.Type, t.env)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.full, fd.Name, err)
		}
		f := &fieldNode{
			name:       fd.Name,
			declaring:  t,
			typ:        typ,
			attrs:      convertAttrs(fd.Attributes),
			static:     fd.Static || fd.Literal,
			literal:    fd.Literal,
			hasDefault: fd.HasDefault || fd.Literal,
		}
		f.docID = "F:" + t.docName + "." + escapeMemberName(fd.Name)
		t.members = append(t.members, f)
	}
	for i := range d.Properties {
		if err := b.buildProperty(t, &d.Properties[i]); err != nil {
			return err
		}
	}
	for i := range d.Methods {
		if err := b.buildMethod(t, &d.Methods[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) buildProperty(t *typeNode, pd *propDecl) error {
	typ, err := b.resolveString(pd.Type, t.env)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", t.full, pd.Name, err)
	}
	p := &propertyNode{
		name:      pd.Name,
		declaring: t,
		typ:       typ,
		attrs:     convertAttrs(pd.Attributes),
		decl:      pd,
	}
	getName, setName := accessorNames(pd.Name)
	if boolOr(pd.Get, true) {
		g := &methodNode{name: getName, declaring: t, ret: typ, accessor: true, owner: p, env: t.env}
		if g.params, err = b.buildParams(pd.Params, g, t.env); err != nil {
			return fmt.Errorf("%s.%s: %w", t.full, pd.Name, err)
		}
		g.docID = methodDocID(t, g.name, 0, g.params)
		p.getter = g
	}
	if boolOr(pd.Set, true) {
		void, err := b.lookupDef("System.Void")
		if err != nil {
			return err
		}
		s := &methodNode{name: setName, declaring: t, ret: void, accessor: true, owner: p, env: t.env}
		if s.params, err = b.buildParams(pd.Params, s, t.env); err != nil {
			return fmt.Errorf("%s.%s: %w", t.full, pd.Name, err)
		}
		s.params = append(s.params, &paramNode{name: "value", typ: typ, method: s, index: len(s.params)})
		s.docID = methodDocID(t, s.name, 0, s.params)
		p.setter = s
	}
	if p.getter == nil && p.setter == nil {
		return fmt.Errorf("%s.%s: property without accessors", t.full, pd.Name)
	}
	p.docID = "P:" + t.docName + "." + escapeMemberName(pd.Name) + paramList(p.Parameters())

	t.members = append(t.members, p)
	if p.getter != nil {
		t.members = append(t.members, p.getter)
	}
	if p.setter != nil {
		t.members = append(t.members, p.setter)
	}
	return nil
}

func (b *builder) buildMethod(t *typeNode, md *methodDecl) error {
	env := t.env
	if len(md.TypeParams) > 0 {
		env = make(map[string]host.Type, len(t.env)+len(md.TypeParams))
		for k, v := range t.env {
			env[k] = v
		}
		for i, raw := range md.TypeParams {
			name, bound := splitTypeParam(raw)
			env[name] = b.genericParam(name, i, true, bound)
		}
		if err := b.bindParamBases(); err != nil {
			return err
		}
	}
	returns := md.Returns
	if returns == "" {
		returns = "System.Void"
	}
	ret, err := b.resolveString(returns, env)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", t.full, md.Name, err)
	}
	m := &methodNode{
		name:               md.Name,
		declaring:          t,
		ret:                ret,
		attrs:              convertAttrs(md.Attributes),
		compilerControlled: md.CompilerControlled,
		decl:               md,
		env:                env,
	}
	if md.Async {
		m.attrs = append(m.attrs, host.Attribute{Name: "AsyncStateMachineAttribute"})
	}
	if m.params, err = b.buildParams(md.Params, m, env); err != nil {
		return fmt.Errorf("%s.%s: %w", t.full, md.Name, err)
	}
	m.docID = methodDocID(t, m.name, len(md.TypeParams), m.params)
	t.members = append(t.members, m)
	return nil
}

func (b *builder) buildParams(decls []paramDecl, m *methodNode, env map[string]host.Type) ([]host.Parameter, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	out := make([]host.Parameter, 0, len(decls))
	for i, pd := range decls {
		typ, err := b.resolveString(pd.Type, env)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", pd.Name, err)
		}
		out = append(out, &paramNode{
			name:   pd.Name,
			typ:    typ,
			method: m,
			index:  i,
			attrs:  convertAttrs(pd.Attributes),
		})
	}
	return out, nil
}

// accessorNames derives accessor names; explicit implementations keep their
// interface qualifier: "Ns.IFoo.Name" -> "Ns.IFoo.get_Name".
func accessorNames(prop string) (string, string) {
	qualifier, name := "", prop
	if i := strings.LastIndexByte(prop, '.'); i >= 0 {
		qualifier, name = prop[:i+1], prop[i+1:]
	}
	return qualifier + "get_" + name, qualifier + "set_" + name
}

func (b *builder) ensureLinked(t *typeNode) error {
	if t.state >= stateLinked {
		return nil
	}
	if err := b.ensureMembers(t); err != nil {
		return err
	}
	t.state = stateLinked

	for _, member := range t.members {
		switch m := member.(type) {
		case *methodNode:
			if err := b.linkMethod(t, m); err != nil {
				return err
			}
		case *propertyNode:
			if err := b.linkProperty(t, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) linkMethod(t *typeNode, m *methodNode) error {
	if m.decl == nil {
		return nil
	}
	if m.decl.Override {
		base, err := b.findInBases(t, func(member host.Member) bool {
			bm, ok := member.(*methodNode)
			return ok && !bm.accessor && bm.name == m.name && host.ParametersMatchStructurally(bm.params, m.params)
		})
		if err != nil {
			return err
		}
		if base == nil {
			return fmt.Errorf("%s: no overridable method in base types", m.FullName())
		}
		m.overridden = base.(*methodNode)
	}
	for _, ref := range m.decl.Implements {
		target, err := b.findInterfaceMember(t, ref, m.env, func(member host.Member, name string) bool {
			im, ok := member.(*methodNode)
			return ok && im.name == name && host.ParametersMatchStructurally(im.params, m.params)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", m.FullName(), err)
		}
		m.implemented = append(m.implemented, target.(*methodNode))
	}
	return nil
}

func (b *builder) linkProperty(t *typeNode, p *propertyNode) error {
	if p.decl == nil {
		return nil
	}
	if p.decl.Override {
		base, err := b.findInBases(t, func(member host.Member) bool {
			bp, ok := member.(*propertyNode)
			return ok && bp.name == p.name && host.ParametersMatchStructurally(bp.Parameters(), p.Parameters())
		})
		if err != nil {
			return err
		}
		if base == nil {
			return fmt.Errorf("%s: no overridable property in base types", p.FullName())
		}
		bp := base.(*propertyNode)
		p.overridden = bp
		if p.getter != nil && bp.getter != nil {
			p.getter.overridden = bp.getter
		}
		if p.setter != nil && bp.setter != nil {
			p.setter.overridden = bp.setter
		}
	}
	for _, ref := range p.decl.Implements {
		target, err := b.findInterfaceMember(t, ref, t.env, func(member host.Member, name string) bool {
			ip, ok := member.(*propertyNode)
			return ok && ip.name == name && host.ParametersMatchStructurally(ip.Parameters(), p.Parameters())
		})
		if err != nil {
			return fmt.Errorf("%s: %w", p.FullName(), err)
		}
		ip := target.(*propertyNode)
		if p.getter != nil && ip.getter != nil {
			p.getter.implemented = append(p.getter.implemented, ip.getter)
		}
		if p.setter != nil && ip.setter != nil {
			p.setter.implemented = append(p.setter.implemented, ip.setter)
		}
	}
	return nil
}

func (b *builder) findInBases(t *typeNode, match func(host.Member) bool) (host.Member, error) {
	for base := t.base; base != nil; {
		bn, ok := base.(*typeNode)
		if !ok {
			return nil, nil
		}
		if err := b.ensureMembers(bn); err != nil {
			return nil, err
		}
		for _, member := range bn.members {
			if match(member) {
				return member, nil
			}
		}
		base = bn.base
	}
	return nil, nil
}

// findInterfaceMember resolves "Ns.IFoo`1<System.String>.Name" to a member of
// the named interface.
func (b *builder) findInterfaceMember(t *typeNode, ref string, env map[string]host.Type, match func(host.Member, string) bool) (host.Member, error) {
	typeRef, name, ok := splitMemberRef(ref)
	if !ok {
		return nil, fmt.Errorf("malformed interface member reference %q", ref)
	}
	it, err := b.resolveString(typeRef, env)
	if err != nil {
		return nil, err
	}
	in, ok := it.(*typeNode)
	if !ok {
		return nil, fmt.Errorf("interface member reference %q: not a type definition", ref)
	}
	if err := b.ensureMembers(in); err != nil {
		return nil, err
	}
	for _, member := range in.members {
		if match(member, name) {
			return member, nil
		}
	}
	return nil, fmt.Errorf("interface member %q not found", ref)
}

// splitMemberRef splits at the last '.' outside angle brackets.
func splitMemberRef(ref string) (string, string, bool) {
	depth := 0
	for i := len(ref) - 1; i >= 0; i-- {
		switch ref[i] {
		case '>':
			depth++
		case '<':
			depth--
		case '.':
			if depth == 0 {
				if i == 0 || i == len(ref)-1 {
					return "", "", false
				}
				return ref[:i], ref[i+1:], true
			}
		}
	}
	return "", "", false
}

func escapeMemberName(name string) string {
	return strings.NewReplacer(".", "#", "<", "{", ">", "}", ",", "@").Replace(name)
}

func methodDocID(t *typeNode, name string, typeParams int, params []host.Parameter) string {
	var sb strings.Builder
	sb.WriteString("M:")
	sb.WriteString(t.docName)
	sb.WriteByte('.')
	sb.WriteString(escapeMemberName(name))
	if typeParams > 0 {
		fmt.Fprintf(&sb, "``%d", typeParams)
	}
	sb.WriteString(paramList(params))
	return sb.String()
}

func paramList(params []host.Parameter) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = docNameOf(p.Type())
	}
	return "(" + strings.Join(names, ",") + ")"
}
