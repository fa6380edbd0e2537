package memhost

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"nullcheck/internal/host"
)

//go:embed universe.yaml
var universeYAML []byte

// maxTypes bounds the number of type nodes a model may create, guarding
// against unbounded generic expansion such as Foo<T> referencing Foo<List<T>>.
const maxTypes = 1 << 16

// Model is a fully built host symbol model.
type Model struct {
	roots      []host.Type
	byName     map[string]*typeNode
	assemblies []string
}

// Types returns the top-level types declared by the loaded dumps in
// declaration order. Universe types are not included.
func (m *Model) Types() []host.Type {
	return m.roots
}

// Lookup finds a type definition or an already materialized instantiation by
// full name.
func (m *Model) Lookup(fullName string) (host.Type, bool) {
	t, ok := m.byName[fullName]
	if !ok {
		return nil, false
	}
	return t, true
}

// Assemblies lists the distinct assembly paths of the loaded dumps.
func (m *Model) Assemblies() []string {
	return m.assemblies
}

// Source is one in-memory dump.
type Source struct {
	// Name is used in error messages and as the base directory for a
	// relative assembly path.
	Name string
	Data []byte
}

// Load reads YAML dumps from disk and builds one model from all of them.
func Load(paths ...string) (*Model, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read symbol dump: %w", err)
		}
		sources = append(sources, Source{Name: p, Data: data})
	}
	return LoadSources(sources...)
}

// LoadSources builds a model from in-memory dumps.
func LoadSources(sources ...Source) (*Model, error) {
	b := newBuilder()
	var universe dumpFile
	if err := yaml.Unmarshal(universeYAML, &universe); err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	if err := b.addDump(&universe, "", false); err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}

	seen := make(map[string]struct{})
	for _, src := range sources {
		var df dumpFile
		if err := yaml.Unmarshal(src.Data, &df); err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		asm := df.Assembly
		if asm != "" && !filepath.IsAbs(asm) && src.Name != "" {
			asm = filepath.Join(filepath.Dir(src.Name), asm)
		}
		df.Assembly = asm
		if err := b.addDump(&df, asm, true); err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		if _, ok := seen[asm]; !ok && asm != "" {
			seen[asm] = struct{}{}
			b.model.assemblies = append(b.model.assemblies, asm)
		}
	}

	if err := b.build(); err != nil {
		return nil, err
	}
	return b.model, nil
}

type builder struct {
	model  *Model
	all    []*typeNode
	params []*typeNode
}

func newBuilder() *builder {
	return &builder{
		model: &Model{byName: make(map[string]*typeNode)},
	}
}

func (b *builder) register(t *typeNode) error {
	if _, dup := b.model.byName[t.full]; dup {
		return fmt.Errorf("duplicate type %s", t.full)
	}
	if len(b.all) >= maxTypes {
		return errors.New("too many types: unbounded generic instantiation?")
	}
	b.model.byName[t.full] = t
	b.all = append(b.all, t)
	return nil
}

func (b *builder) addDump(df *dumpFile, asm string, user bool) error {
	for i := range df.Types {
		t, err := b.declare(&df.Types[i], nil, asm)
		if err != nil {
			return err
		}
		if user {
			b.model.roots = append(b.model.roots, t)
		}
	}
	return nil
}

func (b *builder) declare(d *typeDecl, outer *typeNode, asm string) (*typeNode, error) {
	if d.Name == "" {
		return nil, errors.New("type without name")
	}
	kind, ok := parseTypeKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("type %s: unknown kind %q", d.Name, d.Kind)
	}
	name := d.Name
	if n := len(d.TypeParams); n > 0 && !strings.Contains(name, "`") {
		name = fmt.Sprintf("%s`%d", name, n)
	}
	t := &typeNode{
		kind:               kind,
		ns:                 d.Namespace,
		name:               name,
		valueType:          kind == kindStruct || kind == kindEnum,
		compilerControlled: d.CompilerControlled,
		assembly:           asm,
		attrs:              convertAttrs(d.Attributes),
		decl:               d,
		env:                make(map[string]host.Type),
	}
	switch {
	case outer != nil:
		t.declaring = outer
		t.ns = outer.ns
		t.full = outer.full + "+" + name
		t.docName = outer.docName + "." + name
	case t.ns != "":
		t.full = t.ns + "." + name
		t.docName = t.full
	default:
		t.full = name
		t.docName = name
	}

	params := make([]string, 0, len(d.TypeParams))
	for i, raw := range d.TypeParams {
		pname, bound := splitTypeParam(raw)
		p := b.genericParam(pname, i, false, bound)
		t.typeParams = append(t.typeParams, p)
		t.env[pname] = p
		params = append(params, pname)
	}
	t.unmangled = unmangledBase(t)
	if len(params) > 0 {
		t.unmangled += "<" + strings.Join(params, ",") + ">"
	}

	if err := b.register(t); err != nil {
		return nil, err
	}
	for i := range d.Nested {
		n, err := b.declare(&d.Nested[i], t, asm)
		if err != nil {
			return nil, err
		}
		t.nested = append(t.nested, n)
	}
	return t, nil
}

func splitTypeParam(raw string) (string, bool) {
	name, constraint, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	return name, ok && strings.TrimSpace(constraint) == "struct"
}

// genericParam creates an unregistered node for a type or method type
// parameter. A struct-constrained parameter derives from System.ValueType
// but still reports IsValueType false, which is what binary readers report
// for such parameters.
func (b *builder) genericParam(name string, index int, ofMethod, structBound bool) *typeNode {
	p := &typeNode{
		kind:          kindGenericParam,
		name:          name,
		full:          name,
		unmangled:     name,
		paramIndex:    index,
		paramOfMethod: ofMethod,
		structBound:   structBound,
		state:         stateLinked,
		flattened:     true,
	}
	if ofMethod {
		p.docName = fmt.Sprintf("``%d", index)
	} else {
		p.docName = fmt.Sprintf("`%d", index)
	}
	b.params = append(b.params, p)
	return p
}

func (b *builder) bindParamBases() error {
	for _, p := range b.params {
		if p.base != nil {
			continue
		}
		name := "System.Object"
		if p.structBound {
			name = "System.ValueType"
		}
		base, err := b.lookupDef(name)
		if err != nil {
			return err
		}
		p.base = base
	}
	return nil
}

func unmangledBase(t *typeNode) string {
	name := t.name
	if i := strings.IndexByte(name, '`'); i >= 0 {
		name = name[:i]
	}
	if d, ok := t.declaring.(*typeNode); ok && d != nil {
		outer := d.unmangled
		return outer + "." + name
	}
	if t.ns == "" {
		return name
	}
	return t.ns + "." + name
}

func convertAttrs(decls []attrDecl) []host.Attribute {
	if len(decls) == 0 {
		return nil
	}
	out := make([]host.Attribute, 0, len(decls))
	for _, a := range decls {
		out = append(out, host.Attribute{Name: attributeName(a.Name), Args: a.Args})
	}
	return out
}

// build drives every registered node through header, members and linking.
// The node list grows while it runs because resolving a reference may
// materialize new instantiations.
func (b *builder) build() error {
	if err := b.bindParamBases(); err != nil {
		return err
	}
	for i := 0; i < len(b.all); i++ {
		if err := b.ensureLinked(b.all[i]); err != nil {
			return err
		}
	}
	if err := b.bindParamBases(); err != nil {
		return err
	}
	for i := 0; i < len(b.all); i++ {
		b.flatten(b.all[i])
	}
	return nil
}

func (b *builder) lookupDef(name string) (*typeNode, error) {
	t, ok := b.model.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	return t, nil
}

func (b *builder) resolveString(src string, env map[string]host.Type) (host.Type, error) {
	expr, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	return b.resolve(expr, env)
}

func (b *builder) resolve(expr *typeExpr, env map[string]host.Type) (host.Type, error) {
	var t host.Type
	if len(expr.args) == 0 {
		if v, ok := env[expr.name]; ok {
			t = v
		}
	}
	if t == nil {
		def, err := b.lookupDef(expr.name)
		if err != nil {
			return nil, err
		}
		switch {
		case len(expr.args) == 0:
			t = def
		case len(expr.args) != len(def.typeParams):
			return nil, fmt.Errorf("type %s expects %d type arguments, got %d", def.full, len(def.typeParams), len(expr.args))
		default:
			args := make([]host.Type, 0, len(expr.args))
			for _, a := range expr.args {
				at, err := b.resolve(a, env)
				if err != nil {
					return nil, err
				}
				args = append(args, at)
			}
			inst, err := b.instantiate(def, args)
			if err != nil {
				return nil, err
			}
			t = inst
		}
	}
	for range expr.arrays {
		arr, err := b.arrayOf(t)
		if err != nil {
			return nil, err
		}
		t = arr
	}
	if expr.byRef {
		ref, err := b.byRefOf(t)
		if err != nil {
			return nil, err
		}
		t = ref
	}
	return t, nil
}

func (b *builder) instantiate(def *typeNode, args []host.Type) (*typeNode, error) {
	full := make([]string, len(args))
	unmangled := make([]string, len(args))
	doc := make([]string, len(args))
	for i, a := range args {
		full[i] = a.FullName()
		unmangled[i] = a.UnmangledNameWithTypeParameters()
		doc[i] = docNameOf(a)
	}
	key := def.full + "<" + strings.Join(full, ",") + ">"
	if existing, ok := b.model.byName[key]; ok {
		return existing, nil
	}
	docBase := def.docName
	if i := strings.LastIndexByte(docBase, '`'); i >= 0 {
		docBase = docBase[:i]
	}
	t := &typeNode{
		kind:               def.kind,
		ns:                 def.ns,
		name:               def.name,
		full:               key,
		unmangled:          unmangledBase(def) + "<" + strings.Join(unmangled, ",") + ">",
		docName:            docBase + "{" + strings.Join(doc, ",") + "}",
		valueType:          def.valueType,
		compilerControlled: def.compilerControlled,
		assembly:           def.assembly,
		attrs:              def.attrs,
		declaring:          def.declaring,
		template:           def,
		args:               args,
		decl:               def.decl,
		env:                make(map[string]host.Type, len(args)),
	}
	for i, p := range def.typeParams {
		t.env[p.name] = args[i]
	}
	if err := b.register(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *builder) arrayOf(elem host.Type) (*typeNode, error) {
	key := elem.FullName() + "[]"
	if existing, ok := b.model.byName[key]; ok {
		return existing, nil
	}
	t := &typeNode{
		kind:      kindArray,
		name:      elem.Name() + "[]",
		full:      key,
		unmangled: elem.UnmangledNameWithTypeParameters() + "[]",
		docName:   docNameOf(elem) + "[]",
		elem:      elem,
		env:       map[string]host.Type{"T": elem},
	}
	if err := b.register(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *builder) byRefOf(elem host.Type) (*typeNode, error) {
	key := elem.FullName() + "&"
	if existing, ok := b.model.byName[key]; ok {
		return existing, nil
	}
	t := &typeNode{
		kind:      kindByRef,
		name:      elem.Name() + "&",
		full:      key,
		unmangled: elem.UnmangledNameWithTypeParameters() + "&",
		docName:   docNameOf(elem) + "@",
		elem:      elem,
		state:     stateLinked,
		flattened: true,
	}
	if err := b.register(t); err != nil {
		return nil, err
	}
	return t, nil
}

func docNameOf(t host.Type) string {
	if n, ok := t.(*typeNode); ok {
		return n.docName
	}
	return t.FullName()
}

var arrayInterfaces = []string{
	"System.Collections.Generic.IList`1<T>",
	"System.Collections.Generic.ICollection`1<T>",
	"System.Collections.Generic.IEnumerable`1<T>",
	"System.Collections.IEnumerable",
}

func (b *builder) ensureHeader(t *typeNode) error {
	if t.state >= stateHeader {
		return nil
	}
	t.state = stateHeader

	if t.kind == kindGenericParam {
		return nil
	}
	if t.kind == kindArray {
		base, err := b.lookupDef("System.Array")
		if err != nil {
			return err
		}
		t.base = base
		for _, src := range arrayInterfaces {
			it, err := b.resolveString(src, t.env)
			if err != nil {
				return err
			}
			t.direct = append(t.direct, it)
		}
		return nil
	}

	d := t.decl
	baseName := d.Base
	if baseName == "" {
		baseName = defaultBase(t)
	}
	if baseName != "" {
		base, err := b.resolveString(baseName, t.env)
		if err != nil {
			return fmt.Errorf("%s base: %w", t.full, err)
		}
		t.base = base
	}
	for _, src := range d.Interfaces {
		it, err := b.resolveString(src, t.env)
		if err != nil {
			return fmt.Errorf("%s interfaces: %w", t.full, err)
		}
		t.direct = append(t.direct, it)
	}
	return nil
}

func defaultBase(t *typeNode) string {
	if t.full == "System.Object" {
		return ""
	}
	switch t.kind {
	case kindInterface:
		return ""
	case kindStruct:
		return "System.ValueType"
	case kindEnum:
		return "System.Enum"
	case kindDelegate:
		return "System.MulticastDelegate"
	default:
		return "System.Object"
	}
}

// flatten computes the transitive interface list: direct interfaces first,
// then what they inherit, then what the base type implements, without
// duplicates.
func (b *builder) flatten(t *typeNode) []host.Type {
	if t.flattened || t.flattenGuard {
		return t.ifaces
	}
	t.flattenGuard = true
	seen := make(map[host.Type]struct{})
	var out []host.Type
	add := func(it host.Type) {
		if _, ok := seen[it]; ok {
			return
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	for _, it := range t.direct {
		add(it)
	}
	for _, it := range t.direct {
		if n, ok := it.(*typeNode); ok {
			for _, inherited := range b.flatten(n) {
				add(inherited)
			}
		}
	}
	if n, ok := t.base.(*typeNode); ok && n != nil {
		for _, inherited := range b.flatten(n) {
			add(inherited)
		}
	}
	t.ifaces = out
	t.flattened = true
	t.flattenGuard = false
	return out
}
