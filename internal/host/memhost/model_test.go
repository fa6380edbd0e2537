package memhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nullcheck/internal/host"
)

const widgetDump = `
assembly: /opt/lib/Lib.dll
types:
  - namespace: Lib
    name: IWidget
    kind: interface
    methods:
      - {name: Render, returns: string, attributes: [NotNull]}
  - namespace: Lib
    name: Base
    properties:
      - name: Item
        type: string
        params: [{name: a, type: string}, {name: b, type: int}]
    methods:
      - {name: Describe, returns: string, params: [{name: verbose, type: bool}]}
  - namespace: Lib
    name: Widget
    base: Lib.Base
    interfaces: [Lib.IWidget]
    fields:
      - {name: text, type: string}
      - {name: Max, type: int, literal: true}
    properties:
      - name: Item
        type: string
        params: [{name: a, type: string}, {name: b, type: int}]
        override: true
    methods:
      - {name: Render, returns: string}
      - {name: Lib.IWidget.Render, returns: string, implements: [Lib.IWidget.Render]}
      - {name: Describe, returns: string, params: [{name: verbose, type: bool}], override: true}
      - name: Fetch
        returns: System.Threading.Tasks.Task<System.Collections.Generic.List<string>>
        async: true
        params: [{name: ids, type: "int[]"}, {name: count, type: "int&"}]
    nested:
      - {name: Node, fields: [{name: next, type: Lib.Widget+Node}]}
  - namespace: Lib
    name: Holder
    type_params: ["T: struct"]
    properties:
      - {name: Value, type: T}
`

func loadWidget(t *testing.T) *Model {
	t.Helper()
	m, err := LoadSources(Source{Name: "widget.yaml", Data: []byte(widgetDump)})
	require.NoError(t, err)
	return m
}

func memberNamed(t *testing.T, typ host.Type, name string) host.Member {
	t.Helper()
	for _, m := range typ.Members() {
		if m.Name() == name {
			return m
		}
	}
	t.Fatalf("member %s not found on %s", name, typ.FullName())
	return nil
}

func TestLoadBuildsDocumentationIDs(t *testing.T) {
	m := loadWidget(t)
	widget, ok := m.Lookup("Lib.Widget")
	require.True(t, ok)

	assert.Equal(t, "T:Lib.Widget", widget.DocumentationCommentID())
	assert.Equal(t, "F:Lib.Widget.text", memberNamed(t, widget, "text").DocumentationCommentID())
	assert.Equal(t, "P:Lib.Widget.Item(System.String,System.Int32)", memberNamed(t, widget, "Item").DocumentationCommentID())
	assert.Equal(t, "M:Lib.Widget.set_Item(System.String,System.Int32,System.String)", memberNamed(t, widget, "set_Item").DocumentationCommentID())
	assert.Equal(t, "M:Lib.Widget.Render", memberNamed(t, widget, "Render").DocumentationCommentID())
	assert.Equal(t, "M:Lib.Widget.Lib#IWidget#Render", memberNamed(t, widget, "Lib.IWidget.Render").DocumentationCommentID())
	assert.Equal(t, "M:Lib.Widget.Fetch(System.Int32[],System.Int32@)", memberNamed(t, widget, "Fetch").DocumentationCommentID())

	node := memberNamed(t, widget, "Node").(host.Type)
	assert.Equal(t, "Lib.Widget+Node", node.FullName())
	assert.Equal(t, "F:Lib.Widget.Node.next", memberNamed(t, node, "next").DocumentationCommentID())
}

func TestLoadLinksOverridesAndExplicitImplementations(t *testing.T) {
	m := loadWidget(t)
	widget, _ := m.Lookup("Lib.Widget")
	iface, _ := m.Lookup("Lib.IWidget")

	describe := memberNamed(t, widget, "Describe").(host.Method)
	require.NotNil(t, describe.OverriddenMethod())
	assert.Equal(t, "M:Lib.Base.Describe(System.Boolean)", describe.OverriddenMethod().DocumentationCommentID())

	item := memberNamed(t, widget, "Item").(host.Property)
	require.NotNil(t, item.OverriddenProperty())
	require.NotNil(t, item.Getter().OverriddenMethod())
	assert.Len(t, item.Parameters(), 2)
	assert.Same(t, item.Getter(), item.Parameters()[0].DeclaringMethod())

	explicit := memberNamed(t, widget, "Lib.IWidget.Render").(host.Method)
	ifaceRender := memberNamed(t, iface, "Render").(host.Method)
	require.Len(t, explicit.ImplementedInterfaceMethods(), 1)
	assert.True(t, explicit.ImplementedInterfaceMethods()[0] == ifaceRender)

	implicit := memberNamed(t, widget, "Render").(host.Method)
	assert.Empty(t, implicit.ImplementedInterfaceMethods())
	assert.Nil(t, implicit.OverriddenMethod())
}

func TestLoadGenericsArraysAndReferences(t *testing.T) {
	m := loadWidget(t)
	widget, _ := m.Lookup("Lib.Widget")
	fetch := memberNamed(t, widget, "Fetch").(host.Method)

	ret := fetch.ReturnType()
	assert.Equal(t, "System.Threading.Tasks.Task`1<System.Collections.Generic.List`1<System.String>>", ret.FullName())
	require.NotNil(t, ret.Template())
	assert.Equal(t, "System.Threading.Tasks.Task`1", ret.Template().FullName())
	assert.True(t, host.HasAttribute(fetch.Attributes(), "AsyncStateMachineAttribute"))

	list := ret.TemplateArguments()[0]
	var ifaces []string
	for _, it := range list.Interfaces() {
		ifaces = append(ifaces, it.FullName())
	}
	assert.Contains(t, ifaces, "System.Collections.Generic.IEnumerable`1<System.String>")
	assert.Contains(t, ifaces, "System.Collections.IEnumerable")

	ids := fetch.Parameters()[0].Type()
	assert.Equal(t, "System.Int32[]", ids.FullName())
	assert.Equal(t, "System.Array", ids.BaseType().FullName())

	count := fetch.Parameters()[1].Type()
	require.True(t, count.IsReference())
	assert.Equal(t, "System.Int32", count.ElementType().FullName())
	assert.True(t, count.ElementType().IsValueType())
}

func TestStructConstrainedParameterDerivesFromValueType(t *testing.T) {
	m := loadWidget(t)
	holder, ok := m.Lookup("Lib.Holder`1")
	require.True(t, ok)

	value := memberNamed(t, holder, "Value").(host.Property)
	param := value.Type()
	assert.False(t, param.IsValueType())
	require.NotNil(t, param.BaseType())
	assert.Equal(t, "System.ValueType", param.BaseType().FullName())
	assert.Equal(t, "P:Lib.Holder`1.Value", value.DocumentationCommentID())
}

func TestLoadRejectsUnknownTypes(t *testing.T) {
	_, err := LoadSources(Source{Name: "bad.yaml", Data: []byte(`
types:
  - {name: Broken, fields: [{name: x, type: Missing.Type}]}
`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type Missing.Type")
}

func TestRootsAndAssemblies(t *testing.T) {
	m := loadWidget(t)
	require.Len(t, m.Types(), 4)
	assert.Equal(t, "Lib.IWidget", m.Types()[0].FullName())
	assert.Equal(t, []string{"/opt/lib/Lib.dll"}, m.Assemblies())
	assert.Equal(t, "/opt/lib/Lib.dll", m.Types()[0].AssemblyPath())
}
