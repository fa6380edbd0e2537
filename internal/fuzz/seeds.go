package fuzztests

import "testing"

// maxFuzzInput caps a single input; larger dumps only slow the run down.
const maxFuzzInput = 64 << 10

var annotationSeeds = []string{
	`<assembly name="Lib"/>`,
	`<assembly name="Lib">
  <member name="M:Lib.Widget.Render(System.String)">
    <attribute ctor="M:JetBrains.Annotations.NotNullAttribute.#ctor" />
    <parameter name="format">
      <attribute ctor="M:JetBrains.Annotations.CanBeNullAttribute.#ctor" />
    </parameter>
  </member>
</assembly>`,
	`<assembly name="Lib"><member name="F:">` + `<attribute ctor="" /></member></assembly>`,
	`<assembly><member name="broken-id"><parameter/></member>`,
	`<configuration />`,
	``,
}

var dumpSeeds = []string{
	`assembly: /bin/Lib.dll
types:
  - namespace: Lib
    name: Widget
    fields:
      - {name: text, type: string}
`,
	`assembly: /bin/Lib.dll
types:
  - namespace: Lib
    name: Box
    type_params: ["T: struct"]
    fields:
      - {name: value, type: T}
      - {name: maybe, type: "System.Nullable<int>"}
      - {name: items, type: "System.Collections.Generic.List<string>"}
    methods:
      - name: Fill
        params: [{name: target, type: "string&", attributes: [CanBeNull]}]
`,
	`assembly: /bin/Lib.dll
types:
  - namespace: Lib
    name: IShape
    kind: interface
    methods:
      - {name: Describe, returns: string, attributes: [NotNull]}
  - namespace: Lib
    name: Square
    interfaces: [Lib.IShape]
    methods:
      - {name: Lib.IShape.Describe, returns: string, implements: [Lib.IShape.Describe]}
    properties:
      - name: Item
        type: string
        params: [{name: key, type: string}]
`,
	`assembly: /bin/Lib.dll
types:
  - namespace: Lib
    name: Node
    fields:
      - {name: next, type: "Lib.Node<Lib.Node<T>>"}
`,
	`types: [{name: ""}]`,
	`{{{`,
}

func addAnnotationSeeds(f *testing.F) {
	for _, s := range annotationSeeds {
		f.Add([]byte(s))
	}
}

func addDumpSeeds(f *testing.F) {
	for _, s := range dumpSeeds {
		f.Add([]byte(s))
	}
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
