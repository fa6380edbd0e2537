// Package memhost is an in-memory host symbol model loaded from YAML symbol
// dumps.
//
// A dump describes one assembly:
//
//	assembly: bin/Lib.dll
//	types:
//	  - namespace: Lib
//	    name: Widget
//	    kind: class
//	    interfaces: [Lib.IWidget]
//	    fields:
//	      - {name: text, type: string}
//	    properties:
//	      - name: Item
//	        type: string
//	        params: [{name: key, type: string}]
//	    methods:
//	      - name: Get
//	        returns: string
//	        attributes: [NotNull]
//
// Type references use the reflection-style grammar Ns.Name`N<Arg,...> with []
// and & suffixes for arrays and by-ref types; C# keyword aliases (string,
// object, int, ...) are accepted. A small universe of System types is always
// present. Properties expand into get_/set_ accessor methods the way compiled
// metadata does, and implemented interfaces are flattened transitively.
//
// A Model is fully built by Load and immutable afterwards, so it can be read
// from several goroutines.
package memhost
