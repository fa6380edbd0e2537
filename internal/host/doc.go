// Package host describes the boundary of the analyzed program's symbol model.
//
// The analysis engine never constructs host nodes itself. A host (a binary
// reader, a compiler front-end, or the YAML-backed memhost used by the CLI and
// tests) hands out Type, Field, Property, Method and Parameter values and the
// engine navigates them read-only.
//
// Node identity: navigation results that denote the same program entity must
// compare equal with ==. Pointer-backed implementations get this for free.
// Absent links (no base type, no overridden method) are reported as a nil
// interface value, never as a typed nil.
package host
