// Package annotations holds external nullability facts keyed by
// documentation-comment ID.
//
// An ID looks like "M:Ns.Type.Method(System.String)": a one-letter kind
// (T, M, F, P, E, N), a colon, and the member key. A Map stores the key with
// the "X:" prefix stripped and keeps the kind letter in the entry, so lookups
// with a mismatched kind never hit even when the remainder collides.
package annotations
