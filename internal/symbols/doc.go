// Package symbols wraps host nodes into the read-only views the nullability
// analysis works on.
//
// Symbol is a closed sum type with five variants: *Field, *Property, *Method,
// *Parameter and *Type. Callers dispatch with a type switch; Kind is a
// convenience discriminator for logging and messages.
//
// Views are cheap and built fresh per visit. Two views may denote the same
// program entity; they are related through navigation (OverriddenMethod,
// ContainingProperty, ...) rather than by identity.
package symbols
