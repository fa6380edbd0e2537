// Package diag defines the diagnostic model shared by the nullability rules.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     Decorate (plain) and ItemDecorate (item) rules, and for problems with the
//     external annotation inputs (EXT codes).
//   - Offer light-weight utilities (Reporter, Bag, DedupReporter) that let rules
//     emit diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does not perform formatting or IO. Rendering lives in
// internal/diagfmt, orchestration in internal/driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in diagnostic.go.
//   - Code: compact numeric rule identifier (see codes.go) with stable string form.
//   - Key: identity of the reported logical symbol; two diagnostics with the
//     same Key describe the same source location.
//   - Symbol / Kind: display name and kind of the symbol the message refers to.
//   - Message: resolution text with the display name substituted.
//   - Notes: optional secondary messages.
//
// A Bag keeps diagnostics up to an optional limit; rejected ones are only
// counted (Bag.Dropped) so renderers can say how many were cut.
//
// # Deduplication
//
// The host traversal visits some logical symbols more than once (explicit and
// implicit interface views, indexer get/set pairs). DedupReporter keeps the
// set of keys already reported for one rule run and forwards only the first
// diagnostic per key. The set only grows.
package diag
