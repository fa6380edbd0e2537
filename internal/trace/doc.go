// Package trace provides the tracing subsystem for nullcheck.
//
// Tracing is how nullcheck reports what it is doing: cache reads and writes,
// annotation folder scans, side-by-side file loads, watch evictions and rule
// runs are all emitted as spans or point events. Nothing is written unless a
// tracer is configured.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	nullcheck check --trace=- --trace-level=detail model.yaml
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and rule boundaries
//   - LevelDetail: resolver events (cache, scan, side-by-side files)
//   - LevelDebug: everything including per-symbol decisions
//
// # Scopes
//
//   - ScopeDriver: top-level CLI operations
//   - ScopeRule: one rule run over a model
//   - ScopeResolver: external annotation resolution
//   - ScopeSymbol: per-symbol analysis
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.StartSpan(ctx, trace.ScopeResolver, "annotations_cache_read")
//	defer span.End("")
//
// Spans filtered out by the level are inert and leave the current span of
// ctx unchanged, so children attach to the nearest emitted ancestor.
package trace
