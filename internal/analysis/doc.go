// Package analysis decides whether a member or parameter must carry a
// nullability annotation.
//
// NewAnalyzer picks the analyzer for a symbol kind. Analyze runs a fixed
// exemption chain; the first stage that applies ends the analysis, so later
// stages (external annotation lookups in particular) never run for exempt
// symbols. Symbols that survive the chain are checked against the kind's own
// rules and against annotations inherited from base members and implemented
// interface members.
package analysis
