package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"nullcheck/internal/analysis"
	"nullcheck/internal/diag"
	"nullcheck/internal/host"
	"nullcheck/internal/observ"
	"nullcheck/internal/resolver"
	"nullcheck/internal/rule"
	"nullcheck/internal/symbols"
	"nullcheck/internal/trace"
)

// ErrNoResolver is returned by Check when CheckOptions.Resolver is nil.
var ErrNoResolver = errors.New("no external annotation resolver configured")

// RuleSet selects which nullability rules run.
type RuleSet uint8

const (
	RulePlain RuleSet = 1 << iota
	RuleItem

	RuleAll = RulePlain | RuleItem
)

// CheckOptions содержит опции для проверки модели
type CheckOptions struct {
	Resolver resolver.Resolver
	// Rules defaults to RuleAll.
	Rules RuleSet
	// MaxDiagnostics limits the bag; 0 means unlimited.
	MaxDiagnostics int
	// Timer records phase timings when set.
	Timer    *observ.Timer
	Observer PhaseObserver
	Progress ProgressSink
}

// RuleStats summarizes one rule run.
type RuleStats struct {
	Rule     string
	Code     diag.Code
	Checked  int
	Reported int
	Outcomes map[analysis.Outcome]int
}

type CheckResult struct {
	Bag        *diag.Bag
	Assemblies []string
	Rules      []RuleStats
	Timing     *observ.Report
}

// unit is the traversal of one assembly, in visiting order.
type unit struct {
	assembly string
	symbols  []symbols.Symbol
}

// Check runs the nullability rules over every type in types. Types are
// grouped by assembly; within an assembly the rules run concurrently while
// each rule visits symbols in a fixed order, so the first report of a
// logical symbol is deterministic.
//
// A failure to load the global external annotations aborts the check with
// the resolver's error (a *resolver.MissingAnnotationsError for the folder
// store).
func Check(ctx context.Context, types []host.Type, opts CheckOptions) (*CheckResult, error) {
	if opts.Resolver == nil {
		return nil, ErrNoResolver
	}
	if opts.Rules == 0 {
		opts.Rules = RuleAll
	}
	span, ctx := trace.StartSpan(ctx, trace.ScopeDriver, "check")
	r := &checkRun{opts: opts, tracer: trace.FromContext(ctx)}

	done := r.phase("collect")
	units := collect(types)
	total := 0
	for _, u := range units {
		total += len(u.symbols)
	}
	done(fmt.Sprintf("assemblies=%d symbols=%d", len(units), total))

	result := &CheckResult{Assemblies: make([]string, 0, len(units))}
	for _, u := range units {
		result.Assemblies = append(result.Assemblies, u.assembly)
		emit(opts.Progress, Event{Assembly: u.assembly, Stage: StageAnalyze, Status: StatusQueued})
	}

	done = r.phase("external_annotations")
	emit(opts.Progress, Event{Stage: StageAnnotations, Status: StatusWorking})
	started := time.Now()
	if err := opts.Resolver.EnsureScanned(ctx); err != nil {
		done("failed")
		emit(opts.Progress, Event{Stage: StageAnnotations, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		for _, u := range units {
			emit(opts.Progress, Event{Assembly: u.assembly, Stage: StageAnnotations, Status: StatusError, Err: err})
		}
		span.End("external annotations unavailable")
		return nil, err
	}
	done("")
	emit(opts.Progress, Event{Stage: StageAnnotations, Status: StatusDone, Elapsed: time.Since(started)})

	bag := diag.NewBag(opts.MaxDiagnostics)
	out := &diag.BagReporter{Bag: bag}
	if src, ok := opts.Resolver.(resolver.DiagnosticSource); ok {
		// один отчёт на файл, даже если он перечитан после изменения
		src.ReportTo(diag.NewDedupReporter(out))
		defer src.ReportTo(nil)
	}
	var rules []*rule.Rule
	if opts.Rules&RulePlain != 0 {
		rules = append(rules, rule.NewNullabilityRule(out))
	}
	if opts.Rules&RuleItem != 0 {
		rules = append(rules, rule.NewItemNullabilityRule(out))
	}
	stats := make([]RuleStats, len(rules))
	for i, rl := range rules {
		stats[i] = RuleStats{Rule: rl.Name(), Code: rl.Code(), Outcomes: make(map[analysis.Outcome]int)}
	}

	done = r.phase("analyze")
	for _, u := range units {
		if err := r.checkUnit(ctx, u, rules, stats); err != nil {
			done("failed")
			span.End(err.Error())
			return nil, err
		}
	}
	for i, rl := range rules {
		stats[i].Reported = rl.Reported()
	}
	done(fmt.Sprintf("diags=%d dropped=%d", bag.Len(), bag.Dropped()))

	bag.Sort()
	result.Bag = bag
	result.Rules = stats
	if opts.Timer != nil {
		report := opts.Timer.Report()
		result.Timing = &report
	}
	span.End(fmt.Sprintf("diags=%d", bag.Len()))
	return result, nil
}

type checkRun struct {
	opts   CheckOptions
	tracer trace.Tracer
}

func (r *checkRun) phase(name string) func(note string) {
	start := time.Now()
	idx := r.opts.Timer.Begin(name)
	if r.opts.Observer != nil {
		r.opts.Observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return func(note string) {
		r.opts.Timer.End(idx, note)
		if r.opts.Observer != nil {
			r.opts.Observer(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
		}
	}
}

func (r *checkRun) checkUnit(ctx context.Context, u unit, rules []*rule.Rule, stats []RuleStats) error {
	started := time.Now()
	emit(r.opts.Progress, Event{Assembly: u.assembly, Stage: StageAnalyze, Status: StatusWorking})
	before := reportedTotal(rules)

	g, gctx := errgroup.WithContext(ctx)
	for i, rl := range rules {
		g.Go(func() error {
			return r.runRule(gctx, u, rl, &stats[i])
		})
	}
	if err := g.Wait(); err != nil {
		emit(r.opts.Progress, Event{Assembly: u.assembly, Stage: StageAnalyze, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return err
	}
	emit(r.opts.Progress, Event{
		Assembly: u.assembly,
		Stage:    StageAnalyze,
		Status:   StatusDone,
		Elapsed:  time.Since(started),
		Reported: reportedTotal(rules) - before,
	})
	return nil
}

func (r *checkRun) runRule(ctx context.Context, u unit, rl *rule.Rule, st *RuleStats) error {
	span := trace.Begin(r.tracer, trace.ScopeRule, "rule:"+rl.Name(), trace.CurrentSpan(ctx).SpanID).
		WithExtra("assembly", u.assembly)
	for _, sym := range u.symbols {
		if err := ctx.Err(); err != nil {
			span.End("canceled")
			return err
		}
		outcome, err := rl.Check(sym, r.opts.Resolver)
		if err != nil {
			span.End(err.Error())
			return fmt.Errorf("%s: %w", sym, err)
		}
		st.Checked++
		st.Outcomes[outcome]++
		if r.tracer.Enabled() {
			trace.Point(r.tracer, trace.ScopeSymbol, outcome.String(), sym.Kind().String()+" "+sym.String(), span.ID())
		}
	}
	span.End(fmt.Sprintf("checked=%d", len(u.symbols)))
	return nil
}

func reportedTotal(rules []*rule.Rule) int {
	n := 0
	for _, rl := range rules {
		n += rl.Reported()
	}
	return n
}

// collect flattens types into per-assembly symbol lists. Nested types come
// before the members of their container; method parameters follow their
// method. Assemblies keep the order in which they are first seen.
func collect(types []host.Type) []unit {
	var units []unit
	index := make(map[string]int)
	var visit func(t host.Type)
	visit = func(t host.Type) {
		if t == nil {
			return
		}
		asm := t.AssemblyPath()
		i, ok := index[asm]
		if !ok {
			i = len(units)
			index[asm] = i
			units = append(units, unit{assembly: asm})
		}
		for _, m := range t.Members() {
			if nested, ok := m.(host.Type); ok {
				visit(nested)
			}
		}
		typ := symbols.NewType(t)
		for _, m := range typ.Members() {
			units[i].symbols = append(units[i].symbols, m)
			if method, ok := m.(*symbols.Method); ok {
				for _, p := range method.Parameters() {
					units[i].symbols = append(units[i].symbols, p)
				}
			}
		}
	}
	for _, t := range types {
		visit(t)
	}
	return units
}
