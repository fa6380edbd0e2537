package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step. Depth counts the phases that were still open
// when it began.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	Depth int
	open  bool
}

// Timer records named phases: the check phases and, nested under them,
// the cache read, scan and write steps of the external annotation store.
// A nil *Timer is valid and records nothing. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	open   int
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), Depth: t.open, open: true})
	t.open++
	return len(t.phases) - 1
}

// End finishes the phase at idx. Ending a phase twice keeps the first
// duration.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || !t.phases[idx].open {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.open = false
	t.open--
}

// Measure starts a phase and returns the function that ends it.
func (t *Timer) Measure(name string) func(note string) {
	idx := t.Begin(name)
	return func(note string) { t.End(idx, note) }
}

// Summary renders the report as an indented table for --timings.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range report.Phases {
		name := strings.Repeat("  ", p.Depth) + p.Name
		fmt.Fprintf(&b, "  %-40s %9.2f ms", name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-40s %9.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
	Depth      int     `json:"depth,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists the phases in start order. TotalMS sums top-level phases
// only, so nested steps are not counted twice.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		if p.Depth == 0 {
			total += p.Dur
		}
		report.Phases[i] = PhaseReport{
			Name:       p.Name,
			DurationMS: toMillis(p.Dur),
			Note:       p.Note,
			Depth:      p.Depth,
		}
	}
	report.TotalMS = toMillis(total)
	return report
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
