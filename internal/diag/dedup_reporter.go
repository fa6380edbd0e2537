package diag

import "sync"

// DedupReporter wraps another Reporter and suppresses diagnostics whose Key
// was already reported. The key set grows monotonically for the lifetime of
// the reporter; one reporter serves one rule run.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[string]struct{}),
	}
}

// Report forwards d unless its key was seen before.
func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	if !r.markSeen(d.Key) {
		return
	}
	if r.next != nil {
		r.next.Report(d)
	}
}

// markSeen is the single check-and-insert critical section.
func (r *DedupReporter) markSeen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[key]; ok {
		return false
	}
	r.seen[key] = struct{}{}
	return true
}

// Seen reports whether key was already reported.
func (r *DedupReporter) Seen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[key]
	return ok
}

// Len returns the number of distinct keys reported so far.
func (r *DedupReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
