package diag

import "sync"

// Reporter описывает минимальный контракт получения диагностик от правил.
// Реализации: BagReporter (кладёт в Bag) и DedupReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter адаптер, который пишет в *Bag. Safe for concurrent use.
type BagReporter struct {
	mu  sync.Mutex
	Bag *Bag
}

func (r *BagReporter) Report(d Diagnostic) {
	if r == nil || r.Bag == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bag.Add(d)
}
