package diag

import "sort"

type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag creates a bag holding at most max diagnostics. max <= 0 means
// unlimited.
func NewBag(max int) *Bag {
	b := &Bag{max: max}
	if max > 0 {
		// не раздуваем заранее огромные лимиты
		b.items = make([]Diagnostic, 0, min(max, 256))
	}
	return b
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит);
// такие диагностики учитываются в Dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Dropped counts diagnostics rejected by the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// CountByCode groups diagnostics by rule code.
func (b *Bag) CountByCode() map[Code]int {
	out := make(map[Code]int)
	for i := range b.items {
		out[b.items[i].Code]++
	}
	return out
}

// Sort orders diagnostics by location, key, severity (desc) and code (asc)
// so output is stable regardless of the traversal interleaving.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Location != dj.Location {
			return di.Location < dj.Location
		}
		if di.Key != dj.Key {
			return di.Key < dj.Key
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}
