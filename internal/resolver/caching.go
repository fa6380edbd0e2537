package resolver

import (
	"context"
	"errors"
	"sync"

	"nullcheck/internal/annotations"
	"nullcheck/internal/diag"
	"nullcheck/internal/symbols"
)

// Caching combines the global store, loaded once, with the side-by-side
// store. It is safe for concurrent use.
type Caching struct {
	loader     *FolderLoader
	sideBySide *SideBySideStore

	mu     sync.RWMutex
	loaded bool
	global annotations.Map
	err    error
}

// NewCaching takes ownership of sideBySide, which may be nil.
func NewCaching(loader *FolderLoader, sideBySide *SideBySideStore) *Caching {
	return &Caching{loader: loader, sideBySide: sideBySide}
}

// EnsureScanned loads the global store on first call. The outcome is kept,
// except for cancellation, which leaves the next call free to retry.
func (c *Caching) EnsureScanned(ctx context.Context) error {
	c.mu.RLock()
	loaded, err := c.loaded, c.err
	c.mu.RUnlock()
	if loaded {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.err
	}
	m, err := c.loader.Load(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	c.global, c.err, c.loaded = m, err, true
	return err
}

func (c *Caching) HasAnnotationForSymbol(sym symbols.Symbol, appliesToItem bool) bool {
	c.mu.RLock()
	global := c.global
	c.mu.RUnlock()
	if global.Contains(sym, appliesToItem) {
		return true
	}
	return c.sideBySide != nil && c.sideBySide.Contains(sym, appliesToItem)
}

// ReportTo forwards to the side-by-side store.
func (c *Caching) ReportTo(r diag.Reporter) {
	if c.sideBySide != nil {
		c.sideBySide.ReportTo(r)
	}
}

// Close stops watching side-by-side files.
func (c *Caching) Close() error {
	if c.sideBySide == nil {
		return nil
	}
	return c.sideBySide.Close()
}
