package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"nullcheck/internal/annotations"
	"nullcheck/internal/annotations/xmldoc"
	"nullcheck/internal/diag"
	"nullcheck/internal/symbols"
	"nullcheck/internal/trace"
	"nullcheck/internal/watch"
)

// DefaultSideBySideCacheSize bounds the number of assemblies kept in memory.
const DefaultSideBySideCacheSize = 256

const sideBySideSuffix = ".ExternalAnnotations.xml"

// SideBySidePath returns {dir}/{AssemblyName}.ExternalAnnotations.xml for the
// assembly at assemblyPath, if that file exists.
func SideBySidePath(assemblyPath string) (string, bool) {
	if assemblyPath == "" {
		return "", false
	}
	base := filepath.Base(assemblyPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(filepath.Dir(assemblyPath), name+sideBySideSuffix)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

type assemblyEntry struct {
	m      annotations.Map
	handle *watch.Handle
}

func (e *assemblyEntry) release() {
	if e != nil && e.handle != nil {
		e.handle.Release()
	}
}

// SideBySideStore caches per-assembly annotation maps. An entry is dropped,
// and its watch released, when the file changes, when it is evicted, or on
// Close. The next lookup parses the file again.
type SideBySideStore struct {
	cache   *lru.Cache[string, *assemblyEntry]
	loads   singleflight.Group
	watches *watch.Registry
	tracer  trace.Tracer

	// epochs counts invalidations per path so a load racing with a change
	// does not cache stale content.
	mu       sync.Mutex
	epochs   map[string]uint64
	reporter diag.Reporter

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSideBySideStore starts the watch registry and the goroutine that owns
// invalidation. size <= 0 selects DefaultSideBySideCacheSize.
func NewSideBySideStore(size int, tracer trace.Tracer) (*SideBySideStore, error) {
	if size <= 0 {
		size = DefaultSideBySideCacheSize
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	s := &SideBySideStore{
		tracer: tracer,
		epochs: make(map[string]uint64),
	}
	cache, err := lru.NewWithEvict(size, func(_ string, e *assemblyEntry) { e.release() })
	if err != nil {
		return nil, err
	}
	s.cache = cache

	watches, err := watch.NewRegistry(16, watch.WithErrorHandler(func(err error) {
		trace.Point(s.tracer, trace.ScopeResolver, "sidebyside_watch_error", err.Error(), 0)
	}))
	if err != nil {
		return nil, err
	}
	s.watches = watches

	s.wg.Add(1)
	go s.invalidateLoop()
	return s, nil
}

func (s *SideBySideStore) invalidateLoop() {
	defer s.wg.Done()
	for path := range s.watches.Events() {
		s.invalidate(path)
	}
}

func (s *SideBySideStore) invalidate(path string) {
	s.mu.Lock()
	s.epochs[path]++
	s.mu.Unlock()
	if s.cache.Remove(path) {
		trace.Point(s.tracer, trace.ScopeResolver, "sidebyside_evict", path, 0)
	}
}

// Contains looks sym up in the side-by-side file of its assembly.
func (s *SideBySideStore) Contains(sym symbols.Symbol, appliesToItem bool) bool {
	path, ok := SideBySidePath(sym.ContainingAssemblyPath())
	if !ok {
		return false
	}
	return s.Map(path).Contains(sym, appliesToItem)
}

// Map returns the annotations of one side-by-side file, parsing it when it
// is not cached. Concurrent first lookups of a path share one parse.
func (s *SideBySideStore) Map(path string) annotations.Map {
	if abs, err := filepath.Abs(path); err == nil {
		path = filepath.Clean(abs)
	}
	if e, ok := s.cache.Get(path); ok {
		return e.m
	}
	v, _, _ := s.loads.Do(path, func() (any, error) {
		if e, ok := s.cache.Get(path); ok {
			return e, nil
		}
		return s.load(path), nil
	})
	return v.(*assemblyEntry).m
}

func (s *SideBySideStore) load(path string) *assemblyEntry {
	s.mu.Lock()
	epoch := s.epochs[path]
	s.mu.Unlock()

	// watch before reading, so a write during the parse is not missed
	handle, werr := s.watches.Add(path)
	if werr != nil {
		trace.Point(s.tracer, trace.ScopeResolver, "sidebyside_watch_error", werr.Error(), 0)
	}

	span := trace.Begin(s.tracer, trace.ScopeResolver, "sidebyside_parse", 0).WithExtra("path", path)
	m, err := xmldoc.ParseFile(path)
	if err != nil {
		m = make(annotations.Map)
		span.End("malformed: " + err.Error())
		s.report(diag.New(diag.SevWarning, diag.AnnotationsSideBySideBad, path,
			"side-by-side external annotation file is malformed; its annotations are ignored").
			WithLocation(path).
			WithNote(err.Error()))
	} else {
		m.Compact()
		span.End("")
	}
	entry := &assemblyEntry{m: m, handle: handle}

	// without a watch nothing would ever refresh the entry
	if handle == nil {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epochs[path] != epoch {
		entry.release()
		return entry
	}
	if found, _ := s.cache.ContainsOrAdd(path, entry); found {
		entry.release()
	}
	return entry
}

// ReportTo directs diagnostics about malformed files to r; nil stops
// reporting. Files parsed before the call are not reported again.
func (s *SideBySideStore) ReportTo(r diag.Reporter) {
	s.mu.Lock()
	s.reporter = r
	s.mu.Unlock()
}

func (s *SideBySideStore) report(d diag.Diagnostic) {
	s.mu.Lock()
	r := s.reporter
	s.mu.Unlock()
	if r != nil {
		r.Report(d)
	}
}

// Len reports the number of cached assemblies.
func (s *SideBySideStore) Len() int { return s.cache.Len() }

// Close releases every watch and stops the invalidation goroutine.
func (s *SideBySideStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cache.Purge()
		err = s.watches.Close()
		s.wg.Wait()
	})
	return err
}
