package resolver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"nullcheck/internal/annotations"
	"nullcheck/internal/annotations/xmldoc"
	"nullcheck/internal/observ"
	"nullcheck/internal/trace"
)

// scanMu serializes the cache read, folder scan and cache write sequence
// within the process. Other processes may still race on the cache file.
var scanMu sync.Mutex

// FolderLoader builds the global store from the annotation folders.
type FolderLoader struct {
	Roots     []string
	VSVersion int
	// Cache persists the store between runs; nil disables persistence.
	Cache *DiskCache
	Timer *observ.Timer
}

// ScannedFolders lists every folder that is searched, current layout first.
func (l *FolderLoader) ScannedFolders() []string {
	folders := Folders(l.Roots, l.VSVersion, LayoutCurrent)
	return append(folders, Folders(l.Roots, l.VSVersion, LayoutLegacy)...)
}

// AnnotationFiles returns the files of the current layout, or of the legacy
// layout when the current one has none.
func (l *FolderLoader) AnnotationFiles() []string {
	files := filesInFolders(Folders(l.Roots, l.VSVersion, LayoutCurrent))
	if len(files) == 0 {
		files = filesInFolders(Folders(l.Roots, l.VSVersion, LayoutLegacy))
	}
	return files
}

// Load returns the global store, from the disk cache while it is up to date
// and from a fresh scan otherwise. Failures other than cancellation are
// reported as *MissingAnnotationsError.
func (l *FolderLoader) Load(ctx context.Context) (annotations.Map, error) {
	scanMu.Lock()
	defer scanMu.Unlock()

	m, err := l.load(ctx)
	if err == nil {
		return m, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	var missing *MissingAnnotationsError
	if errors.As(err, &missing) {
		return nil, err
	}
	return nil, l.missing(err)
}

// Rebuild scans the folders and rewrites the disk cache regardless of its
// freshness.
func (l *FolderLoader) Rebuild(ctx context.Context) (*CacheFile, error) {
	scanMu.Lock()
	defer scanMu.Unlock()

	fresh, err := l.scan(ctx)
	if err != nil {
		var missing *MissingAnnotationsError
		if !errors.As(err, &missing) && ctx.Err() == nil {
			err = l.missing(err)
		}
		return nil, err
	}
	l.save(ctx, fresh)
	return fresh, nil
}

func (l *FolderLoader) missing(cause error) error {
	return &MissingAnnotationsError{Folders: l.ScannedFolders(), Cause: cause}
}

func (l *FolderLoader) load(ctx context.Context) (annotations.Map, error) {
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	cached := l.read(ctx)
	if cached != nil {
		span := trace.Begin(tracer, trace.ScopeResolver, "annotations_mtime_scan", parent)
		done := l.Timer.Measure("ExternalAnnotationsCache:Scan")
		files := l.AnnotationFiles()
		if len(files) == 0 {
			done("no files")
			span.End("no files")
			return nil, l.missing(errNoAnnotationFiles)
		}
		highest, err := highestWriteTime(files)
		done(strconv.Itoa(len(files)) + " files")
		if err != nil {
			span.End(err.Error())
			return nil, err
		}
		span.WithExtra("files", strconv.Itoa(len(files))).End(highest.Format("2006-01-02T15:04:05Z07:00"))
		if !cached.LastWriteTimeUTC.Before(highest) {
			return cached.Annotations, nil
		}
		trace.Point(tracer, trace.ScopeResolver, "annotations_cache_stale", cached.LastWriteTimeUTC.String(), parent)
	}

	fresh, err := l.scan(ctx)
	if err != nil {
		return nil, err
	}
	l.save(ctx, fresh)
	return fresh.Annotations, nil
}

// read returns the persisted store or nil. Every read failure is a miss.
func (l *FolderLoader) read(ctx context.Context) *CacheFile {
	if l.Cache == nil {
		return nil
	}
	span, _ := trace.StartSpan(ctx, trace.ScopeResolver, "annotations_cache_read")
	done := l.Timer.Measure("ExternalAnnotationsCache:Read")
	cached, ok, err := l.Cache.Get()
	switch {
	case err != nil:
		done("miss")
		span.End("miss: " + err.Error())
		return nil
	case !ok:
		done("miss")
		span.End("miss")
		return nil
	}
	done("hit")
	span.WithExtra("entries", strconv.Itoa(len(cached.Annotations))).End("hit")
	return cached
}

func (l *FolderLoader) save(ctx context.Context, file *CacheFile) {
	if l.Cache == nil {
		return
	}
	span, _ := trace.StartSpan(ctx, trace.ScopeResolver, "annotations_cache_write")
	done := l.Timer.Measure("ExternalAnnotationsCache:Write")
	// another process may be writing the same file
	if err := l.Cache.Put(file); err != nil {
		done("failed")
		span.End("ignored: " + err.Error())
		return
	}
	done("")
	span.End(l.Cache.Path())
}

func (l *FolderLoader) scan(ctx context.Context) (*CacheFile, error) {
	span, _ := trace.StartSpan(ctx, trace.ScopeResolver, "annotations_scan")
	done := l.Timer.Measure("ExternalAnnotationsCache:Create")

	files := l.AnnotationFiles()
	if len(files) == 0 {
		done("no files")
		span.End("no files")
		return nil, l.missing(errNoAnnotationFiles)
	}
	highest, err := highestWriteTime(files)
	if err != nil {
		done("failed")
		span.End(err.Error())
		return nil, err
	}

	parsed := make([]annotations.Map, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := xmldoc.ParseFile(path)
			if errors.Is(err, xmldoc.ErrNotAnnotationFile) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("parse annotations: %w", err)
			}
			parsed[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		done("failed")
		span.End(err.Error())
		return nil, err
	}

	// merged in path order so kind clashes resolve the same way every run
	result := make(annotations.Map)
	for _, m := range parsed {
		result.Merge(m)
	}
	removed := result.Compact()
	done(strconv.Itoa(len(files)) + " files")
	span.WithExtra("files", strconv.Itoa(len(files))).
		WithExtra("compacted", strconv.Itoa(removed)).
		End(strconv.Itoa(len(result)) + " entries")

	if len(result) == 0 {
		return nil, l.missing(errNoNullabilityData)
	}
	return &CacheFile{LastWriteTimeUTC: highest, Annotations: result}, nil
}
