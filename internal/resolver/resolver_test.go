package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"nullcheck/internal/annotations"
	"nullcheck/internal/diag"
	"nullcheck/internal/host"
	"nullcheck/internal/host/memhost"
	"nullcheck/internal/symbols"
)

const notNullCtor = "M:JetBrains.Annotations.NotNullAttribute.#ctor"

func annotationDoc(members ...string) string {
	var b strings.Builder
	b.WriteString("<assembly name=\"mscorlib\">\n")
	for _, m := range members {
		fmt.Fprintf(&b, "  <member name=%q><attribute ctor=%q/></member>\n", m, notNullCtor)
	}
	b.WriteString("</assembly>\n")
	return b.String()
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func currentFolder(root string) string {
	return Folders([]string{root}, DefaultVSVersion, LayoutCurrent)[0]
}

func legacyFolder(root string) string {
	return Folders([]string{root}, DefaultVSVersion, LayoutLegacy)[0]
}

func newLoader(t *testing.T, root string) *FolderLoader {
	t.Helper()
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	return &FolderLoader{Roots: []string{root}, VSVersion: DefaultVSVersion, Cache: cache}
}

func TestFoldersLayouts(t *testing.T) {
	roots := []string{"/pf", "/local"}
	current := Folders(roots, 15, LayoutCurrent)
	assert.Equal(t, []string{
		filepath.Join("/pf", "JetBrains", "Installations", "ReSharperPlatformVs15", "ExternalAnnotations"),
		filepath.Join("/pf", "JetBrains", "Installations", "ReSharperPlatformVs15", "Extensions"),
		filepath.Join("/local", "JetBrains", "Installations", "ReSharperPlatformVs15", "ExternalAnnotations"),
		filepath.Join("/local", "JetBrains", "Installations", "ReSharperPlatformVs15", "Extensions"),
	}, current)

	legacy := Folders(roots, 0, LayoutLegacy)
	assert.Equal(t, []string{
		filepath.Join("/pf", "JetBrains", "ReSharper", "vAny", "packages"),
		filepath.Join("/local", "JetBrains", "ReSharper", "vAny", "packages"),
	}, legacy)
}

func TestLoadWithoutFilesFailsListingEveryFolder(t *testing.T) {
	root := t.TempDir()
	loader := newLoader(t, root)

	_, err := loader.Load(context.Background())
	require.Error(t, err)

	var missing *MissingAnnotationsError
	require.True(t, errors.As(err, &missing))
	assert.Len(t, missing.Folders, 3)
	assert.ErrorIs(t, err, errNoAnnotationFiles)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to load Resharper external annotations. Scanned folders: \""))
	assert.Contains(t, err.Error(), `"`+legacyFolder(root)+`"`)
	assert.Contains(t, err.Error(), `";"`)
}

func TestLoadFallsBackToLegacyLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(legacyFolder(root), "pkg", "System.xml"), annotationDoc("M:System.Object.ToString"), time.Time{})

	m, err := newLoader(t, root).Load(context.Background())
	require.NoError(t, err)
	_, ok := m.Lookup("M:System.Object.ToString")
	assert.True(t, ok)
}

func TestCurrentLayoutShadowsLegacy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(legacyFolder(root), "old.xml"), annotationDoc("M:Legacy.Only"), time.Time{})
	writeFile(t, filepath.Join(currentFolder(root), ".NETFramework", "mscorlib", "a.XML"), annotationDoc("M:Current.Only"), time.Time{})

	m, err := newLoader(t, root).Load(context.Background())
	require.NoError(t, err)
	_, current := m.Lookup("M:Current.Only")
	_, legacy := m.Lookup("M:Legacy.Only")
	assert.True(t, current)
	assert.False(t, legacy)
}

func TestLoadSkipsForeignXMLAndCompacts(t *testing.T) {
	root := t.TempDir()
	dir := currentFolder(root)
	writeFile(t, filepath.Join(dir, "plugin.xml"), "<idea-plugin><id>x</id></idea-plugin>", time.Time{})
	writeFile(t, filepath.Join(dir, "a.xml"), annotationDoc("M:A.B")+"", time.Time{})
	writeFile(t, filepath.Join(dir, "b.xml"),
		`<assembly name="x"><member name="M:Pure.Only"><attribute ctor="M:JetBrains.Annotations.PureAttribute.#ctor"/></member></assembly>`,
		time.Time{})

	m, err := newLoader(t, root).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A.B"}, m.Keys())
}

func TestLoadFailsWhenNothingSurvivesCompaction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(currentFolder(root), "b.xml"),
		`<assembly name="x"><member name="M:Pure.Only"/></assembly>`, time.Time{})

	_, err := newLoader(t, root).Load(context.Background())
	var missing *MissingAnnotationsError
	require.ErrorAs(t, err, &missing)
	assert.ErrorIs(t, err, errNoNullabilityData)
}

func TestCacheReusedUntilAFileIsNewer(t *testing.T) {
	root := t.TempDir()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(currentFolder(root), "a.xml"), annotationDoc("M:Real.Entry"), mtime)
	loader := newLoader(t, root)

	_, err := loader.Load(context.Background())
	require.NoError(t, err)
	stored, ok, err := loader.Cache.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.LastWriteTimeUTC.Equal(mtime))

	doctored := func(ts time.Time) {
		m := make(annotations.Map)
		m.Entry("M:From.Cache").HasNullabilityDefined = true
		require.NoError(t, loader.Cache.Put(&CacheFile{LastWriteTimeUTC: ts, Annotations: m}))
	}
	hasKey := func(m annotations.Map, id string) bool {
		_, ok := m.Lookup(id)
		return ok
	}

	// T == M: fresh
	doctored(mtime)
	m, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, hasKey(m, "M:From.Cache"))

	// T > M: fresh
	doctored(mtime.Add(time.Hour))
	m, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, hasKey(m, "M:From.Cache"))

	// M > T: rescan and rewrite
	doctored(mtime.Add(-time.Second))
	m, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, hasKey(m, "M:From.Cache"))
	assert.True(t, hasKey(m, "M:Real.Entry"))

	stored, ok, err = loader.Cache.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.LastWriteTimeUTC.Equal(mtime))
}

func TestCacheHitStillRequiresFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(currentFolder(root), "a.xml")
	writeFile(t, path, annotationDoc("M:Real.Entry"), time.Time{})
	loader := newLoader(t, root)
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	_, err = loader.Load(context.Background())
	var missing *MissingAnnotationsError
	assert.ErrorAs(t, err, &missing)
}

func TestUnreadableCacheIsAMiss(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(currentFolder(root), "a.xml"), annotationDoc("M:Real.Entry"), time.Time{})
	loader := newLoader(t, root)
	require.NoError(t, os.WriteFile(loader.Cache.Path(), []byte("\xc1 not msgpack"), 0o644))

	m, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Real.Entry"}, m.Keys())
}

func TestDiskCacheRoundTripAndSchemaMismatch(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	m := make(annotations.Map)
	m.Entry("F:A.b").HasNullabilityDefined = true
	require.NoError(t, cache.Put(&CacheFile{LastWriteTimeUTC: time.Now(), Annotations: m}))

	got, ok, err := cache.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cacheSchemaVersion, got.Schema)
	assert.True(t, got.Annotations["A.b"].HasNullabilityDefined)

	raw, err := msgpack.Marshal(&CacheFile{Schema: cacheSchemaVersion + 1, Annotations: m})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cache.Path(), raw, 0o644))
	_, ok, err = cache.Get()
	assert.ErrorIs(t, err, errSchemaMismatch)
	assert.False(t, ok)

	require.NoError(t, cache.Clear())
	_, ok, err = cache.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.Clear())
}

func TestDiskCacheEmptyMapIsAMiss(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cache.Put(&CacheFile{LastWriteTimeUTC: time.Now(), Annotations: annotations.Map{}}))
	_, ok, err := cache.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSideBySidePath(t *testing.T) {
	dir := t.TempDir()
	asm := filepath.Join(dir, "Lib.dll")
	_, ok := SideBySidePath(asm)
	assert.False(t, ok)

	writeFile(t, filepath.Join(dir, "Lib.ExternalAnnotations.xml"), annotationDoc("M:Lib.X"), time.Time{})
	path, ok := SideBySidePath(asm)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Lib.ExternalAnnotations.xml"), path)

	_, ok = SideBySidePath("")
	assert.False(t, ok)
}

func newStore(t *testing.T) *SideBySideStore {
	t.Helper()
	s, err := NewSideBySideStore(4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSideBySideStoreInvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Lib.ExternalAnnotations.xml")
	writeFile(t, path, annotationDoc("M:Lib.Widget.Render"), time.Time{})
	s := newStore(t)

	_, ok := s.Map(path).Lookup("M:Lib.Widget.Render")
	require.True(t, ok)
	assert.Equal(t, 1, s.Len())

	writeFile(t, path, annotationDoc("M:Lib.Widget.Draw"), time.Time{})
	require.Eventually(t, func() bool {
		_, ok := s.Map(path).Lookup("M:Lib.Widget.Draw")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
	_, ok = s.Map(path).Lookup("M:Lib.Widget.Render")
	assert.False(t, ok)
}

func TestSideBySideStoreMalformedFileRecovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Lib.ExternalAnnotations.xml")
	writeFile(t, path, "<assembly><member name=", time.Time{})
	s := newStore(t)

	assert.Empty(t, s.Map(path))

	writeFile(t, path, annotationDoc("M:Lib.Fixed"), time.Time{})
	require.Eventually(t, func() bool {
		_, ok := s.Map(path).Lookup("M:Lib.Fixed")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSideBySideStoreReportsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "Lib.ExternalAnnotations.xml")
	writeFile(t, bad, "<assembly><member name=", time.Time{})
	s := newStore(t)
	bag := diag.NewBag(0)
	s.ReportTo(&diag.BagReporter{Bag: bag})

	s.Map(bad)
	s.Map(bad)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.AnnotationsSideBySideBad, d.Code)
	assert.Equal(t, filepath.Clean(bad), d.Location)
	assert.NotEmpty(t, d.Notes)

	s.ReportTo(nil)
	other := filepath.Join(dir, "Other.ExternalAnnotations.xml")
	writeFile(t, other, "not xml at all <", time.Time{})
	s.Map(other)
	assert.Equal(t, 1, bag.Len())
}

func TestSideBySideStoreEvictsBeyondCapacity(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t)
	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, fmt.Sprintf("Lib%d.ExternalAnnotations.xml", i))
		writeFile(t, path, annotationDoc(fmt.Sprintf("M:Lib%d.X", i)), time.Time{})
		s.Map(path)
	}
	assert.Equal(t, 4, s.Len())
	assert.False(t, s.watches.Watched(filepath.Join(dir, "Lib0.ExternalAnnotations.xml")))
	assert.True(t, s.watches.Watched(filepath.Join(dir, "Lib5.ExternalAnnotations.xml")))
}

const libDump = `
assembly: %s
types:
  - namespace: Lib
    name: Widget
    fields:
      - {name: text, type: string}
    methods:
      - {name: Render, returns: string}
`

func widgetSymbols(t *testing.T, asm string) (*symbols.Method, *symbols.Field) {
	t.Helper()
	model, err := memhost.LoadSources(memhost.Source{Name: "lib.yaml", Data: []byte(fmt.Sprintf(libDump, asm))})
	require.NoError(t, err)
	typ, ok := model.Lookup("Lib.Widget")
	require.True(t, ok)
	var method *symbols.Method
	var field *symbols.Field
	for _, m := range typ.Members() {
		switch n := m.(type) {
		case host.Method:
			if n.Name() == "Render" {
				method = symbols.NewMethod(n)
			}
		case host.Field:
			field = symbols.NewField(n)
		}
	}
	require.NotNil(t, method)
	require.NotNil(t, field)
	return method, field
}

func TestCachingCombinesGlobalAndSideBySide(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(currentFolder(root), "a.xml"), annotationDoc("F:Lib.Widget.text"), time.Time{})

	dir := t.TempDir()
	asm := filepath.Join(dir, "Lib.dll")
	render, text := widgetSymbols(t, asm)

	c := NewCaching(newLoader(t, root), newStore(t))
	require.NoError(t, c.EnsureScanned(context.Background()))

	assert.True(t, c.HasAnnotationForSymbol(text, false))
	assert.False(t, c.HasAnnotationForSymbol(text, true))
	assert.False(t, c.HasAnnotationForSymbol(render, false))

	writeFile(t, filepath.Join(dir, "Lib.ExternalAnnotations.xml"), annotationDoc("M:Lib.Widget.Render"), time.Time{})
	assert.True(t, c.HasAnnotationForSymbol(render, false))
}

func TestMissingAnnotationsDiagnostic(t *testing.T) {
	err := &MissingAnnotationsError{Folders: []string{"/a", "/b"}, Cause: errNoAnnotationFiles}
	d := err.Diagnostic()
	assert.Equal(t, diag.AnnotationsMissing, d.Code)
	assert.Equal(t, diag.SevError, d.Severity)
	require.Len(t, d.Notes, 3)
	assert.Equal(t, "scanned folder /a", d.Notes[0].Msg)
	assert.Equal(t, errNoAnnotationFiles.Error(), d.Notes[2].Msg)
}

func TestCachingKeepsLoadFailure(t *testing.T) {
	c := NewCaching(newLoader(t, t.TempDir()), nil)
	err := c.EnsureScanned(context.Background())
	var missing *MissingAnnotationsError
	require.ErrorAs(t, err, &missing)
	assert.Same(t, err, c.EnsureScanned(context.Background()))
	require.NoError(t, c.Close())
}

func TestCachingRetriesAfterCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(currentFolder(root), "a.xml"), annotationDoc("M:A.B"), time.Time{})
	c := NewCaching(&FolderLoader{Roots: []string{root}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.EnsureScanned(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, c.EnsureScanned(context.Background()))
}

func TestSimpleResolver(t *testing.T) {
	render, text := widgetSymbols(t, "/nowhere/Lib.dll")
	m := make(annotations.Map)
	m.Entry("M:Lib.Widget.Render").HasNullabilityDefined = true
	r := NewSimple(m)

	require.NoError(t, r.EnsureScanned(context.Background()))
	assert.True(t, r.HasAnnotationForSymbol(render, false))
	assert.False(t, r.HasAnnotationForSymbol(text, false))
}
