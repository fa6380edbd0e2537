package resolver

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Layout is a generation of the ReSharper annotation folder structure.
type Layout uint8

const (
	// LayoutCurrent is used by ReSharper 9 and later, per Visual Studio version.
	LayoutCurrent Layout = iota
	// LayoutLegacy is the ReSharper 8 package folder.
	LayoutLegacy
)

func (l Layout) String() string {
	switch l {
	case LayoutCurrent:
		return "current"
	case LayoutLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// DefaultVSVersion selects ReSharperPlatformVs14 when nothing is configured.
const DefaultVSVersion = 14

const legacyPackagesDir = "JetBrains/ReSharper/vAny/packages"

// DefaultRoots returns the directories the annotation folders live under:
// Program Files (x86) and the local application data folder on Windows, the
// XDG data directory elsewhere.
func DefaultRoots() []string {
	var roots []string
	for _, env := range []string{"ProgramFiles(x86)", "LOCALAPPDATA"} {
		if v := os.Getenv(env); v != "" {
			roots = append(roots, v)
		}
	}
	if len(roots) > 0 {
		return roots
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return []string{v}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return []string{filepath.Join(home, ".local", "share")}
	}
	return nil
}

// Folders lists the annotation folders of one layout under every root.
func Folders(roots []string, vsVersion int, layout Layout) []string {
	if vsVersion <= 0 {
		vsVersion = DefaultVSVersion
	}
	platform := filepath.Join("JetBrains", "Installations", "ReSharperPlatformVs"+strconv.Itoa(vsVersion))

	var out []string
	for _, root := range roots {
		switch layout {
		case LayoutCurrent:
			out = append(out,
				filepath.Join(root, platform, "ExternalAnnotations"),
				filepath.Join(root, platform, "Extensions"))
		case LayoutLegacy:
			out = append(out, filepath.Join(root, filepath.FromSlash(legacyPackagesDir)))
		}
	}
	return out
}

// filesInFolders walks folders recursively for *.xml files. Paths differing
// only in case are collected once. Missing or unreadable folders are skipped.
func filesInFolders(folders []string) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, folder := range folders {
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
				return nil
			}
			key := strings.ToLower(path)
			if _, dup := seen[key]; dup {
				return nil
			}
			seen[key] = struct{}{}
			files = append(files, path)
			return nil
		})
	}
	sort.Strings(files)
	return files
}

// highestWriteTime returns the latest modification time among files.
func highestWriteTime(files []string) (time.Time, error) {
	var highest time.Time
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, err
		}
		if mt := info.ModTime().UTC(); mt.After(highest) {
			highest = mt
		}
	}
	return highest, nil
}
