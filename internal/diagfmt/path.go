package diagfmt

import (
	"path/filepath"
	"strings"
)

func formatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return filepath.ToSlash(path)
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative:
		return relativeTo(path, baseDir, true)
	default:
		return relativeTo(path, baseDir, false)
	}
}

// relativeTo returns path relative to base. Unless force is set, paths
// outside base stay as given.
func relativeTo(path, base string, force bool) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if !force && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
