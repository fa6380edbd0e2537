// Package config loads nullcheck.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileName is the name of the project configuration file.
const FileName = "nullcheck.toml"

// Environment overrides.
const (
	EnvCacheDir        = "NULLCHECK_CACHE_DIR"
	EnvAnnotationRoots = "NULLCHECK_ANNOTATION_ROOTS"
	EnvVSVersion       = "NULLCHECK_VS_VERSION"
)

// Output formats accepted in [output].format. FormatShort is one line per
// diagnostic, sorted by key.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatSARIF  = "sarif"
	FormatShort  = "short"
)

// Defaults.
const (
	DefaultVSVersion           = 14
	DefaultSideBySideCacheSize = 256
)

// ErrUnknownKey reports keys in nullcheck.toml that nothing decodes.
var ErrUnknownKey = errors.New("unknown configuration key")

// Config is the merged configuration: defaults, then nullcheck.toml, then env.
type Config struct {
	// Path of the nullcheck.toml that was loaded, empty when none was found.
	Path string `toml:"-"`

	Cache       CacheConfig       `toml:"cache"`
	Annotations AnnotationsConfig `toml:"annotations"`
	Output      OutputConfig      `toml:"output"`
}

type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

type AnnotationsConfig struct {
	// Roots replace the platform program-files/local-app-data roots.
	Roots               []string `toml:"roots"`
	VSVersion           int      `toml:"vs_version"`
	SideBySideCacheSize int      `toml:"side_by_side_cache_size"`
}

type OutputConfig struct {
	Format string `toml:"format"`

	// 0 means unlimited.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Annotations: AnnotationsConfig{
			VSVersion:           DefaultVSVersion,
			SideBySideCacheSize: DefaultSideBySideCacheSize,
		},
		Output: OutputConfig{Format: FormatPretty},
	}
}

// Find walks up from startDir to locate nullcheck.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load discovers nullcheck.toml from startDir, loads .env from the same
// directory (or startDir), and applies environment overrides.
func Load(startDir string) (Config, error) {
	cfg := Default()
	path, ok, err := Find(startDir)
	if err != nil {
		return cfg, err
	}
	envDir := startDir
	if ok {
		envDir = filepath.Dir(path)
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := loadDotEnv(envDir); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile decodes a single nullcheck.toml on top of Default.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Default(), fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	if meta.IsDefined("cache", "dir") && !filepath.IsAbs(cfg.Cache.Dir) && cfg.Cache.Dir != "" {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	cfg.Path = path
	return cfg, nil
}

// loadDotEnv does not overwrite variables already set in the process.
func loadDotEnv(dir string) error {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvCacheDir)); v != "" {
		c.Cache.Dir = v
	}
	if v := strings.TrimSpace(getenv(EnvAnnotationRoots)); v != "" {
		var roots []string
		for _, r := range filepath.SplitList(v) {
			if r = strings.TrimSpace(r); r != "" {
				roots = append(roots, r)
			}
		}
		c.Annotations.Roots = roots
	}
	if v := strings.TrimSpace(getenv(EnvVSVersion)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid version %q: %w", EnvVSVersion, v, err)
		}
		c.Annotations.VSVersion = n
	}
	return nil
}

// Validate checks value ranges after all layers are merged.
func (c *Config) Validate() error {
	if c.Annotations.VSVersion <= 0 {
		return fmt.Errorf("annotations.vs_version must be positive, got %d", c.Annotations.VSVersion)
	}
	if c.Annotations.SideBySideCacheSize <= 0 {
		return fmt.Errorf("annotations.side_by_side_cache_size must be positive, got %d", c.Annotations.SideBySideCacheSize)
	}
	if c.Output.MaxDiagnostics < 0 {
		return fmt.Errorf("output.max_diagnostics must not be negative, got %d", c.Output.MaxDiagnostics)
	}
	switch c.Output.Format {
	case FormatPretty, FormatJSON, FormatSARIF, FormatShort:
	default:
		return fmt.Errorf("output.format: unsupported format %q", c.Output.Format)
	}
	return nil
}
