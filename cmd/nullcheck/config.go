package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nullcheck/internal/config"
	"nullcheck/internal/resolver"
	"nullcheck/internal/trace"
)

// loadConfig reads --config when given, otherwise searches upwards from the
// working directory. Flags registered on cmd override the file afterwards.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		var wd string
		if wd, err = os.Getwd(); err != nil {
			return config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Lookup("cache-dir") != nil && flags.Changed("cache-dir") {
		if cfg.Cache.Dir, err = flags.GetString("cache-dir"); err != nil {
			return cfg, err
		}
	}
	if flags.Lookup("no-cache") != nil && flags.Changed("no-cache") {
		if cfg.Cache.Disabled, err = flags.GetBool("no-cache"); err != nil {
			return cfg, err
		}
	}
	if flags.Lookup("annotation-root") != nil && flags.Changed("annotation-root") {
		if cfg.Annotations.Roots, err = flags.GetStringArray("annotation-root"); err != nil {
			return cfg, err
		}
	}
	if flags.Lookup("vs-version") != nil && flags.Changed("vs-version") {
		if cfg.Annotations.VSVersion, err = flags.GetInt("vs-version"); err != nil {
			return cfg, err
		}
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		format, ferr := flags.GetString("format")
		if ferr != nil {
			return cfg, ferr
		}
		cfg.Output.Format = strings.ToLower(format)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return cfg, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics >= 0 {
		cfg.Output.MaxDiagnostics = maxDiagnostics
	}
	return cfg, cfg.Validate()
}

// openCache returns nil when the cache is disabled.
func openCache(cfg config.Config) (*resolver.DiskCache, error) {
	if cfg.Cache.Disabled {
		return nil, nil
	}
	if cfg.Cache.Dir != "" {
		return resolver.NewDiskCache(cfg.Cache.Dir)
	}
	return resolver.OpenDiskCache("nullcheck")
}

func newFolderLoader(cfg config.Config) (*resolver.FolderLoader, error) {
	cache, err := openCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation cache: %w", err)
	}
	roots := cfg.Annotations.Roots
	if len(roots) == 0 {
		roots = resolver.DefaultRoots()
	}
	return &resolver.FolderLoader{
		Roots:     roots,
		VSVersion: cfg.Annotations.VSVersion,
		Cache:     cache,
	}, nil
}

// newCachingResolver wires the global folder store and the side-by-side
// store. The caller closes the result.
func newCachingResolver(cmd *cobra.Command, cfg config.Config, loader *resolver.FolderLoader) (*resolver.Caching, error) {
	sbs, err := resolver.NewSideBySideStore(cfg.Annotations.SideBySideCacheSize, trace.FromContext(cmd.Context()))
	if err != nil {
		return nil, fmt.Errorf("failed to start side-by-side annotation store: %w", err)
	}
	return resolver.NewCaching(loader, sbs), nil
}
