package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the external annotations cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cache location and its contents summary",
	Args:  cobra.NoArgs,
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cache file",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	for _, c := range []*cobra.Command{cacheShowCmd, cacheClearCmd} {
		c.Flags().String("cache-dir", "", "directory of the external annotations cache")
	}
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Cache.Disabled {
		fmt.Fprintln(cmd.OutOrStdout(), "cache: disabled")
		return nil
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path:    %s\n", cache.Path())
	file, ok, err := cache.Get()
	if err != nil {
		// stale schema or a torn file; the next check rebuilds it
		fmt.Fprintf(out, "status:  unreadable (%v)\n", err)
		return nil
	}
	if !ok {
		fmt.Fprintln(out, "status:  empty")
		return nil
	}
	fmt.Fprintf(out, "schema:  %d\n", file.Schema)
	fmt.Fprintf(out, "newest:  %s\n", file.LastWriteTimeUTC.Format(time.RFC3339))
	fmt.Fprintf(out, "entries: %d\n", len(file.Annotations))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	if cache == nil {
		return nil
	}
	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Path())
	}
	return nil
}
