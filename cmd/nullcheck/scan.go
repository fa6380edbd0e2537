package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nullcheck/internal/config"
	"nullcheck/internal/observ"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the external annotation folders and rewrite the cache",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().Bool("no-cache", false, "scan without writing the cache")
	scanCmd.Flags().String("cache-dir", "", "directory of the external annotations cache")
	scanCmd.Flags().StringArray("annotation-root", nil, "root to search for annotation folders (repeatable)")
	scanCmd.Flags().Int("vs-version", config.DefaultVSVersion, "Visual Studio major version in the annotation folder names")
	scanCmd.Flags().Bool("list", false, "list the annotation files that were read")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	loader, err := newFolderLoader(cfg)
	if err != nil {
		return err
	}
	if showTimings {
		loader.Timer = observ.NewTimer()
	}

	started := time.Now()
	file, err := loader.Rebuild(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if list {
		for _, f := range loader.AnnotationFiles() {
			fmt.Fprintln(out, f)
		}
	}
	if !quiet {
		fmt.Fprintf(out, "scanned %d files, %d entries, newest %s (%.1f ms)\n",
			len(loader.AnnotationFiles()),
			len(file.Annotations),
			file.LastWriteTimeUTC.Format(time.RFC3339),
			float64(time.Since(started))/float64(time.Millisecond))
		if path := loader.Cache.Path(); path != "" {
			fmt.Fprintf(out, "cache: %s\n", path)
		} else {
			fmt.Fprintln(out, "cache: disabled")
		}
	}
	if loader.Timer != nil {
		fmt.Fprint(os.Stderr, loader.Timer.Summary())
	}
	return nil
}
