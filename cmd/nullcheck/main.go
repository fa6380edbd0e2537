package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nullcheck/internal/resolver"
	"nullcheck/internal/version"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var (
	traceCleanup   = func() {}
	profileCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "nullcheck",
	Short: "Nullability annotation checker",
	Long: `nullcheck reports members and parameters of nullable type that lack
[NotNull]/[CanBeNull] (or [ItemNotNull]/[ItemCanBeNull]) annotations, taking
external annotation files into account.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup

		stopProfiles, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfiles
		return nil
	},
}

// main initializes the CLI by registering subcommands and persistent flags,
// then executes the root command. Missing external annotations and other
// failures exit with status 1; --fail-on-diagnostics uses status 2.
func main() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", -1, "maximum number of diagnostics to keep (0=unlimited, default from nullcheck.toml)")
	rootCmd.PersistentFlags().String("config", "", "path to nullcheck.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer size for --trace-mode=ring|both")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write Go runtime trace to file")

	err := rootCmd.Execute()
	profileCleanup()
	traceCleanup()
	if err == nil {
		return
	}
	code := 1
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		code = exitErr.code
		if exitErr.err == nil {
			os.Exit(code)
		}
	}
	var missing *resolver.MissingAnnotationsError
	if errors.As(err, &missing) {
		fmt.Fprintln(os.Stderr, missing.Error())
	} else {
		fmt.Fprintf(os.Stderr, "nullcheck: %v\n", err)
	}
	os.Exit(code)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
