package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nullcheck/internal/annotations"
	"nullcheck/internal/annotations/xmldoc"
	"nullcheck/internal/config"
	"nullcheck/internal/diag"
	"nullcheck/internal/diagfmt"
	"nullcheck/internal/driver"
	"nullcheck/internal/host/memhost"
	"nullcheck/internal/observ"
	"nullcheck/internal/resolver"
	"nullcheck/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <dump.yaml>...",
	Short: "Report members and parameters missing nullability annotations",
	Long: `Load one or more symbol dumps and report every member and parameter of
nullable type that has neither an inline attribute nor an external annotation.
External annotations come from the JetBrains folders (see "nullcheck scan") and
from <assembly>.ExternalAnnotations.xml files next to each assembly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", config.FormatPretty, "output format (pretty|json|sarif|short)")
	checkCmd.Flags().Bool("with-notes", false, "include identity keys and notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute assembly paths in output")
	checkCmd.Flags().String("rules", "all", "rules to run (all|plain|item)")
	checkCmd.Flags().StringArray("annotations", nil, "external annotation XML file to use instead of the installed folders (repeatable)")
	checkCmd.Flags().Bool("no-cache", false, "do not read or write the external annotations cache")
	checkCmd.Flags().String("cache-dir", "", "directory of the external annotations cache")
	checkCmd.Flags().StringArray("annotation-root", nil, "root to search for annotation folders (repeatable)")
	checkCmd.Flags().Int("vs-version", config.DefaultVSVersion, "Visual Studio major version in the annotation folder names")
	checkCmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	checkCmd.Flags().Bool("fail-on-diagnostics", false, "exit with status 2 when any diagnostic is reported")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rulesStr, err := cmd.Flags().GetString("rules")
	if err != nil {
		return fmt.Errorf("failed to get rules flag: %w", err)
	}
	rules, err := parseRuleSet(rulesStr)
	if err != nil {
		return err
	}
	annotationFiles, err := cmd.Flags().GetStringArray("annotations")
	if err != nil {
		return fmt.Errorf("failed to get annotations flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := parseProgressUI(uiValue)
	if err != nil {
		return err
	}
	failOnDiagnostics, err := cmd.Flags().GetBool("fail-on-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get fail-on-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	model, err := memhost.Load(args...)
	if err != nil {
		return err
	}

	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}

	var res resolver.Resolver
	if len(annotationFiles) > 0 {
		merged, lerr := loadAnnotationFiles(annotationFiles)
		if lerr != nil {
			return lerr
		}
		res = resolver.NewSimple(merged)
	} else {
		loader, lerr := newFolderLoader(cfg)
		if lerr != nil {
			return lerr
		}
		loader.Timer = timer
		caching, cerr := newCachingResolver(cmd, cfg, loader)
		if cerr != nil {
			return cerr
		}
		defer caching.Close()
		res = caching
	}

	opts := driver.CheckOptions{
		Resolver:       res,
		Rules:          rules,
		MaxDiagnostics: cfg.Output.MaxDiagnostics,
		Timer:          timer,
	}
	types := model.Types()

	var result *driver.CheckResult
	if wantsProgressView(mode, cfg.Output.Format, quiet) {
		title := fmt.Sprintf("checking %d assemblies", len(model.Assemblies()))
		result, err = runCheckWithUI(cmd.Context(), title, model.Assemblies(), types, opts)
	} else {
		result, err = driver.Check(cmd.Context(), types, opts)
	}
	if err != nil {
		return reportCheckFailure(cmd, cfg, err)
	}

	if err := writeDiagnostics(cmd, cfg, result.Bag, withNotes, fullPath); err != nil {
		return err
	}
	if showTimings && timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if failOnDiagnostics && result.Bag.Len() > 0 {
		return &exitError{code: 2}
	}
	return nil
}

// reportCheckFailure keeps json and sarif output well-formed when the
// external annotations cannot be loaded: the failure becomes an
// AnnotationsMissing record on stdout, the message still goes to stderr.
// loadAnnotationFiles merges the --annotations files in order. Entries
// without nullability facts are dropped, as the folder store does.
func loadAnnotationFiles(paths []string) (annotations.Map, error) {
	merged := make(annotations.Map)
	for _, path := range paths {
		m, err := xmldoc.ParseFile(path)
		if err != nil {
			return nil, err
		}
		merged.Merge(m)
	}
	merged.Compact()
	return merged, nil
}

func reportCheckFailure(cmd *cobra.Command, cfg config.Config, err error) error {
	var missing *resolver.MissingAnnotationsError
	if !errors.As(err, &missing) {
		return err
	}
	if cfg.Output.Format != config.FormatJSON && cfg.Output.Format != config.FormatSARIF {
		return err
	}
	bag := diag.NewBag(1)
	bag.Add(missing.Diagnostic())
	if werr := writeDiagnostics(cmd, cfg, bag, true, false); werr != nil {
		return errors.Join(err, werr)
	}
	return &exitError{code: 1, err: err}
}

func parseRuleSet(value string) (driver.RuleSet, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "all":
		return driver.RuleAll, nil
	case "plain":
		return driver.RulePlain, nil
	case "item":
		return driver.RuleItem, nil
	default:
		return 0, fmt.Errorf("invalid --rules value %q (expected all|plain|item)", value)
	}
}

func writeDiagnostics(cmd *cobra.Command, cfg config.Config, bag *diag.Bag, withNotes, fullPath bool) error {
	out := cmd.OutOrStdout()
	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch cfg.Output.Format {
	case config.FormatPretty:
		colorOn, err := useColor(cmd)
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, bag, diagfmt.PrettyOpts{
			Color:     colorOn,
			PathMode:  pathMode,
			BaseDir:   baseDir,
			Width:     terminalWidth(out),
			ShowNotes: withNotes,
			Summary:   true,
		})
		return nil
	case config.FormatJSON:
		return diagfmt.JSON(out, bag, diagfmt.JSONOpts{
			PathMode:     pathMode,
			BaseDir:      baseDir,
			IncludeNotes: withNotes,
		})
	case config.FormatSARIF:
		return diagfmt.Sarif(out, bag, diagfmt.SarifRunMeta{
			ToolName:       "nullcheck",
			ToolVersion:    version.Current().Version,
			InvocationArgs: os.Args[1:],
			BaseDir:        baseDir,
		})
	case config.FormatShort:
		_, err := io.WriteString(out, diag.FormatGoldenDiagnostics(bag.Items(), withNotes))
		return err
	default:
		return fmt.Errorf("unknown format: %s", cfg.Output.Format)
	}
}

// terminalWidth is 0 (unlimited) when out is not a terminal.
func terminalWidth(out io.Writer) uint16 {
	f, ok := out.(*os.File)
	if !ok || !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	width, err := safecast.Conv[uint16](w)
	if err != nil {
		return 0
	}
	return width
}
