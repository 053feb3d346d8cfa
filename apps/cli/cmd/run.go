package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
	"github.com/cocoreg/cocoreg/packages/core/runner"
	"github.com/cocoreg/cocoreg/packages/core/selection"
	"github.com/cocoreg/cocoreg/packages/discovery"
	"github.com/cocoreg/cocoreg/packages/history"
	"github.com/cocoreg/cocoreg/packages/output"
	"github.com/cocoreg/cocoreg/packages/report"
)

var runCmd = &cobra.Command{
	Use:   "run [runbook]",
	Short: "Run a regression from a runbook",
	Long: `Run the testbenches a runbook describes, one external simulation
per testbench. The runbook argument may be a file or a directory
containing a conventionally named runbook (` + strings.Join(runbook.DefaultFilenames, ", ") + `).

Examples:
  cocoreg run
  cocoreg run regress/.cocoreg -t counter_tb
  cocoreg run -t counter_tb -n 3
  cocoreg run -i test_count_up -e test_wraparound
  cocoreg run -I smoke -E 'slow.*' --bail
  cocoreg run -d               # preview the execution plan
  cocoreg run -o junit --output-file results.xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommand,
}

// watchDebounceDelay is the debounce delay for file watch events.
const watchDebounceDelay = 300 * time.Millisecond

var (
	tbFlag          []string
	ntimesFlag      int
	includeTests    []string
	excludeTests    []string
	includeTags     []string
	excludeTags     []string
	dryRunFlag      bool
	bailFlag        bool
	outputFlag      string
	outputFileFlag  string
	watchFlag       bool
	verboseFlag     bool
	noColorFlag     bool
	noHistoryFlag   bool
	pythonFlag      string
	workDirFlag     string
	historyPathFlag string
)

func init() {
	runCmd.Flags().StringSliceVarP(&tbFlag, "testbench", "t", nil, "Testbench name(s) to run (default: all)")
	runCmd.Flags().IntVarP(&ntimesFlag, "ntimes", "n", 1, "Number of times to run each selected testbench")
	runCmd.Flags().StringSliceVarP(&includeTests, "include-tests", "i", nil, "Test name(s) to include (exact match)")
	runCmd.Flags().StringSliceVarP(&excludeTests, "exclude-tests", "e", nil, "Test name(s) to exclude, applied after includes")
	runCmd.Flags().StringSliceVarP(&includeTags, "include-tags", "I", nil, "Regex pattern(s): keep testbenches with a matching tag")
	runCmd.Flags().StringSliceVarP(&excludeTags, "exclude-tags", "E", nil, "Regex pattern(s): drop testbenches with a matching tag")
	runCmd.Flags().BoolVarP(&dryRunFlag, "dry", "d", false, "Preview the execution plan without running anything")
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("COCOREG_BAIL", false), "Stop at the first failing testbench (env: COCOREG_BAIL)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("COCOREG_OUTPUT", "console"), "Output format: console, json, junit (env: COCOREG_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the runbook and sources, re-run on change")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Stream engine output and show selected tests")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COCOREG_NO_COLOR", false), "Disable colored output (env: COCOREG_NO_COLOR)")
	runCmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Do not record this run in the history database")
	runCmd.Flags().StringVar(&pythonFlag, "python", getEnvString("COCOREG_PYTHON", "python3"), "Python interpreter for the simulation engine (env: COCOREG_PYTHON)")
	runCmd.Flags().StringVar(&workDirFlag, "workdir", "", "Working directory anchoring build/test argument paths (default: cwd)")
	runCmd.Flags().StringVar(&historyPathFlag, "history-db", "", "History database path (default: user cache dir)")
}

func newFormatter() (output.Formatter, func(), error) {
	closer := func() {}
	var w *os.File
	if outputFileFlag != "" {
		var err error
		w, err = os.Create(outputFileFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create output file: %w", err)
		}
		closer = func() { _ = w.Close() }
	}

	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...), closer, nil
	case "junit":
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...), closer, nil
	case "console":
		opts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag),
			output.WithNoColor(noColorFlag),
		}
		if w != nil {
			opts = append(opts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(opts...), closer, nil
	default:
		closer()
		return nil, nil, fmt.Errorf("unknown output format %q (use console, json, or junit)", outputFlag)
	}
}

func runCommand(cmd *cobra.Command, cmdArgs []string) error {
	workDir := workDirFlag
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	criteria := selection.Criteria{
		Testbenches:  tbFlag,
		IncludeTests: includeTests,
		ExcludeTests: excludeTests,
		IncludeTags:  includeTags,
		ExcludeTags:  excludeTags,
	}

	runOnce := func() (*runner.Summary, *runbook.Runbook, error) {
		rb, err := loadFromArgs(cmdArgs, workDir)
		if err != nil {
			return nil, nil, err
		}

		plan, err := selection.Build(rb, criteria, discovery.TestNames, ntimesFlag)
		if err != nil {
			return nil, rb, err
		}

		if dryRunFlag {
			printPlan(cmd, rb, plan)
			return &runner.Summary{}, rb, nil
		}

		formatter, closeOut, err := newFormatter()
		if err != nil {
			return nil, rb, err
		}
		defer closeOut()

		formatter.FormatHeader(version)
		orch := &runner.Orchestrator{
			Invoker: &runner.CocotbInvoker{Python: pythonFlag, Verbose: verboseFlag},
			WorkDir: workDir,
			Bail:    bailFlag,
			Observe: formatter.FormatResult,
		}
		summary := orch.Run(cmd.Context(), rb, plan)

		var timings []report.Timing
		if plan.Repeat > 1 {
			samples := make([]report.Sample, 0, len(summary.Results))
			for _, r := range summary.Results {
				samples = append(samples, report.Sample{Testbench: r.Testbench, Duration: r.Duration})
			}
			timings = report.Timings(samples)
		}
		if err := formatter.FormatSummary(summary, timings); err != nil {
			return summary, rb, fmt.Errorf("writing output: %w", err)
		}

		if !noHistoryFlag && len(summary.Results) > 0 {
			if err := recordRun(rb, plan, summary); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to record run history: %v\n", err)
			}
		}
		return summary, rb, nil
	}

	summary, rb, err := runOnce()
	if err != nil {
		return err
	}

	if !watchFlag {
		if summary.AnyFailed() {
			os.Exit(ExitRunFailure)
		}
		return nil
	}

	return watchAndRerun(cmd.Context(), cmd, rb, func() {
		if _, _, err := runOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
}

// printPlan shows what a run would do, without invoking anything.
func printPlan(cmd *cobra.Command, rb *runbook.Runbook, plan *selection.Plan) {
	out := cmd.OutOrStdout()
	if plan.Empty() {
		fmt.Fprintln(out, "No testbenches to run")
		return
	}
	fmt.Fprintf(out, "Dry run: %d invocation(s) on %s\n\n", plan.Invocations(), rb.Sim)
	for _, item := range plan.Items {
		fmt.Fprintf(out, "  %s (x%d): %s\n", item.Testbench, plan.Repeat, strings.Join(item.Tests, ", "))
	}
}

func recordRun(rb *runbook.Runbook, plan *selection.Plan, summary *runner.Summary) error {
	path := historyPathFlag
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return err
		}
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	name := rb.Title
	if name == "" {
		name = rb.File
	}
	return store.Append(&history.Record{
		Runbook:     name,
		Sim:         rb.Sim,
		Testbenches: len(plan.Items),
		Passed:      summary.Passed,
		Failed:      summary.Failed,
		Duration:    summary.Duration,
	})
}

// watchAndRerun re-runs the regression whenever the runbook, a source file,
// or a testbench module changes.
func watchAndRerun(ctx context.Context, cmd *cobra.Command, rb *runbook.Runbook, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	addDir := func(dir string) {
		if dir == "" || watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to watch %s: %v\n", dir, err)
			return
		}
		watched[dir] = true
	}

	addDir(rb.Dir)
	for _, src := range rb.Srcs {
		addDir(filepath.Dir(src))
	}
	for _, tb := range rb.Tbs {
		addDir(tb.Path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running regression...\n\n", event.Name)
				rerun()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watcher error: %v\n", err)
		}
	}
}
