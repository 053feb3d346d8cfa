package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/cocoreg/cocoreg/packages/core/runner"
	"github.com/cocoreg/cocoreg/packages/report"
)

// Formatter is implemented by every output format.
type Formatter interface {
	FormatHeader(version string)
	FormatResult(r *runner.Result)
	FormatSummary(s *runner.Summary, timings []report.Timing) error
	FormatError(err error)
}

// outputTailLines bounds how much engine output a failure report shows.
const outputTailLines = 20

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) { f.writer = w }
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) { f.verbose = v }
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) { f.noColor = nc }
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n\n", bold("cocoreg"), version)
}

func (f *ConsoleFormatter) FormatResult(r *runner.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	symbol := green("✓")
	if !r.Passed {
		symbol = red("✗")
	}

	label := r.Testbench
	if r.Repetition > 1 {
		label = fmt.Sprintf("%s (repetition %d)", r.Testbench, r.Repetition)
	}

	fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, label, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

	if f.verbose && len(r.Tests) > 0 {
		fmt.Fprintf(f.writer, "    tests: %s\n", strings.Join(r.Tests, ", "))
	}

	if !r.Passed {
		if r.Err != nil {
			fmt.Fprintf(f.writer, "    %s %v\n", red("→"), r.Err)
		}
		for _, line := range outputTail(r.Output) {
			fmt.Fprintf(f.writer, "    %s\n", line)
		}
	}
}

func (f *ConsoleFormatter) FormatSummary(s *runner.Summary, timings []report.Timing) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	if len(s.Results) == 0 {
		fmt.Fprintf(f.writer, "%s\n", bold("No testbenches to run"))
		return nil
	}

	fmt.Fprintf(f.writer, "Runs: ")
	if s.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", s.Passed)))
	}
	if s.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", s.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(s.Results))
	fmt.Fprintf(f.writer, "Time: %dms\n", s.Duration.Milliseconds())
	if s.Bailed {
		fmt.Fprintf(f.writer, "%s\n", red("Run aborted at first failure (--bail)"))
	}

	if len(timings) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Timings"))
		for _, tm := range timings {
			fmt.Fprintf(f.writer, "  %-24s n=%d min=%dms mean=%dms p95=%dms max=%dms\n",
				tm.Testbench, tm.Samples,
				tm.Min.Milliseconds(), tm.Mean.Milliseconds(),
				tm.P95.Milliseconds(), tm.Max.Milliseconds())
		}
	}
	return nil
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// outputTail returns the last few non-empty lines of engine output.
func outputTail(out string) []string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > outputTailLines {
		kept = kept[len(kept)-outputTailLines:]
	}
	return kept
}
