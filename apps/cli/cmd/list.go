package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
	"github.com/cocoreg/cocoreg/packages/core/selection"
	"github.com/cocoreg/cocoreg/packages/discovery"
)

var listCmd = &cobra.Command{
	Use:   "list [runbook]",
	Short: "Show a runbook overview or testbench details",
	Long: `Without flags, list shows the runbook overview: title, simulator,
registered sources, and testbenches with their tags. With -t, it shows
the named testbenches in detail, including the cocotb tests discovered
in their Python modules.

Examples:
  cocoreg list
  cocoreg list regress/.cocoreg
  cocoreg list -t counter_tb`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommand,
}

var listTbFlag []string

func init() {
	listCmd.Flags().StringSliceVarP(&listTbFlag, "testbench", "t", nil, "Testbench name(s) to detail")
	listCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COCOREG_NO_COLOR", false), "Disable colored output (env: COCOREG_NO_COLOR)")
}

func listCommand(cmd *cobra.Command, cmdArgs []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	rb, err := loadFromArgs(cmdArgs, workDir)
	if err != nil {
		return err
	}
	if noColorFlag {
		color.NoColor = true
	}

	if len(listTbFlag) == 0 {
		printOverview(cmd, rb)
		return nil
	}
	for _, name := range listTbFlag {
		if !rb.Has(name) {
			return &selection.NameError{Name: name, Known: rb.TestbenchNames()}
		}
	}
	for i, name := range listTbFlag {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := printTestbench(cmd, rb, rb.Tbs[name]); err != nil {
			return err
		}
	}
	return nil
}

func printOverview(cmd *cobra.Command, rb *runbook.Runbook) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	title := rb.Title
	if title == "" {
		title = rb.File
	}
	fmt.Fprintf(out, "%s %s\n", bold(title), dim("("+rb.File+")"))
	fmt.Fprintf(out, "  Simulator: %s\n", rb.Sim)
	if len(rb.Include) > 0 {
		fmt.Fprintf(out, "  Include:   %s\n", strings.Join(rb.Include, ", "))
	}

	fmt.Fprintf(out, "\n  Sources:\n")
	for _, idx := range rb.SourceIndices() {
		fmt.Fprintf(out, "    %3d  %s\n", idx, rb.Srcs[idx])
	}

	fmt.Fprintf(out, "\n  Testbenches:\n")
	for _, name := range rb.TestbenchNames() {
		tb := rb.Tbs[name]
		line := fmt.Sprintf("    %s  %s", bold(name), dim(tb.HDL))
		if len(tb.Tags) > 0 {
			line += "  " + dim("["+strings.Join(tb.Tags, ", ")+"]")
		}
		fmt.Fprintln(out, line)
	}
}

func printTestbench(cmd *cobra.Command, rb *runbook.Runbook, tb *runbook.Testbench) error {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(out, "%s\n", bold(tb.Name))
	fmt.Fprintf(out, "  Module:   %s\n", discovery.ModulePath(tb))
	fmt.Fprintf(out, "  HDL:      %s\n", tb.HDL)
	fmt.Fprintf(out, "  RTL top:  %s\n", tb.RTLTop)
	fmt.Fprintf(out, "  TB top:   %s\n", tb.TBTop)
	if len(tb.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:     %s\n", strings.Join(tb.Tags, ", "))
	}
	if srcs := rb.Sources(tb); len(srcs) > 0 {
		fmt.Fprintf(out, "  Sources:\n")
		for _, src := range srcs {
			fmt.Fprintf(out, "    %s\n", src)
		}
	}
	if doc, err := discovery.ModuleDoc(discovery.ModulePath(tb)); err == nil && doc != "" {
		fmt.Fprintf(out, "  %s\n", dim(doc))
	}

	tests, err := discovery.Tests(tb)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Tests (%d):\n", len(tests))
	for _, tc := range tests {
		if tc.Doc != "" {
			fmt.Fprintf(out, "    %s  %s\n", tc.Name, dim(tc.Doc))
		} else {
			fmt.Fprintf(out, "    %s\n", tc.Name)
		}
	}
	return nil
}
