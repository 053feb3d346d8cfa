package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
)

var validateCmd = &cobra.Command{
	Use:   "validate [runbook]",
	Short: "Validate a runbook without running anything",
	Long: `Validate parses and checks a runbook: YAML syntax, document shape,
source references, and filesystem existence of every registered path.
It reports every problem it finds, not just the first one.

Examples:
  cocoreg validate
  cocoreg validate regress/.cocoreg`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, cmdArgs []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	if noColorFlag {
		color.NoColor = true
	}
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	rb, err := loadFromArgs(cmdArgs, workDir)
	if err == nil {
		fmt.Fprintf(out, "%s %s is valid (%d testbench(es), %d source(s))\n",
			green("✓"), rb.File, len(rb.Tbs), len(rb.Srcs))
		return nil
	}

	var schemaErr *runbook.SchemaError
	var pathErr *runbook.PathError
	var parseErr *runbook.ParseError
	switch {
	case errors.As(err, &schemaErr):
		fmt.Fprintf(out, "%s %s has %d schema violation(s):\n", red("✗"), schemaErr.File, len(schemaErr.Violations))
		for _, v := range schemaErr.Violations {
			fmt.Fprintf(out, "  %s: %s\n", v.Field, v.Message)
		}
	case errors.As(err, &pathErr):
		fmt.Fprintf(out, "%s %s references %d missing path(s):\n", red("✗"), pathErr.File, len(pathErr.Missing))
		for _, p := range pathErr.Missing {
			fmt.Fprintf(out, "  %s\n", p)
		}
	case errors.As(err, &parseErr):
		fmt.Fprintf(out, "%s %s is not valid YAML: %v\n", red("✗"), parseErr.File, parseErr.Err)
	default:
		fmt.Fprintf(out, "%s %v\n", red("✗"), err)
	}
	os.Exit(ExitManifestError)
	return nil
}

func init() {
	validateCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COCOREG_NO_COLOR", false), "Disable colored output (env: COCOREG_NO_COLOR)")
}
