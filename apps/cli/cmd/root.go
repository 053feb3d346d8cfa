package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
	"github.com/cocoreg/cocoreg/packages/core/selection"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cocoreg",
	Short: "Regression runner for cocotb-based verification workflows",
	Long: `cocoreg manages regressions for cocotb-based hardware verification.
Describe your simulator, HDL sources, testbenches, and build/test
parameters in a YAML runbook; cocoreg resolves it, selects what to run,
and drives the simulation engine once per testbench.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: bad runbooks exit 2,
// bad selections and flags exit 64, everything else exits 1.
func exitCode(err error) int {
	var schemaErr *runbook.SchemaError
	var pathErr *runbook.PathError
	var parseErr *runbook.ParseError
	if errors.As(err, &schemaErr) || errors.As(err, &pathErr) || errors.As(err, &parseErr) {
		return ExitManifestError
	}
	var nameErr *selection.NameError
	if errors.As(err, &nameErr) {
		return ExitUsageError
	}
	return ExitRunFailure
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
