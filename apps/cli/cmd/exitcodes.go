package cmd

// Exit codes for the cocoreg CLI
const (
	// ExitSuccess indicates every selected invocation passed
	ExitSuccess = 0

	// ExitRunFailure indicates one or more testbench invocations failed
	ExitRunFailure = 1

	// ExitManifestError indicates the runbook failed to load or validate
	ExitManifestError = 2

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
