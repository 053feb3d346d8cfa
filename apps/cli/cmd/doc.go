// Package cmd implements the cocoreg CLI commands using Cobra.
//
// Available commands:
//   - run: Execute a regression from a runbook
//   - list: Display resolved runbook or testbench information
//   - validate: Check a runbook without running anything
//   - init: Create a starter verification project
//   - history: Show recorded regression runs
//   - version: Show cocoreg version information
//
// The CLI supports testbench/test/tag filtering, repetition, dry runs,
// multiple output formats, and watch mode for development workflows.
package cmd
