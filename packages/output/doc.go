// Package output renders regression results in multiple formats:
//   - console: human-readable colored output (default)
//   - json: machine-readable summary for scripting
//   - junit: JUnit XML for CI systems
//
// Console streams each invocation's outcome as it completes; the structured
// formats accumulate and emit everything when the run finishes.
package output
