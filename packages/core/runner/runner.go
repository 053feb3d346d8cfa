// Package runner drives the external simulation engine: one invocation per
// (testbench, repetition) pair, strictly in order, blocking on each call.
// The orchestration itself holds no state between runs; everything it needs
// arrives in the resolved runbook and the selection plan.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cocoreg/cocoreg/packages/core/args"
	"github.com/cocoreg/cocoreg/packages/core/runbook"
	"github.com/cocoreg/cocoreg/packages/core/selection"
)

// Invocation carries everything one external call needs: the manifest data
// already shaped for the engine's signature.
type Invocation struct {
	Testbench  *runbook.Testbench
	Sim        string
	Sources    []string // resolved, in srcs-list order
	Include    []string // directories for the engine's module path
	BuildArgs  args.Set // effective (global merged with override)
	TestArgs   args.Set
	Tests      []string // selected test names; empty means all
	Repetition int      // 1-based
	WorkDir    string
}

// Result is the outcome of one invocation.
type Result struct {
	Testbench  string
	Repetition int
	Tests      []string
	Passed     bool
	Duration   time.Duration
	Output     string // combined engine output, kept for failure reporting
	Err        error
}

// ExecError reports an external engine failure for one testbench invocation.
type ExecError struct {
	Testbench  string
	Repetition int
	Err        error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("testbench %q (repetition %d): %v", e.Testbench, e.Repetition, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Invoker is the external engine boundary. Implementations must be safe for
// repeated sequential calls; they are never called concurrently.
type Invoker interface {
	Invoke(ctx context.Context, inv *Invocation) *Result
}

// Summary aggregates a whole regression run.
type Summary struct {
	Results  []*Result
	Passed   int
	Failed   int
	Duration time.Duration
	Bailed   bool // true when the run stopped early on first failure
}

// AnyFailed reports whether at least one invocation failed.
func (s *Summary) AnyFailed() bool { return s.Failed > 0 }

// Orchestrator executes a selection plan against a runbook.
type Orchestrator struct {
	Invoker Invoker
	WorkDir string
	// Bail makes the whole run stop at the first failing invocation. This is
	// the single run-level policy: there is no per-testbench variant.
	Bail bool
	// Observe, when set, is called with each result as it completes, so
	// formatters can stream progress.
	Observe func(*Result)
}

// Run executes every (item, repetition) pair in order and blocks on each
// external call until it completes. An empty plan returns an empty summary.
func (o *Orchestrator) Run(ctx context.Context, rb *runbook.Runbook, plan *selection.Plan) *Summary {
	start := time.Now()
	summary := &Summary{}

	for _, item := range plan.Items {
		tb := rb.Tbs[item.Testbench]
		for rep := 1; rep <= plan.Repeat; rep++ {
			inv := &Invocation{
				Testbench:  tb,
				Sim:        rb.Sim,
				Sources:    rb.Sources(tb),
				Include:    rb.Include,
				BuildArgs:  rb.EffectiveBuildArgs(tb),
				TestArgs:   rb.EffectiveTestArgs(tb),
				Tests:      item.Tests,
				Repetition: rep,
				WorkDir:    o.WorkDir,
			}

			result := o.Invoker.Invoke(ctx, inv)
			summary.Results = append(summary.Results, result)
			if result.Passed {
				summary.Passed++
			} else {
				summary.Failed++
			}
			if o.Observe != nil {
				o.Observe(result)
			}

			if !result.Passed && o.Bail {
				summary.Bailed = true
				summary.Duration = time.Since(start)
				return summary
			}
		}
	}

	summary.Duration = time.Since(start)
	return summary
}
