package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocoreg/cocoreg/packages/core/args"
	"github.com/cocoreg/cocoreg/packages/core/runbook"
	"github.com/cocoreg/cocoreg/packages/core/selection"
)

// fakeInvoker records invocations and fails the testbenches it is told to.
type fakeInvoker struct {
	calls []*Invocation
	fail  map[string]bool
}

func (f *fakeInvoker) Invoke(_ context.Context, inv *Invocation) *Result {
	f.calls = append(f.calls, inv)
	passed := !f.fail[inv.Testbench.Name]
	return &Result{
		Testbench:  inv.Testbench.Name,
		Repetition: inv.Repetition,
		Tests:      inv.Tests,
		Passed:     passed,
	}
}

func fixtureRunbook() *runbook.Runbook {
	return &runbook.Runbook{
		Sim:       "icarus",
		Srcs:      map[int]string{1: "/proj/rtl/counter.sv", 2: "/proj/rtl/fifo.sv"},
		BuildArgs: args.Set{"waves": true},
		TestArgs:  args.Set{"seed": 7},
		Tbs: map[string]*runbook.Testbench{
			"counter_tb": {
				Name: "counter_tb", Srcs: []int{1}, Path: "/proj/tb/counter",
				HDL: "verilog", RTLTop: "counter", TBTop: "test_counter",
				BuildArgs: args.Set{"waves": false},
			},
			"fifo_tb": {
				Name: "fifo_tb", Srcs: []int{2, 1}, Path: "/proj/tb/fifo",
				HDL: "verilog", RTLTop: "fifo", TBTop: "test_fifo",
			},
		},
	}
}

func TestRunRepetitionCount(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work"}

	plan := &selection.Plan{
		Items:  []selection.Item{{Testbench: "counter_tb", Tests: []string{"t1"}}},
		Repeat: 3,
	}

	summary := orch.Run(context.Background(), rb, plan)

	// Exactly N invocations, strictly sequential, repetitions in order.
	require.Len(t, invoker.calls, 3)
	for i, call := range invoker.calls {
		assert.Equal(t, "counter_tb", call.Testbench.Name)
		assert.Equal(t, i+1, call.Repetition)
	}
	assert.Equal(t, 3, summary.Passed)
	assert.False(t, summary.AnyFailed())
}

func TestRunShapesInvocation(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work"}

	plan := &selection.Plan{
		Items:  []selection.Item{{Testbench: "fifo_tb", Tests: []string{"test_full"}}},
		Repeat: 1,
	}
	orch.Run(context.Background(), rb, plan)

	require.Len(t, invoker.calls, 1)
	inv := invoker.calls[0]
	assert.Equal(t, "icarus", inv.Sim)
	// Sources follow the testbench's declared order, not index order.
	assert.Equal(t, []string{"/proj/rtl/fifo.sv", "/proj/rtl/counter.sv"}, inv.Sources)
	assert.Equal(t, args.Set{"waves": true}, inv.BuildArgs)
	assert.Equal(t, args.Set{"seed": 7}, inv.TestArgs)
	assert.Equal(t, "/work", inv.WorkDir)
}

func TestRunMergesOverrides(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work"}

	plan := &selection.Plan{
		Items:  []selection.Item{{Testbench: "counter_tb", Tests: []string{"t1"}}},
		Repeat: 1,
	}
	orch.Run(context.Background(), rb, plan)

	require.Len(t, invoker.calls, 1)
	assert.Equal(t, args.Set{"waves": false}, invoker.calls[0].BuildArgs)
}

func TestRunContinuesAfterFailureByDefault(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{fail: map[string]bool{"counter_tb": true}}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work"}

	plan := &selection.Plan{
		Items: []selection.Item{
			{Testbench: "counter_tb", Tests: []string{"t1"}},
			{Testbench: "fifo_tb", Tests: []string{"t2"}},
		},
		Repeat: 1,
	}
	summary := orch.Run(context.Background(), rb, plan)

	assert.Len(t, invoker.calls, 2)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Passed)
	assert.False(t, summary.Bailed)
	assert.True(t, summary.AnyFailed())
}

func TestRunBailStopsAtFirstFailure(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{fail: map[string]bool{"counter_tb": true}}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work", Bail: true}

	plan := &selection.Plan{
		Items: []selection.Item{
			{Testbench: "counter_tb", Tests: []string{"t1"}},
			{Testbench: "fifo_tb", Tests: []string{"t2"}},
		},
		Repeat: 2,
	}
	summary := orch.Run(context.Background(), rb, plan)

	assert.Len(t, invoker.calls, 1)
	assert.True(t, summary.Bailed)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Passed)
}

func TestRunEmptyPlanIsNoOp(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{}
	orch := &Orchestrator{Invoker: invoker, WorkDir: "/work"}

	summary := orch.Run(context.Background(), rb, &selection.Plan{Repeat: 1})

	assert.Empty(t, invoker.calls)
	assert.Empty(t, summary.Results)
	assert.False(t, summary.AnyFailed())
}

func TestRunObserverStreamsResults(t *testing.T) {
	rb := fixtureRunbook()
	invoker := &fakeInvoker{}
	var seen []string
	orch := &Orchestrator{
		Invoker: invoker,
		WorkDir: "/work",
		Observe: func(r *Result) { seen = append(seen, r.Testbench) },
	}

	plan := &selection.Plan{
		Items: []selection.Item{
			{Testbench: "counter_tb", Tests: []string{"t1"}},
			{Testbench: "fifo_tb", Tests: []string{"t2"}},
		},
		Repeat: 1,
	}
	orch.Run(context.Background(), rb, plan)

	assert.Equal(t, []string{"counter_tb", "fifo_tb"}, seen)
}
