// Package runbook loads, validates, and models the regression runbook: the
// YAML document describing simulator choice, HDL sources, testbenches, and
// build/test parameters.
package runbook

import (
	"sort"

	"github.com/cocoreg/cocoreg/packages/core/args"
)

// Simulators is the allow-list of simulation engines a runbook may name.
var Simulators = []string{
	"icarus", "verilator", "vcs", "riviera", "questa", "activehdl",
	"modelsim", "ius", "xcelium", "ghdl", "nvc", "cvc",
}

// HDLKinds is the allow-list for a testbench's hdl field.
var HDLKinds = []string{"verilog", "vhdl"}

// Testbench is a named verification unit pairing a design under test with a
// cocotb test driver.
type Testbench struct {
	Name      string
	Srcs      []int // ordered indices into Runbook.Srcs
	Path      string
	HDL       string
	RTLTop    string
	TBTop     string
	Tags      []string
	BuildArgs args.Set
	TestArgs  args.Set
}

// HasTag reports whether the testbench carries the exact tag.
func (tb *Testbench) HasTag(tag string) bool {
	for _, t := range tb.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Runbook is a fully resolved runbook: every path field is absolute and every
// reference has been checked. Instances are constructed fresh on each load
// and never mutated afterwards.
type Runbook struct {
	File  string // absolute path of the manifest file
	Dir   string // its containing directory
	Title string
	Sim   string
	Srcs  map[int]string // source index -> absolute file path
	Tbs   map[string]*Testbench

	Include   []string // absolute directories added to the Python path
	BuildArgs args.Set // global build arguments
	TestArgs  args.Set // global test arguments
}

// Has reports whether a testbench with the given name exists.
func (rb *Runbook) Has(name string) bool {
	_, ok := rb.Tbs[name]
	return ok
}

// TestbenchNames returns the testbench names in sorted order.
func (rb *Runbook) TestbenchNames() []string {
	names := make([]string, 0, len(rb.Tbs))
	for name := range rb.Tbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceIndices returns the registered source indices in ascending order.
func (rb *Runbook) SourceIndices() []int {
	idx := make([]int, 0, len(rb.Srcs))
	for i := range rb.Srcs {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Sources returns the absolute source file paths for a testbench, in the
// order its srcs list declares them.
func (rb *Runbook) Sources(tb *Testbench) []string {
	out := make([]string, 0, len(tb.Srcs))
	for _, i := range tb.Srcs {
		out = append(out, rb.Srcs[i])
	}
	return out
}

// EffectiveBuildArgs merges the global build arguments with the testbench's
// overrides.
func (rb *Runbook) EffectiveBuildArgs(tb *Testbench) args.Set {
	return args.Merge(rb.BuildArgs, tb.BuildArgs)
}

// EffectiveTestArgs merges the global test arguments with the testbench's
// overrides.
func (rb *Runbook) EffectiveTestArgs(tb *Testbench) args.Set {
	return args.Merge(rb.TestArgs, tb.TestArgs)
}
