package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// cocotbDriver is the Python shim that adapts an invocation to the cocotb
// runner's call signature. The whole invocation arrives as one JSON argument
// so no value ever needs shell quoting. The import fallback covers both the
// cocotb 2.x and 1.x module layouts.
const cocotbDriver = `
import json, sys

try:
    from cocotb_tools.runner import get_runner
except ImportError:
    from cocotb.runner import get_runner

spec = json.loads(sys.argv[1])
runner = get_runner(spec["sim"])
runner.build(
    sources=spec["sources"],
    hdl_toplevel=spec["rtl_top"],
    always=True,
    **spec["build_args"],
)
runner.test(
    hdl_toplevel=spec["rtl_top"],
    hdl_toplevel_lang=spec["hdl"],
    test_module=spec["tb_top"],
    testcase=spec["tests"] or None,
    **spec["test_args"],
)
`

// CocotbInvoker runs the cocotb build/test flow in a spawned Python process.
type CocotbInvoker struct {
	Python  string // interpreter; defaults to python3
	Verbose bool
}

func NewCocotbInvoker() *CocotbInvoker {
	return &CocotbInvoker{Python: "python3"}
}

// Invoke performs one build+test cycle for a testbench. The engine's stdout
// and stderr are captured together; in verbose mode they are also streamed
// through.
func (c *CocotbInvoker) Invoke(ctx context.Context, inv *Invocation) *Result {
	start := time.Now()
	result := &Result{
		Testbench:  inv.Testbench.Name,
		Repetition: inv.Repetition,
		Tests:      inv.Tests,
	}

	payload, err := json.Marshal(map[string]any{
		"sim":        inv.Sim,
		"sources":    inv.Sources,
		"rtl_top":    inv.Testbench.RTLTop,
		"tb_top":     inv.Testbench.TBTop,
		"hdl":        inv.Testbench.HDL,
		"build_args": inv.BuildArgs,
		"test_args":  inv.TestArgs,
		"tests":      inv.Tests,
	})
	if err != nil {
		result.Err = &ExecError{Testbench: inv.Testbench.Name, Repetition: inv.Repetition, Err: err}
		result.Duration = time.Since(start)
		return result
	}

	python := c.Python
	if python == "" {
		python = "python3"
	}

	cmd := exec.CommandContext(ctx, python, "-c", cocotbDriver, string(payload))
	cmd.Dir = inv.WorkDir
	cmd.Env = append(os.Environ(), "PYTHONPATH="+pythonPath(inv))

	output, err := cmd.CombinedOutput()
	result.Output = string(output)
	result.Duration = time.Since(start)

	if c.Verbose && len(output) > 0 {
		fmt.Print(result.Output)
	}

	if err != nil {
		result.Err = &ExecError{Testbench: inv.Testbench.Name, Repetition: inv.Repetition, Err: err}
		return result
	}
	result.Passed = true
	return result
}

// pythonPath assembles the engine's module search path: runbook include
// dirs, the testbench directory and its parent, then whatever the caller's
// environment already had.
func pythonPath(inv *Invocation) string {
	entries := append([]string{}, inv.Include...)
	entries = append(entries, inv.Testbench.Path, filepath.Dir(inv.Testbench.Path))
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		entries = append(entries, existing)
	}
	return strings.Join(entries, string(os.PathListSeparator))
}
