package runbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocoreg/cocoreg/packages/core/args"
)

// writeProject lays out a minimal verification project and returns the
// runbook path. The runbook content receives the project dir via %s verbs
// only when the caller embeds them; most fixtures use relative paths.
func writeProject(t *testing.T, runbookYAML string) (projectDir, runbookFile string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rtl"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tb", "counter"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "common"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rtl", "counter.sv"), []byte("module counter; endmodule\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rtl", "fifo.sv"), []byte("module fifo; endmodule\n"), 0o644))

	file := filepath.Join(dir, ".cocoreg")
	require.NoError(t, os.WriteFile(file, []byte(runbookYAML), 0o644))
	return dir, file
}

const validRunbook = `
sim: icarus
title: Counter regression
srcs:
  1: rtl/counter.sv
  2: rtl/fifo.sv
include:
  - common
build_args:
  waves: true
  build_dir: simdir
test_args:
  seed: 42
tbs:
  counter_tb:
    srcs: [1]
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
    tags: [smoke, fast]
    build_args:
      waves: false
`

func TestLoadValidRunbook(t *testing.T) {
	dir, file := writeProject(t, validRunbook)
	workDir := t.TempDir()

	rb, err := Load(file, workDir)
	require.NoError(t, err)

	assert.Equal(t, "icarus", rb.Sim)
	assert.Equal(t, "Counter regression", rb.Title)
	assert.Equal(t, filepath.Join(dir, "rtl", "counter.sv"), rb.Srcs[1])
	assert.Equal(t, filepath.Join(dir, "rtl", "fifo.sv"), rb.Srcs[2])
	assert.Equal(t, []string{filepath.Join(dir, "common")}, rb.Include)

	// Project paths anchor at the runbook dir, argument paths at workDir.
	assert.Equal(t, filepath.Join(workDir, "simdir"), rb.BuildArgs["build_dir"])

	tb := rb.Tbs["counter_tb"]
	require.NotNil(t, tb)
	assert.Equal(t, filepath.Join(dir, "tb", "counter"), tb.Path)
	assert.Equal(t, "counter", tb.RTLTop)
	assert.Equal(t, "test_counter", tb.TBTop)
	assert.Equal(t, []string{"smoke", "fast"}, tb.Tags)
	assert.Equal(t, []string{filepath.Join(dir, "rtl", "counter.sv")}, rb.Sources(tb))
}

func TestLoadGeneralSection(t *testing.T) {
	yaml := `
general:
  sim: verilator
  title: Nested form
srcs:
  1: rtl/counter.sv
tbs:
  counter_tb:
    srcs: [1]
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`
	_, file := writeProject(t, yaml)

	rb, err := Load(file, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "verilator", rb.Sim)
	assert.Equal(t, "Nested form", rb.Title)
}

func TestLoadIdempotentResolution(t *testing.T) {
	_, file := writeProject(t, validRunbook)
	workDir := t.TempDir()

	first, err := Load(file, workDir)
	require.NoError(t, err)
	second, err := Load(file, workDir)
	require.NoError(t, err)

	assert.Equal(t, first.Srcs, second.Srcs)
	assert.Equal(t, first.Include, second.Include)
	assert.Equal(t, first.BuildArgs, second.BuildArgs)
	assert.Equal(t, first.Tbs["counter_tb"].Path, second.Tbs["counter_tb"].Path)
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing simulator",
			yaml: `
tbs:
  counter_tb:
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`,
		},
		{
			name: "unknown simulator",
			yaml: `
sim: spice
tbs:
  counter_tb:
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`,
		},
		{
			name: "invalid hdl kind",
			yaml: `
sim: icarus
tbs:
  counter_tb:
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: systemc
`,
		},
		{
			name: "testbench missing tb_top",
			yaml: `
sim: icarus
tbs:
  counter_tb:
    path: tb/counter
    rtl_top: counter
    hdl: verilog
`,
		},
		{
			name: "missing testbenches",
			yaml: `
sim: icarus
srcs:
  1: rtl/counter.sv
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, file := writeProject(t, tt.yaml)
			_, err := Load(file, t.TempDir())
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.NotEmpty(t, schemaErr.Violations)
		})
	}
}

func TestLoadUnregisteredSourceIndex(t *testing.T) {
	yaml := `
sim: icarus
srcs:
  1: rtl/counter.sv
tbs:
  counter_tb:
    srcs: [1, 2]
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`
	_, file := writeProject(t, yaml)

	_, err := Load(file, t.TempDir())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
	assert.Equal(t, "tbs.counter_tb.srcs", schemaErr.Violations[0].Field)
	assert.Contains(t, schemaErr.Violations[0].Message, "source index 2")
}

func TestLoadMissingPaths(t *testing.T) {
	yaml := `
sim: icarus
srcs:
  1: rtl/nonexistent.sv
tbs:
  counter_tb:
    srcs: [1]
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`
	dir, file := writeProject(t, yaml)

	_, err := Load(file, t.TempDir())
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Contains(t, pathErr.Missing, filepath.Join(dir, "rtl", "nonexistent.sv"))
}

func TestLoadYAMLSyntaxError(t *testing.T) {
	_, file := writeProject(t, "sim: [unclosed\n")

	_, err := Load(file, t.TempDir())
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestLoadEnvExpansionInArgs(t *testing.T) {
	t.Setenv("COCOREG_SEED", "1234")
	yaml := `
sim: icarus
srcs:
  1: rtl/counter.sv
test_args:
  seed: ${COCOREG_SEED}
tbs:
  counter_tb:
    srcs: [1]
    path: tb/counter
    rtl_top: counter
    tb_top: test_counter
    hdl: verilog
`
	_, file := writeProject(t, yaml)

	rb, err := Load(file, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "1234", rb.TestArgs["seed"])
}

func TestLocate(t *testing.T) {
	dir, file := writeProject(t, validRunbook)

	found, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, file, found)

	found, err = Locate(file)
	require.NoError(t, err)
	assert.Equal(t, file, found)

	_, err = Locate(t.TempDir())
	assert.Error(t, err)
}

func TestEffectiveArgs(t *testing.T) {
	_, file := writeProject(t, validRunbook)
	workDir := t.TempDir()

	rb, err := Load(file, workDir)
	require.NoError(t, err)
	tb := rb.Tbs["counter_tb"]

	build := rb.EffectiveBuildArgs(tb)
	assert.Equal(t, false, build["waves"])
	assert.Equal(t, filepath.Join(workDir, "simdir"), build["build_dir"])

	// No test_args override: effective equals global exactly.
	assert.Equal(t, args.Set{"seed": 42}, rb.EffectiveTestArgs(tb))
}
