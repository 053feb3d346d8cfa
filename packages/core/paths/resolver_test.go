package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Setenv("COCOREG_TEST_ROOT", "/opt/proj")

	tests := []struct {
		name     string
		value    string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain value untouched",
			value:    "rtl/counter.sv",
			expected: "rtl/counter.sv",
		},
		{
			name:     "defined variable",
			value:    "${COCOREG_TEST_ROOT}/rtl",
			expected: "/opt/proj/rtl",
		},
		{
			name:     "undefined variable with default",
			value:    "${COCOREG_TEST_UNSET:-/tmp/simdir}",
			expected: "/tmp/simdir",
		},
		{
			name:    "undefined variable without default",
			value:   "${COCOREG_TEST_UNSET}/rtl",
			wantErr: true,
		},
		{
			name:     "multiple variables",
			value:    "${COCOREG_TEST_ROOT}/${COCOREG_TEST_UNSET:-a}/b",
			expected: "/opt/proj/a/b",
		},
	}

	r := NewResolver("/rb", "/cwd")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Expand("srcs.1", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				var resolveErr *ResolveError
				require.ErrorAs(t, err, &resolveErr)
				assert.Equal(t, "COCOREG_TEST_UNSET", resolveErr.Var)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestProjectAndInvocationBases(t *testing.T) {
	r := NewResolver("/proj/manifest", "/home/user/work")

	// Relative source path resolves against the runbook directory.
	got, err := r.Project("srcs.1", "./big_counter.sv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/proj/manifest", "big_counter.sv"), got)

	// Relative argument path resolves against the working directory.
	got, err = r.Invocation("build_args.build_dir", "simdir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/user/work", "simdir"), got)

	// Absolute paths pass through either way.
	got, err = r.Project("tbs.tb1.path", "/abs/tb")
	require.NoError(t, err)
	assert.Equal(t, "/abs/tb", got)

	got, err = r.Invocation("test_args.results_xml", "/abs/results.xml")
	require.NoError(t, err)
	assert.Equal(t, "/abs/results.xml", got)
}

func TestResolutionIdempotent(t *testing.T) {
	r := NewResolver("/proj", "/cwd")

	once, err := r.Project("include.0", "common/include")
	require.NoError(t, err)
	twice, err := r.Project("include.0", once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	r := NewResolver("/proj", "/cwd")
	got, err := r.Project("tbs.tb1.path", "~/benches/tb1")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/benches/tb1", got)
}

func TestArgPathKeys(t *testing.T) {
	assert.True(t, ArgPathKeys["build_dir"])
	assert.True(t, ArgPathKeys["results_xml"])
	assert.False(t, ArgPathKeys["waves"])
}
