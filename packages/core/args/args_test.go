package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		global   Set
		override Set
		expected Set
	}{
		{
			name:     "no override keeps global exactly",
			global:   Set{"waves": true, "build_dir": "sim_build"},
			override: nil,
			expected: Set{"waves": true, "build_dir": "sim_build"},
		},
		{
			name:     "partial override retains unnamed keys",
			global:   Set{"waves": true, "timescale": "1ns/1ps"},
			override: Set{"waves": false},
			expected: Set{"waves": false, "timescale": "1ns/1ps"},
		},
		{
			name:     "override-only keys are added",
			global:   Set{"waves": true},
			override: Set{"seed": 42},
			expected: Set{"waves": true, "seed": 42},
		},
		{
			name:     "both empty",
			global:   nil,
			override: nil,
			expected: Set{},
		},
		{
			name:     "nested values are replaced whole, not merged",
			global:   Set{"defines": map[string]any{"WIDTH": 8, "DEPTH": 4}},
			override: Set{"defines": map[string]any{"WIDTH": 16}},
			expected: Set{"defines": map[string]any{"WIDTH": 16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.global, tt.override))
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	global := Set{"waves": true}
	override := Set{"waves": false, "seed": 7}

	_ = Merge(global, override)

	assert.Equal(t, Set{"waves": true}, global)
	assert.Equal(t, Set{"waves": false, "seed": 7}, override)
}

func TestCloneNilIsEmpty(t *testing.T) {
	var s Set
	clone := s.Clone()
	assert.NotNil(t, clone)
	assert.Empty(t, clone)
}

func TestKeysSorted(t *testing.T) {
	s := Set{"waves": true, "build_dir": "x", "seed": 1}
	assert.Equal(t, []string{"build_dir", "seed", "waves"}, s.Keys())
}
