// Package args models the build/test argument sets passed through to the
// simulation engine, and the layered global -> per-testbench merge that
// produces the effective set for each testbench.
package args

import "sort"

// Set is one group of simulator options, keyed by option name. Values are
// whatever the runbook declared (strings, numbers, booleans, lists); the
// external runner interprets them.
type Set map[string]any

// Clone returns an independent shallow copy of the set. A nil set clones to
// an empty, non-nil set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the option names in sorted order, for deterministic display.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge layers override on top of global. Keys absent from the override keep
// the global value; keys present in the override replace the global value
// entirely, with no recursion into nested structures. Neither input is
// mutated, and an absent override is a no-op.
func Merge(global, override Set) Set {
	out := global.Clone()
	for k, v := range override {
		out[k] = v
	}
	return out
}
