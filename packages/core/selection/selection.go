// Package selection computes the run set: which testbenches run, which of
// their tests run, and how many times. Inclusion is always applied before
// exclusion, and an empty result is a valid no-op, never an error.
package selection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
)

// Criteria is the user's run request.
type Criteria struct {
	Testbenches  []string // exact testbench names; empty means all
	IncludeTests []string // exact test names to keep; empty means all
	ExcludeTests []string // exact test names to drop, applied after include
	IncludeTags  []string // regex patterns; a testbench needs one matching tag
	ExcludeTags  []string // regex patterns; one matching tag drops the testbench
}

// NameError reports a reference to a testbench name the runbook does not
// define.
type NameError struct {
	Name  string
	Known []string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("testbench %q not found (available: %s)",
		e.Name, strings.Join(e.Known, ", "))
}

// Item is one selected testbench together with the tests to run in it.
type Item struct {
	Testbench string
	Tests     []string
}

// Plan is the resolved selection. Repeat is the number of times each item is
// scheduled, always at least 1.
type Plan struct {
	Items  []Item
	Repeat int
}

// Empty reports whether nothing was selected.
func (p *Plan) Empty() bool { return len(p.Items) == 0 }

// Invocations is the total number of external runner calls the plan implies.
func (p *Plan) Invocations() int { return len(p.Items) * p.Repeat }

// DiscoverFunc enumerates the test names a testbench defines.
type DiscoverFunc func(tb *runbook.Testbench) ([]string, error)

// Build narrows the runbook to the requested testbenches, applies tag
// filters, then include-then-exclude filters each survivor's test names.
// Testbench order follows the request when names were given, sorted runbook
// order otherwise.
func Build(rb *runbook.Runbook, crit Criteria, discover DiscoverFunc, repeat int) (*Plan, error) {
	if repeat < 1 {
		repeat = 1
	}

	includeTags, err := compilePatterns(crit.IncludeTags)
	if err != nil {
		return nil, err
	}
	excludeTags, err := compilePatterns(crit.ExcludeTags)
	if err != nil {
		return nil, err
	}

	names := crit.Testbenches
	if len(names) == 0 {
		names = rb.TestbenchNames()
	} else {
		for _, name := range names {
			if !rb.Has(name) {
				return nil, &NameError{Name: name, Known: rb.TestbenchNames()}
			}
		}
	}

	plan := &Plan{Repeat: repeat}
	for _, name := range names {
		tb := rb.Tbs[name]
		if !tagsAdmit(tb.Tags, includeTags, excludeTags) {
			continue
		}

		all, err := discover(tb)
		if err != nil {
			return nil, err
		}
		tests := filterTests(all, crit.IncludeTests, crit.ExcludeTests)
		if len(tests) == 0 {
			continue
		}
		plan.Items = append(plan.Items, Item{Testbench: name, Tests: tests})
	}

	return plan, nil
}

// filterTests keeps includes first, then removes excludes, preserving the
// discovered order. Matching is by exact name.
func filterTests(all, include, exclude []string) []string {
	kept := all
	if len(include) > 0 {
		included := make([]string, 0, len(kept))
		for _, name := range kept {
			if containsName(include, name) {
				included = append(included, name)
			}
		}
		kept = included
	}
	if len(exclude) == 0 {
		return kept
	}
	out := make([]string, 0, len(kept))
	for _, name := range kept {
		if !containsName(exclude, name) {
			out = append(out, name)
		}
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// tagsAdmit applies include-then-exclude tag filtering: with include
// patterns, at least one tag must fully match one of them; any tag fully
// matching an exclude pattern drops the testbench.
func tagsAdmit(tags []string, include, exclude []*regexp.Regexp) bool {
	if len(include) > 0 && !anyTagMatches(tags, include) {
		return false
	}
	return !anyTagMatches(tags, exclude)
}

func anyTagMatches(tags []string, patterns []*regexp.Regexp) bool {
	for _, tag := range tags {
		for _, p := range patterns {
			if p.MatchString(tag) {
				return true
			}
		}
	}
	return false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid tag pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
