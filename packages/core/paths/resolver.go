// Package paths turns the path fields of a runbook into absolute paths.
//
// Two base directories are in play: project-relative fields (source files,
// testbench directories, include directories) are anchored at the runbook's
// own directory so they stay stable no matter where the tool is invoked,
// while path-valued build/test arguments are anchored at the working
// directory so users control where simulation artifacts land.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ResolveError reports an environment variable reference that could not be
// resolved and carried no default.
type ResolveError struct {
	Field string // runbook field the value came from
	Value string // original value as written
	Var   string // the variable that was undefined
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("field %q: undefined environment variable %q in %q", e.Field, e.Var, e.Value)
}

// Resolver resolves runbook path fields. WorkDir is an explicit field rather
// than an implicit os.Getwd so tests can supply arbitrary values.
type Resolver struct {
	RunbookDir string
	WorkDir    string
}

func NewResolver(runbookDir, workDir string) *Resolver {
	return &Resolver{RunbookDir: runbookDir, WorkDir: workDir}
}

// Expand substitutes ${VAR} and ${VAR:-default} references with environment
// values and expands a leading "~" to the user's home directory. It returns a
// *ResolveError when a variable is undefined and has no default.
func (r *Resolver) Expand(field, value string) (string, error) {
	var missing string
	expanded := variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(groups[1]); ok {
			return v
		}
		if groups[2] != "" {
			return groups[3]
		}
		if missing == "" {
			missing = groups[1]
		}
		return match
	})
	if missing != "" {
		return "", &ResolveError{Field: field, Value: value, Var: missing}
	}

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("field %q: expanding %q: %w", field, value, err)
		}
		expanded = filepath.Join(home, expanded[1:])
	}

	return expanded, nil
}

// Project resolves a project-relative field: variables are expanded first,
// absolute results pass through, and relative results are joined to the
// runbook directory. Resolving an already absolute path is a no-op, so
// resolution is idempotent.
func (r *Resolver) Project(field, value string) (string, error) {
	return r.resolve(field, value, r.RunbookDir)
}

// Invocation resolves a path-valued build/test argument: same expansion
// rules, but relative results are joined to the working directory.
func (r *Resolver) Invocation(field, value string) (string, error) {
	return r.resolve(field, value, r.WorkDir)
}

func (r *Resolver) resolve(field, value, base string) (string, error) {
	expanded, err := r.Expand(field, value)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(base, expanded), nil
}

// ArgPathKeys lists the build/test argument names whose values are paths and
// therefore resolve against the working directory. Other argument values are
// only variable-expanded, never rebased.
var ArgPathKeys = map[string]bool{
	"build_dir":   true,
	"test_dir":    true,
	"results_xml": true,
	"log_file":    true,
}
