package runbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cocoreg/cocoreg/packages/core/args"
	"github.com/cocoreg/cocoreg/packages/core/paths"
)

// DefaultFilenames contains the runbook names probed when the CLI is given a
// directory instead of a file.
var DefaultFilenames = []string{
	".cocoreg",
	"cocoreg.yaml",
	"cocoreg.yml",
}

// Locate resolves a CLI runbook argument to a concrete file. A file path is
// returned as-is; a directory is probed for the conventional names.
func Locate(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access runbook path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return abs, nil
	}

	for _, name := range DefaultFilenames {
		candidate := filepath.Join(abs, name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no runbook found in %s (looked for %v)", abs, DefaultFilenames)
}

type rawGeneral struct {
	Sim       string         `yaml:"sim"`
	Title     string         `yaml:"title"`
	BuildArgs map[string]any `yaml:"build_args"`
	TestArgs  map[string]any `yaml:"test_args"`
}

type rawTestbench struct {
	Srcs      []int          `yaml:"srcs"`
	Path      string         `yaml:"path"`
	RTLTop    string         `yaml:"rtl_top"`
	TBTop     string         `yaml:"tb_top"`
	HDL       string         `yaml:"hdl"`
	Tags      []string       `yaml:"tags"`
	BuildArgs map[string]any `yaml:"build_args"`
	TestArgs  map[string]any `yaml:"test_args"`
}

type rawRunbook struct {
	rawGeneral `yaml:",inline"`

	General *rawGeneral             `yaml:"general"`
	Srcs    map[int]string          `yaml:"srcs"`
	Tbs     map[string]rawTestbench `yaml:"tbs"`
	Include []string                `yaml:"include"`
}

func (r *rawRunbook) general() *rawGeneral {
	if r.General != nil {
		return r.General
	}
	return &r.rawGeneral
}

// Load reads, validates, and resolves a runbook file. workDir anchors
// path-valued build/test arguments; callers normally pass the process's
// working directory, tests can pass anything.
//
// Validation is fail-fast with respect to execution but exhaustive within a
// phase: schema violations are reported all at once, as are missing paths.
func Load(file, workDir string) (*Runbook, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading runbook: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: abs, Err: err}
	}
	normalized, _ := normalize(doc).(map[string]any)

	violations, err := validateSchema(normalized)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &SchemaError{File: abs, Violations: violations}
	}

	var raw rawRunbook
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{File: abs, Err: err}
	}

	resolver := paths.NewResolver(filepath.Dir(abs), workDir)
	rb, err := resolve(&raw, abs, resolver)
	if err != nil {
		return nil, err
	}

	if violations := checkReferences(rb); len(violations) > 0 {
		return nil, &SchemaError{File: abs, Violations: violations}
	}
	if missing := checkExistence(rb); len(missing) > 0 {
		return nil, &PathError{File: abs, Missing: missing}
	}

	return rb, nil
}

// resolve turns every path field absolute and expands variables in argument
// values.
func resolve(raw *rawRunbook, file string, resolver *paths.Resolver) (*Runbook, error) {
	general := raw.general()

	rb := &Runbook{
		File:  file,
		Dir:   filepath.Dir(file),
		Title: general.Title,
		Sim:   general.Sim,
		Srcs:  make(map[int]string, len(raw.Srcs)),
		Tbs:   make(map[string]*Testbench, len(raw.Tbs)),
	}

	for idx, src := range raw.Srcs {
		resolved, err := resolver.Project(fmt.Sprintf("srcs.%d", idx), src)
		if err != nil {
			return nil, err
		}
		rb.Srcs[idx] = resolved
	}

	for i, inc := range raw.Include {
		resolved, err := resolver.Project(fmt.Sprintf("include.%d", i), inc)
		if err != nil {
			return nil, err
		}
		rb.Include = append(rb.Include, resolved)
	}

	var err error
	if rb.BuildArgs, err = resolveArgs(resolver, "build_args", general.BuildArgs); err != nil {
		return nil, err
	}
	if rb.TestArgs, err = resolveArgs(resolver, "test_args", general.TestArgs); err != nil {
		return nil, err
	}

	for name, rawTB := range raw.Tbs {
		tb := &Testbench{
			Name:   name,
			Srcs:   append([]int(nil), rawTB.Srcs...),
			HDL:    rawTB.HDL,
			RTLTop: rawTB.RTLTop,
			TBTop:  rawTB.TBTop,
			Tags:   append([]string(nil), rawTB.Tags...),
		}
		field := fmt.Sprintf("tbs.%s.path", name)
		if tb.Path, err = resolver.Project(field, rawTB.Path); err != nil {
			return nil, err
		}
		field = fmt.Sprintf("tbs.%s.build_args", name)
		if tb.BuildArgs, err = resolveArgs(resolver, field, rawTB.BuildArgs); err != nil {
			return nil, err
		}
		field = fmt.Sprintf("tbs.%s.test_args", name)
		if tb.TestArgs, err = resolveArgs(resolver, field, rawTB.TestArgs); err != nil {
			return nil, err
		}
		rb.Tbs[name] = tb
	}

	return rb, nil
}

// resolveArgs expands variables in string argument values. Path-valued keys
// additionally resolve against the working directory; everything else keeps
// its expanded value and non-string values pass through untouched.
func resolveArgs(resolver *paths.Resolver, field string, in map[string]any) (args.Set, error) {
	out := make(args.Set, len(in))
	for key, value := range in {
		str, ok := value.(string)
		if !ok {
			out[key] = value
			continue
		}
		keyField := field + "." + key
		if paths.ArgPathKeys[key] {
			resolved, err := resolver.Invocation(keyField, str)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
			continue
		}
		expanded, err := resolver.Expand(keyField, str)
		if err != nil {
			return nil, err
		}
		out[key] = expanded
	}
	return out, nil
}

// checkReferences verifies that every source index a testbench names exists
// in the source table.
func checkReferences(rb *Runbook) []Violation {
	var violations []Violation
	for _, name := range rb.TestbenchNames() {
		for _, idx := range rb.Tbs[name].Srcs {
			if _, ok := rb.Srcs[idx]; !ok {
				violations = append(violations, Violation{
					Field:   fmt.Sprintf("tbs.%s.srcs", name),
					Message: fmt.Sprintf("source index %d is not registered under srcs", idx),
				})
			}
		}
	}
	return violations
}

// checkExistence verifies that source files are regular files and that
// testbench and include paths are directories.
func checkExistence(rb *Runbook) []string {
	var missing []string

	for _, idx := range rb.SourceIndices() {
		if info, err := os.Stat(rb.Srcs[idx]); err != nil || info.IsDir() {
			missing = append(missing, rb.Srcs[idx])
		}
	}
	for _, name := range rb.TestbenchNames() {
		if info, err := os.Stat(rb.Tbs[name].Path); err != nil || !info.IsDir() {
			missing = append(missing, rb.Tbs[name].Path)
		}
	}
	for _, inc := range rb.Include {
		if info, err := os.Stat(inc); err != nil || !info.IsDir() {
			missing = append(missing, inc)
		}
	}

	sort.Strings(missing)
	return missing
}
