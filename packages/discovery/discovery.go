// Package discovery enumerates the cocotb tests a testbench module defines.
//
// The external engine runs tests by importing a Python module, so a runbook
// never lists test names itself. Discovery is a static scan of the module
// source for @cocotb.test-decorated functions; nothing is imported or
// executed. Names and docstrings are collected so the CLI can show them.
package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cocoreg/cocoreg/packages/core/runbook"
)

var (
	decoratorPattern = regexp.MustCompile(`^\s*@cocotb\.test\b`)
	defPattern       = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// Test is one discovered cocotb test.
type Test struct {
	Name string
	Doc  string
}

// ModuleError reports a testbench whose top-level module file is absent from
// its directory.
type ModuleError struct {
	Testbench string
	Module    string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("testbench %q: module file %s not found", e.Testbench, e.Module)
}

// ModulePath returns the path of the testbench's top-level Python module.
func ModulePath(tb *runbook.Testbench) string {
	return filepath.Join(tb.Path, tb.TBTop+".py")
}

// Tests scans the testbench module for cocotb tests. A module that defines
// none yields an empty slice; a missing module file is a *ModuleError.
func Tests(tb *runbook.Testbench) ([]Test, error) {
	path := ModulePath(tb)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ModuleError{Testbench: tb.Name, Module: path}
		}
		return nil, fmt.Errorf("reading testbench module: %w", err)
	}
	defer f.Close()

	var tests []Test
	pending := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if decoratorPattern.MatchString(line) {
			pending = true
			continue
		}
		if !pending {
			continue
		}

		m := defPattern.FindStringSubmatch(line)
		if m == nil {
			continue // decorator arguments or stacked decorators
		}
		pending = false
		tests = append(tests, Test{Name: m[1], Doc: readDocstring(scanner)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading testbench module: %w", err)
	}

	return tests, nil
}

// TestNames is the Tests result reduced to names, for selection filtering.
func TestNames(tb *runbook.Testbench) ([]string, error) {
	tests, err := Tests(tb)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tests))
	for i, t := range tests {
		names[i] = t.Name
	}
	return names, nil
}

// ModuleDoc returns the module-level docstring, or "" when there is none.
func ModuleDoc(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, `"""`) || strings.HasPrefix(line, "'''") {
			return finishDocstring(line, scanner), nil
		}
		return "", nil // first statement is not a docstring
	}
	return "", scanner.Err()
}

// readDocstring captures the docstring immediately following a def line, if
// any. The scanner is left positioned after the docstring.
func readDocstring(scanner *bufio.Scanner) string {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, `"""`) || strings.HasPrefix(line, "'''") {
			return finishDocstring(line, scanner)
		}
		return ""
	}
	return ""
}

// finishDocstring consumes a docstring opened on the given line and returns
// its trimmed text.
func finishDocstring(first string, scanner *bufio.Scanner) string {
	quote := first[:3]
	body := first[3:]

	// Single-line form: """text""".
	if idx := strings.Index(body, quote); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}

	parts := []string{body}
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, quote); idx >= 0 {
			parts = append(parts, line[:idx])
			break
		}
		parts = append(parts, line)
	}

	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
