package runbook

import (
	"fmt"
	"strings"
)

// Violation is a single field-level schema or reference problem.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// SchemaError reports shape or reference violations in a runbook document.
// It carries the full violation list so callers can show every problem at
// once instead of one per invocation.
type SchemaError struct {
	File       string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, fmt.Sprintf("invalid runbook %s:", e.File))
	for _, v := range e.Violations {
		lines = append(lines, "  "+v.String())
	}
	return strings.Join(lines, "\n")
}

// PathError reports filesystem paths the runbook references that do not
// exist, or exist with the wrong kind (file where a directory is required,
// and vice versa).
type PathError struct {
	File    string
	Missing []string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("runbook %s references non-existent paths: %s",
		e.File, strings.Join(e.Missing, ", "))
}

// ParseError reports a YAML syntax failure.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing runbook %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
