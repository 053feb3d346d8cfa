package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/cocoreg/cocoreg/packages/core/runner"
	"github.com/cocoreg/cocoreg/packages/report"
)

// JSONOutput is the complete machine-readable run summary.
type JSONOutput struct {
	Version string       `json:"version"`
	Summary JSONSummary  `json:"summary"`
	Runs    []JSONRun    `json:"runs"`
	Timings []JSONTiming `json:"timings,omitempty"`
	Time    string       `json:"time"`
}

type JSONSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Bailed   bool    `json:"bailed,omitempty"`
	Duration float64 `json:"duration"` // seconds
}

// JSONRun is one external-engine invocation.
type JSONRun struct {
	Testbench  string   `json:"testbench"`
	Repetition int      `json:"repetition"`
	Tests      []string `json:"tests,omitempty"`
	Passed     bool     `json:"passed"`
	Duration   float64  `json:"duration"` // seconds
	Error      string   `json:"error,omitempty"`
}

type JSONTiming struct {
	Testbench string  `json:"testbench"`
	Samples   int     `json:"samples"`
	MinMs     float64 `json:"minMs"`
	MeanMs    float64 `json:"meanMs"`
	P95Ms     float64 `json:"p95Ms"`
	MaxMs     float64 `json:"maxMs"`
}

type JSONFormatter struct {
	writer  io.Writer
	version string
	runs    []JSONRun
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) { f.writer = w }
}

func (f *JSONFormatter) FormatHeader(version string) {
	f.version = version
}

func (f *JSONFormatter) FormatResult(r *runner.Result) {
	run := JSONRun{
		Testbench:  r.Testbench,
		Repetition: r.Repetition,
		Tests:      r.Tests,
		Passed:     r.Passed,
		Duration:   r.Duration.Seconds(),
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	f.runs = append(f.runs, run)
}

func (f *JSONFormatter) FormatSummary(s *runner.Summary, timings []report.Timing) error {
	out := JSONOutput{
		Version: f.version,
		Summary: JSONSummary{
			Total:    len(s.Results),
			Passed:   s.Passed,
			Failed:   s.Failed,
			Bailed:   s.Bailed,
			Duration: s.Duration.Seconds(),
		},
		Runs: f.runs,
		Time: time.Now().Format(time.RFC3339),
	}
	for _, tm := range timings {
		out.Timings = append(out.Timings, JSONTiming{
			Testbench: tm.Testbench,
			Samples:   tm.Samples,
			MinMs:     float64(tm.Min.Microseconds()) / 1000,
			MeanMs:    float64(tm.Mean.Microseconds()) / 1000,
			P95Ms:     float64(tm.P95.Microseconds()) / 1000,
			MaxMs:     float64(tm.Max.Microseconds()) / 1000,
		})
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	_ = json.NewEncoder(f.writer).Encode(map[string]string{"error": err.Error()})
}
