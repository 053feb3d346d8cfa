package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cocoreg/cocoreg/packages/core/runner"
	"github.com/cocoreg/cocoreg/packages/report"
)

// JUnit XML structures. One testsuite per regression run, one testcase per
// (testbench, repetition) invocation.

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Content string `xml:",chardata"`
}

type JUnitFormatter struct {
	writer io.Writer
	cases  []JUnitTestCase
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) { f.writer = w }
}

func (f *JUnitFormatter) FormatHeader(string) {}

func (f *JUnitFormatter) FormatResult(r *runner.Result) {
	tc := JUnitTestCase{
		Name:      fmt.Sprintf("%s[%d]", r.Testbench, r.Repetition),
		ClassName: r.Testbench,
		Time:      r.Duration.Seconds(),
	}
	if !r.Passed {
		failure := &JUnitFailure{Content: r.Output}
		if r.Err != nil {
			failure.Message = r.Err.Error()
		}
		tc.Failure = failure
	}
	f.cases = append(f.cases, tc)
}

func (f *JUnitFormatter) FormatSummary(s *runner.Summary, _ []report.Timing) error {
	suite := JUnitTestSuite{
		Name:      "cocoreg",
		Tests:     len(f.cases),
		Failures:  s.Failed,
		Time:      s.Duration.Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
		TestCases: f.cases,
	}

	if _, err := fmt.Fprint(f.writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f.writer)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

func (f *JUnitFormatter) FormatError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
