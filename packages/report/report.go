// Package report computes duration statistics over a regression's results.
// With repetition enabled a testbench produces several samples, and the
// spread between them is usually more interesting than any single value.
package report

import (
	"sort"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// Histograms track microseconds; an hour per invocation is far beyond any
// value worth distinguishing precisely.
const maxTrackable = int64(time.Hour / time.Microsecond)

// Timing summarizes the invocation durations recorded for one testbench.
type Timing struct {
	Testbench string
	Samples   int
	Min       time.Duration
	Mean      time.Duration
	P95       time.Duration
	Max       time.Duration
}

// Sample is one (testbench, duration) observation.
type Sample struct {
	Testbench string
	Duration  time.Duration
}

// Timings aggregates samples per testbench, returned in testbench name
// order.
func Timings(samples []Sample) []Timing {
	byTB := make(map[string]*hdrhistogram.Histogram)
	for _, s := range samples {
		h, ok := byTB[s.Testbench]
		if !ok {
			h = hdrhistogram.New(1, maxTrackable, 3)
			byTB[s.Testbench] = h
		}
		us := s.Duration.Microseconds()
		if us < 1 {
			us = 1
		}
		_ = h.RecordValue(us)
	}

	names := make([]string, 0, len(byTB))
	for name := range byTB {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Timing, 0, len(names))
	for _, name := range names {
		h := byTB[name]
		out = append(out, Timing{
			Testbench: name,
			Samples:   int(h.TotalCount()),
			Min:       time.Duration(h.Min()) * time.Microsecond,
			Mean:      time.Duration(int64(h.Mean())) * time.Microsecond,
			P95:       time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			Max:       time.Duration(h.Max()) * time.Microsecond,
		})
	}
	return out
}
