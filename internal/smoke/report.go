package smoke

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Report aggregates check results.
type Report struct {
	Results   []Result
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

func (r *Report) add(results ...Result) {
	for _, res := range results {
		r.Results = append(r.Results, res)
		if res.Passed() {
			r.Passed++
		} else {
			r.Failed++
		}
	}
}

// Failures returns the failed results sorted by name.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Print writes a summary followed by one line per failure. With verbose
// set every result is listed.
func (r *Report) Print(w io.Writer, verbose bool) {
	if verbose {
		for _, res := range r.Results {
			mark := "ok  "
			if !res.Passed() {
				mark = "FAIL"
			}
			fmt.Fprintf(w, "%s %-6s %-70s %3d %s\n", mark, res.Method, res.Path, res.Status, res.Duration.Round(time.Millisecond))
		}
	}
	for _, res := range r.Failures() {
		fmt.Fprintf(w, "FAIL %s: %s %s: %v\n", res.Name, res.Method, res.Path, res.Err)
	}
	fmt.Fprintf(w, "\n%d checks, %d passed, %d failed in %s\n",
		len(r.Results), r.Passed, r.Failed, r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
}
