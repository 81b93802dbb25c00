package models

import "strings"

// MaxErrorLines caps FailureExtract.ErrorLines
const MaxErrorLines = 20

// FailureExtract is the structured view of a job trace. Empty strings mean
// the block was not found.
type FailureExtract struct {
	ShortSummary     string   `json:"short_summary,omitempty"`
	DetailedFailures string   `json:"detailed_failures,omitempty"`
	CapturedStderr   string   `json:"captured_stderr,omitempty"`
	ErrorLines       []string `json:"error_lines,omitempty"`
}

// HasStructured reports whether any test-runner block was recognised
func (f FailureExtract) HasStructured() bool {
	return f.ShortSummary != "" || f.DetailedFailures != "" || f.CapturedStderr != ""
}

// IsEmpty reports whether nothing at all was extracted
func (f FailureExtract) IsEmpty() bool {
	return !f.HasStructured() && len(f.ErrorLines) == 0
}

// FailedTests returns the FAILED lines of the short summary
func (f FailureExtract) FailedTests() []string {
	var out []string
	for _, line := range strings.Split(f.ShortSummary, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "FAILED") {
			out = append(out, line)
		}
	}
	return out
}

// JobFailureReport pairs a job with the failures found in its trace
type JobFailureReport struct {
	Job     Job            `json:"job"`
	Extract FailureExtract `json:"extract"`
}
