package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/codewandler/glpipe/internal/models"
)

const (
	batchTestLimit    = 5
	condensedErrLimit = 10
)

// PrintJobFailures shows what went wrong in a job. The condensed form lists
// failed tests, or error lines when the trace has no test summary; verbose
// renders every extracted block as markdown.
func PrintJobFailures(w io.Writer, r *models.JobFailureReport, verbose bool) {
	j := r.Job
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "Job %d: %s\n", j.ID, j.Name)
	printField(w, "Status", fmt.Sprintf("%s | Stage: %s", statusText(j.Status), j.Stage))
	printField(w, "Duration", FormatDuration(j.Duration))
	if j.FailureReason != "" {
		printField(w, "Reason", j.FailureReason)
	}
	printField(w, "URL", hyperlink(j.WebURL, j.WebURL))
	fmt.Fprintln(w, strings.Repeat("─", 80))

	ex := r.Extract
	if ex.IsEmpty() {
		dimColor.Fprintln(w, "No failure details found in trace")
		return
	}

	if verbose {
		fmt.Fprintln(w, renderMarkdown(FailureMarkdown(ex)))
		return
	}

	if tests := ex.FailedTests(); len(tests) > 0 {
		sectionColor.Fprintln(w, "\n📋 Test Failures:")
		for _, line := range tests {
			fmt.Fprintf(w, "  • %s\n", line)
		}
		return
	}
	if ex.ShortSummary == "" && len(ex.ErrorLines) > 0 {
		sectionColor.Fprintln(w, "\n⚠️  Error Lines:")
		for _, line := range ex.ErrorLines[:min(len(ex.ErrorLines), condensedErrLimit)] {
			fmt.Fprintf(w, "  • %s\n", strings.TrimSpace(line))
		}
		return
	}
	dimColor.Fprintln(w, "No failed tests listed; use --verbose for the full report")
}

// FailureMarkdown formats an extract as a markdown document.
func FailureMarkdown(ex models.FailureExtract) string {
	var b strings.Builder
	block := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n```\n%s\n```\n\n", title, strings.TrimRight(body, "\n"))
	}
	block("📋 Short Test Summary", ex.ShortSummary)
	block("❌ Detailed Failures", ex.DetailedFailures)
	block("⚠️ Captured Stderr", ex.CapturedStderr)
	if !ex.HasStructured() {
		block("Error Lines", strings.Join(ex.ErrorLines, "\n"))
	}
	return b.String()
}

// BatchLines condenses an extract for batch output: at most limit failed
// tests plus a count of the rest, or the first error lines when no test
// summary exists.
func BatchLines(ex models.FailureExtract, limit int) (lines []string, more int) {
	if tests := ex.FailedTests(); len(tests) > 0 {
		if len(tests) > limit {
			return tests[:limit], len(tests) - limit
		}
		return tests, 0
	}
	for _, line := range ex.ErrorLines {
		if len(lines) == limit {
			break
		}
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	return lines, 0
}

// PrintBatchFailure prints one job of a batch-failures run. A nil report
// means the job could not be fetched.
func PrintBatchFailure(w io.Writer, jobID int, r *models.JobFailureReport) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	if r == nil {
		PrintCouldNotFetch(w, "job", jobID)
		return
	}

	j := r.Job
	headerColor.Fprintf(w, "Job %d: %s\n", j.ID, j.Name)
	fmt.Fprintf(w, "Status: %s | Duration: %s\n", statusText(j.Status), FormatDuration(j.Duration))

	lines, more := BatchLines(r.Extract, batchTestLimit)
	if len(lines) == 0 {
		dimColor.Fprintln(w, "No failure details found")
		return
	}
	if len(r.Extract.FailedTests()) > 0 {
		fmt.Fprintln(w, "Failed tests:")
	} else {
		fmt.Fprintln(w, "Error lines:")
	}
	for _, line := range lines {
		fmt.Fprintf(w, "  • %s\n", line)
	}
	if more > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", more)
	}
}
