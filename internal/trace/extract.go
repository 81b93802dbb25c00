// Package trace turns raw CI job logs into structured failure extracts.
package trace

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/codewandler/glpipe/internal/models"
)

// sectionMarkerRegex matches the collapsible section markers GitLab writes into traces,
// e.g. "section_start:1700000000:step_script[collapsed=true]\r"
var sectionMarkerRegex = regexp.MustCompile(`section_(?:start|end):\d+:[^\s\r]*\r?`)

var (
	shortSummaryHeader = regexp.MustCompile(`(?i)^=+\s*short test summary info\s*=+\s*$`)
	failuresHeader     = regexp.MustCompile(`^=+\s*FAILURES\s*=+\s*$`)
	stderrHeading      = regexp.MustCompile(`^[-=]+\s*Captured stderr call\s*[-=]+`)
	stderrHeader       = regexp.MustCompile(`^-{5,}\s*Captured stderr call\s*-{5,}\s*$`)
)

var errorKeywords = []string{"error", "failed", "exception", "traceback"}

// section describes one block of a test runner's output. A block starts at
// the first line matching start and runs up to (not including) the first
// following line for which stop returns true, or to the end of the trace.
type section struct {
	start      *regexp.Regexp
	stop       func(line string) bool
	keepHeader bool
	assign     func(f *models.FailureExtract, block string)
}

func startsWithEquals(line string) bool {
	return strings.HasPrefix(line, "=")
}

// sections are independent of each other; each one scans the whole trace.
var sections = []section{
	{
		start:      shortSummaryHeader,
		stop:       startsWithEquals,
		keepHeader: true,
		assign:     func(f *models.FailureExtract, b string) { f.ShortSummary = b },
	},
	{
		start:      failuresHeader,
		stop:       stderrHeading.MatchString,
		keepHeader: true,
		assign:     func(f *models.FailureExtract, b string) { f.DetailedFailures = b },
	},
	{
		start:  stderrHeader,
		stop:   startsWithEquals,
		assign: func(f *models.FailureExtract, b string) { f.CapturedStderr = b },
	},
}

// Normalize strips terminal escapes and GitLab section markers and folds
// carriage returns into newlines.
func Normalize(text string) string {
	text = ansi.Strip(text)
	text = sectionMarkerRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Extract parses a job trace. Missing blocks are left empty; it never fails.
func Extract(text string) models.FailureExtract {
	lines := strings.Split(Normalize(text), "\n")

	var f models.FailureExtract
	for _, s := range sections {
		if block, ok := s.find(lines); ok {
			s.assign(&f, block)
		}
	}
	f.ErrorLines = errorLines(lines, models.MaxErrorLines)
	return f
}

func (s section) find(lines []string) (string, bool) {
	for i, line := range lines {
		if !s.start.MatchString(line) {
			continue
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if s.stop(lines[j]) {
				end = j
				break
			}
		}
		from := i
		if !s.keepHeader {
			from = i + 1
		}
		block := strings.TrimSpace(strings.Join(lines[from:end], "\n"))
		return block, block != ""
	}
	return "", false
}

func errorLines(lines []string, limit int) []string {
	var out []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, kw := range errorKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, strings.TrimSpace(line))
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}
