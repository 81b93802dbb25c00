package trace

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const pytestTrace = `$ pytest -q
collected 3 items

tests/test_api.py F.F

=================================== FAILURES ===================================
___________________________________ test_get ___________________________________

    def test_get():
>       assert client.get("/") == 200
E       AssertionError: assert 500 == 200

tests/test_api.py:12: AssertionError
----------------------------- Captured stderr call -----------------------------
connection refused
retrying
=========================== short test summary info ============================
FAILED tests/test_api.py::test_get - AssertionError: assert 500 == 200
FAILED tests/test_api.py::test_put - KeyError: 'id'
========================= 2 failed, 1 passed in 0.12s ==========================
ERROR: Job failed: exit code 1
`

func TestExtract_ShortSummaryOnly(t *testing.T) {
	text := "===== short test summary info =====\nFAILED test_a\nFAILED test_b\n===== end ====="

	got := Extract(text)

	if diff := cmp.Diff([]string{"FAILED test_a", "FAILED test_b"}, got.FailedTests()); diff != "" {
		t.Errorf("FailedTests() mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(got.ShortSummary, "end") {
		t.Errorf("ShortSummary ran past the closing heading: %q", got.ShortSummary)
	}
	if got.DetailedFailures != "" {
		t.Errorf("DetailedFailures = %q, want empty", got.DetailedFailures)
	}
	if got.CapturedStderr != "" {
		t.Errorf("CapturedStderr = %q, want empty", got.CapturedStderr)
	}
}

func TestExtract_PytestTrace(t *testing.T) {
	got := Extract(pytestTrace)

	if !strings.HasPrefix(got.DetailedFailures, "=================================== FAILURES") {
		t.Errorf("DetailedFailures should start with its heading, got %q", got.DetailedFailures)
	}
	if !strings.Contains(got.DetailedFailures, "AssertionError: assert 500 == 200") {
		t.Errorf("DetailedFailures missing assertion: %q", got.DetailedFailures)
	}
	if strings.Contains(got.DetailedFailures, "Captured stderr call") {
		t.Errorf("DetailedFailures should stop before the stderr heading: %q", got.DetailedFailures)
	}
	if got.CapturedStderr != "connection refused\nretrying" {
		t.Errorf("CapturedStderr = %q", got.CapturedStderr)
	}
	if n := len(got.FailedTests()); n != 2 {
		t.Errorf("FailedTests() returned %d lines, want 2", n)
	}
	if strings.Contains(got.ShortSummary, "2 failed, 1 passed") {
		t.Errorf("ShortSummary should stop at the next heading: %q", got.ShortSummary)
	}
	last := got.ErrorLines[len(got.ErrorLines)-1]
	if last != "ERROR: Job failed: exit code 1" {
		t.Errorf("last error line = %q", last)
	}
}

func TestExtract_FailuresRunToEndWithoutStderr(t *testing.T) {
	text := "==== FAILURES ====\ntest_x\nassert False\n==== short test summary info ====\nFAILED test_x"

	got := Extract(text)

	if !strings.HasSuffix(got.DetailedFailures, "FAILED test_x") {
		t.Errorf("DetailedFailures should run to the end of the trace, got %q", got.DetailedFailures)
	}
	if got.ShortSummary != "==== short test summary info ====\nFAILED test_x" {
		t.Errorf("ShortSummary = %q", got.ShortSummary)
	}
}

func TestExtract_NoHeadings(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "step %d: error while compiling\n", i)
		b.WriteString("all good here\n")
	}

	got := Extract(b.String())

	if got.HasStructured() {
		t.Errorf("expected no structured blocks, got %+v", got)
	}
	if len(got.ErrorLines) != 20 {
		t.Fatalf("len(ErrorLines) = %d, want 20", len(got.ErrorLines))
	}
	if got.ErrorLines[0] != "step 0: error while compiling" {
		t.Errorf("ErrorLines[0] = %q", got.ErrorLines[0])
	}
	if got.ErrorLines[19] != "step 19: error while compiling" {
		t.Errorf("ErrorLines[19] = %q", got.ErrorLines[19])
	}
}

func TestExtract_Empty(t *testing.T) {
	got := Extract("")
	if !got.IsEmpty() {
		t.Errorf("Extract(\"\") = %+v, want empty", got)
	}
}

func TestErrorLineKeywords(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Traceback (most recent call last):", true},
		{"ValueError: bad", true},
		{"RuntimeException thrown", true},
		{"1 FAILED", true},
		{"Job succeeded", false},
		{"warning: deprecated", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := len(Extract(tt.line).ErrorLines) == 1
			if got != tt.want {
				t.Errorf("error line %q matched = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ansi colours", "\x1b[31;1mERROR\x1b[0m done", "ERROR done"},
		{"crlf", "a\r\nb", "a\nb"},
		{"bare cr", "a\rb", "a\nb"},
		{
			"section markers",
			"\x1b[0Ksection_start:1700000000:step_script\r\x1b[0KExecuting step\nsection_end:1700000001:step_script\r\x1b[0K",
			"Executing step\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtract_ColouredHeadings(t *testing.T) {
	text := "\x1b[31m===== short test summary info =====\x1b[0m\r\nFAILED test_a\r\n"
	got := Extract(text)
	if diff := cmp.Diff([]string{"FAILED test_a"}, got.FailedTests()); diff != "" {
		t.Errorf("FailedTests() mismatch (-want +got):\n%s", diff)
	}
}
