package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"success", StatusSuccess},
		{"FAILED", StatusFailed},
		{" canceled ", StatusCanceled},
		{"manual", StatusManual},
		{"waiting_for_resource", StatusPending},
		{"preparing", StatusPending},
		{"scheduled", StatusPending},
		{"canceling", StatusRunning},
		{"", StatusUnknown},
		{"bogus", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseStatus(tt.in); got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusSuccess:  true,
		StatusFailed:   true,
		StatusCanceled: true,
		StatusSkipped:  true,
	}
	for _, s := range []Status{StatusCreated, StatusPending, StatusRunning, StatusSuccess,
		StatusFailed, StatusCanceled, StatusSkipped, StatusManual, StatusUnknown} {
		if got := s.IsTerminal(); got != terminal[s] {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestNewProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{199, 200, 99},
	}
	for _, tt := range tests {
		if got := NewProgress(tt.completed, tt.total).Percentage; got != tt.want {
			t.Errorf("NewProgress(%d, %d).Percentage = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestStatusCountsSum(t *testing.T) {
	var c StatusCounts
	all := []Status{StatusCreated, StatusPending, StatusRunning, StatusSuccess,
		StatusFailed, StatusCanceled, StatusSkipped, StatusManual, StatusUnknown, Status("odd")}
	for _, s := range all {
		c.Add(s)
	}
	if c.Sum() != len(all) {
		t.Errorf("Sum() = %d, want %d", c.Sum(), len(all))
	}
	if c.Completed() != 4 {
		t.Errorf("Completed() = %d, want 4", c.Completed())
	}
	if c.Get(StatusUnknown) != 2 {
		t.Errorf("Get(unknown) = %d, want 2", c.Get(StatusUnknown))
	}
}

func TestFailedTests(t *testing.T) {
	f := FailureExtract{ShortSummary: "=== short test summary info ===\nFAILED a.py::t1\n  FAILED b.py::t2 - boom\nERROR c.py"}
	got := f.FailedTests()
	if len(got) != 2 || got[0] != "FAILED a.py::t1" || got[1] != "FAILED b.py::t2 - boom" {
		t.Errorf("FailedTests() = %q", got)
	}
}
