package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/summary"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"!12", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in, "pipeline id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidState(t *testing.T) {
	for _, s := range []string{"opened", "merged", "closed", "all"} {
		if !validState(s) {
			t.Errorf("validState(%q) = false", s)
		}
	}
	for _, s := range []string{"", "open", "OPENED", "locked"} {
		if validState(s) {
			t.Errorf("validState(%q) = true", s)
		}
	}
}

func TestParsePruneDate(t *testing.T) {
	got, err := parsePruneDate("2024-03-01")
	if err != nil {
		t.Fatalf("parsePruneDate: %v", err)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parsePruneDate = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "01.03.2024", "2024-13-01"} {
		if _, err := parsePruneDate(bad); err == nil {
			t.Errorf("parsePruneDate(%q) accepted", bad)
		}
	}
}

type fakeFailures map[int]*models.JobFailureReport

func (f fakeFailures) JobFailures(_ context.Context, id int) summary.Result[*models.JobFailureReport] {
	if r, ok := f[id]; ok {
		return summary.Result[*models.JobFailureReport]{Value: r}
	}
	return summary.Result[*models.JobFailureReport]{Err: errors.New("404 Not Found")}
}

func TestFetchFailures_KeepsOrder(t *testing.T) {
	src := fakeFailures{}
	var ids []int
	for id := 1; id <= 12; id++ {
		ids = append(ids, id)
		if id%3 != 0 {
			src[id] = &models.JobFailureReport{Job: models.Job{ID: id}}
		}
	}

	reports := fetchFailures(context.Background(), src, ids)

	var got []int
	for _, r := range reports {
		if r == nil {
			got = append(got, 0)
			continue
		}
		got = append(got, r.Job.ID)
	}
	want := []int{1, 2, 0, 4, 5, 0, 7, 8, 0, 10, 11, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}
}
