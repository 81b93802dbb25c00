package summary

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestOrderStages(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"empty", nil, []string{}},
		{"canonical reordered", []string{"deploy", "test", "build"}, []string{"build", "test", "deploy"}},
		{"custom after canonical", []string{"lint", "test", "package", "build", "lint"}, []string{"build", "test", "lint", "package"}},
		{"cleanup last canonical", []string{"cleanup", "e2e", "deploy"}, []string{"deploy", "cleanup", "e2e"}},
		{"only custom", []string{"z", "a", "z", "m"}, []string{"z", "a", "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, OrderStages(tt.names)); diff != "" {
				t.Errorf("OrderStages(%q) mismatch (-want +got):\n%s", tt.names, diff)
			}
		})
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	sum := BuildSummary(&models.PipelineDetail{Pipeline: models.Pipeline{ID: 1}})

	if sum.Total != 0 || sum.Progress.Percentage != 0 || sum.Progress.Completed != 0 {
		t.Errorf("empty summary = %+v", sum)
	}
	if len(sum.StageOrder) != 0 || len(sum.Stages) != 0 {
		t.Errorf("empty summary has stages: %+v", sum.StageOrder)
	}
}

func TestBuildSummary_AllCompleted(t *testing.T) {
	jobs := []models.Job{
		{Stage: "build", Status: models.StatusSuccess},
		{Stage: "test", Status: models.StatusFailed},
		{Stage: "test", Status: models.StatusSkipped},
		{Stage: "deploy", Status: models.StatusCanceled},
	}
	sum := BuildSummary(&models.PipelineDetail{Jobs: jobs})

	if sum.Progress.Percentage != 100 {
		t.Errorf("Percentage = %d, want 100", sum.Progress.Percentage)
	}
	if sum.Stages["test"].Total != 2 || sum.Stages["test"].Completed() != 2 {
		t.Errorf("test stage = %+v", sum.Stages["test"])
	}
}

func TestBuildSummary_Invariants(t *testing.T) {
	statuses := []models.Status{models.StatusCreated, models.StatusPending, models.StatusRunning,
		models.StatusSuccess, models.StatusFailed, models.StatusCanceled, models.StatusSkipped,
		models.StatusManual, models.StatusUnknown}
	stages := []string{"build", "test", "deploy", "cleanup", "lint", "e2e"}
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		jobs := make([]models.Job, n)
		for i := range jobs {
			jobs[i] = models.Job{
				ID:     i,
				Stage:  stages[rng.Intn(len(stages))],
				Status: statuses[rng.Intn(len(statuses))],
			}
		}
		sum := BuildSummary(&models.PipelineDetail{Jobs: jobs})

		seen := 0
		for _, name := range sum.StageOrder {
			st := sum.Stages[name]
			if st.Counts.Sum() != st.Total {
				t.Fatalf("round %d: stage %s counts sum %d != total %d", round, name, st.Counts.Sum(), st.Total)
			}
			if len(sum.StageJobs[name]) != st.Total {
				t.Fatalf("round %d: stage %s has %d jobs, total %d", round, name, len(sum.StageJobs[name]), st.Total)
			}
			seen += st.Total
		}
		if seen != n || sum.Total != n {
			t.Fatalf("round %d: stage totals %d, summary total %d, want %d", round, seen, sum.Total, n)
		}
		if sum.Progress.Completed > sum.Total {
			t.Fatalf("round %d: completed %d > total %d", round, sum.Progress.Completed, sum.Total)
		}
		if sum.Counts.Failed != len(sum.FailedJobs) {
			t.Fatalf("round %d: %d failed jobs listed, %d counted", round, len(sum.FailedJobs), sum.Counts.Failed)
		}
		if len(OrderedJobs(sum)) != n {
			t.Fatalf("round %d: OrderedJobs returned %d jobs", round, len(OrderedJobs(sum)))
		}
	}
}

func ptr(f float64) *float64 { return &f }

func TestFilterAndSortJobs(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []models.Job{
		{Name: "unit", Stage: "test", Status: models.StatusFailed, Duration: ptr(30), CreatedAt: base.Add(2 * time.Minute)},
		{Name: "compile", Stage: "build", Status: models.StatusSuccess, Duration: ptr(90), CreatedAt: base},
		{Name: "deploy", Stage: "deploy", Status: models.StatusManual, CreatedAt: base.Add(3 * time.Minute)},
		{Name: "e2e", Stage: "Test", Status: models.StatusFailed, Duration: ptr(120), CreatedAt: base.Add(time.Minute)},
	}
	names := func(js []models.Job) []string {
		var out []string
		for _, j := range js {
			out = append(out, j.Name)
		}
		return out
	}

	tests := []struct {
		status, stage string
		by            JobSort
		want          []string
	}{
		{"", "", "", []string{"unit", "compile", "deploy", "e2e"}},
		{"failed", "", SortByName, []string{"e2e", "unit"}},
		{"", "test", SortByDuration, []string{"e2e", "unit"}},
		{"", "", SortByDuration, []string{"e2e", "compile", "unit", "deploy"}},
		{"", "", SortByCreated, []string{"compile", "e2e", "unit", "deploy"}},
		{"SUCCESS", "build", "", []string{"compile"}},
		{"running", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%s", tt.status, tt.stage, tt.by), func(t *testing.T) {
			got := FilterJobs(jobs, tt.status, tt.stage)
			SortJobs(got, tt.by)
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJobSort(t *testing.T) {
	for _, in := range []string{"", "duration", "NAME", "created"} {
		if _, ok := ParseJobSort(in); !ok {
			t.Errorf("ParseJobSort(%q) rejected", in)
		}
	}
	if _, ok := ParseJobSort("size"); ok {
		t.Error("ParseJobSort(\"size\") accepted")
	}
}
