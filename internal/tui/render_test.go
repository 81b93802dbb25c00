package tui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/summary"
)

// stagedJobs returns n jobs spread over stages of perStage jobs each.
func stagedJobs(n, perStage int) []models.Job {
	jobs := make([]models.Job, n)
	for i := range jobs {
		jobs[i] = models.Job{
			ID:     i + 1,
			Name:   fmt.Sprintf("job-%d", i),
			Stage:  fmt.Sprintf("stage-%02d", i/perStage),
			Status: models.StatusSuccess,
		}
	}
	return jobs
}

func TestJobWindow_FitsHeaders(t *testing.T) {
	tests := []struct {
		name     string
		jobs     int
		perStage int
		height   int
	}{
		{"header per job", 12, 1, 6},
		{"two jobs per stage", 12, 2, 5},
		{"single stage", 12, 12, 4},
		{"everything fits", 3, 1, 10},
		{"one line", 5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := stagedJobs(tt.jobs, tt.perStage)
			for cursor := range rows {
				start, end := jobWindow(cursor, rows, tt.height)
				if cursor < start || cursor >= end {
					t.Fatalf("cursor %d outside window [%d,%d)", cursor, start, end)
				}
				if lines := jobLines(rows, start, end); lines > tt.height && end-start > 1 {
					t.Errorf("cursor %d: window [%d,%d) needs %d lines, height %d", cursor, start, end, lines, tt.height)
				}
			}
		})
	}
}

func TestRenderJobList_StaysWithinHeight(t *testing.T) {
	detail := &models.PipelineDetail{
		Pipeline: models.Pipeline{ID: 7, Ref: "main", Status: models.StatusSuccess},
		Jobs:     stagedJobs(20, 1),
	}
	sum := summary.BuildSummary(detail)
	v := &jobListView{pipeline: detail.Pipeline, summary: sum, rows: summary.OrderedJobs(sum)}

	const height = 8
	for cursor := range v.rows {
		f := &frame{view: v, cursor: cursor, loaded: true}
		out := renderJobList(f, v, 100, height)
		if lines := strings.Count(out, "\n") + 1; lines > height {
			t.Fatalf("cursor %d: rendered %d lines, height %d", cursor, lines, height)
		}
		if !strings.Contains(out, v.rows[cursor].Name+" ") {
			t.Errorf("cursor %d: selected job %q not rendered", cursor, v.rows[cursor].Name)
		}
	}
}
