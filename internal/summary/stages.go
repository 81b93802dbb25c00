package summary

import (
	"cmp"
	"slices"
	"strings"

	"github.com/codewandler/glpipe/internal/models"
)

// canonicalStages are always listed first, in this order, when present
var canonicalStages = []string{"build", "test", "deploy", "cleanup"}

// OrderStages returns the distinct stage names: canonical stages first,
// then the others in first-seen order.
func OrderStages(names []string) []string {
	seen := make(map[string]bool, len(names))
	var rest []string
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if !slices.Contains(canonicalStages, n) {
			rest = append(rest, n)
		}
	}

	order := make([]string, 0, len(seen))
	for _, n := range canonicalStages {
		if seen[n] {
			order = append(order, n)
		}
	}
	return append(order, rest...)
}

// BuildSummary folds a pipeline's jobs into stage and pipeline statistics.
func BuildSummary(detail *models.PipelineDetail) *models.PipelineSummary {
	sum := &models.PipelineSummary{
		Pipeline:   detail.Pipeline,
		Total:      len(detail.Jobs),
		FailedJobs: []models.Job{},
		Stages:     make(map[string]*models.StageSummary),
		StageJobs:  make(map[string][]models.Job),
	}

	names := make([]string, 0, len(detail.Jobs))
	for _, job := range detail.Jobs {
		names = append(names, job.Stage)

		sum.Counts.Add(job.Status)
		if job.Status == models.StatusFailed {
			sum.FailedJobs = append(sum.FailedJobs, job)
		}

		st, ok := sum.Stages[job.Stage]
		if !ok {
			st = &models.StageSummary{Name: job.Stage}
			sum.Stages[job.Stage] = st
		}
		st.Total++
		st.Counts.Add(job.Status)
		sum.StageJobs[job.Stage] = append(sum.StageJobs[job.Stage], job)
	}

	sum.StageOrder = OrderStages(names)
	sum.Progress = models.NewProgress(sum.Counts.Completed(), sum.Total)
	return sum
}

// OrderedJobs returns the jobs grouped by stage in display order.
func OrderedJobs(sum *models.PipelineSummary) []models.Job {
	out := make([]models.Job, 0, sum.Total)
	for _, stage := range sum.StageOrder {
		out = append(out, sum.StageJobs[stage]...)
	}
	return out
}

// JobSort names a job ordering accepted by SortJobs
type JobSort string

const (
	SortByDuration JobSort = "duration"
	SortByName     JobSort = "name"
	SortByCreated  JobSort = "created"
)

// ParseJobSort validates a --sort value. Empty means no sorting.
func ParseJobSort(s string) (JobSort, bool) {
	switch JobSort(strings.ToLower(s)) {
	case "":
		return "", true
	case SortByDuration:
		return SortByDuration, true
	case SortByName:
		return SortByName, true
	case SortByCreated:
		return SortByCreated, true
	}
	return "", false
}

// FilterJobs keeps jobs matching status and stage; empty filters match everything.
func FilterJobs(jobs []models.Job, status, stage string) []models.Job {
	var out []models.Job
	for _, j := range jobs {
		if status != "" && j.Status != models.ParseStatus(status) {
			continue
		}
		if stage != "" && !strings.EqualFold(j.Stage, stage) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// SortJobs sorts in place: duration longest first (unknown last), name
// ascending, created oldest first.
func SortJobs(jobs []models.Job, by JobSort) {
	switch by {
	case SortByDuration:
		slices.SortStableFunc(jobs, func(a, b models.Job) int {
			switch {
			case a.Duration == nil && b.Duration == nil:
				return 0
			case a.Duration == nil:
				return 1
			case b.Duration == nil:
				return -1
			}
			return cmp.Compare(*b.Duration, *a.Duration)
		})
	case SortByName:
		slices.SortStableFunc(jobs, func(a, b models.Job) int {
			return strings.Compare(a.Name, b.Name)
		})
	case SortByCreated:
		slices.SortStableFunc(jobs, func(a, b models.Job) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
}
