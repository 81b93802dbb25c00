package tui

import (
	"fmt"
	"time"

	"github.com/codewandler/glpipe/internal/models"
)

// view is the closed set of screens a frame can show. Each variant is
// reloaded by Engine.load through a type switch.
type view interface {
	title() string
	sealed()
}

type pipelineFilter struct {
	ref  string
	user string
}

func (f pipelineFilter) String() string {
	switch {
	case f.ref != "" && f.user != "":
		return fmt.Sprintf("ref=%s user=%s", f.ref, f.user)
	case f.ref != "":
		return "ref=" + f.ref
	case f.user != "":
		return "user=" + f.user
	}
	return ""
}

type pipelineListView struct {
	filter pipelineFilter
	rows   []models.Pipeline
}

type jobListView struct {
	pipeline models.Pipeline
	summary  *models.PipelineSummary
	rows     []models.Job // stage display order
}

type jobDetailView struct {
	job          models.Job
	trace        string
	extract      *models.FailureExtract // set for failed jobs
	failuresOnly bool
}

type failedJobEntry struct {
	job     models.Job
	extract models.FailureExtract
	err     error
}

type failedJobsView struct {
	pipeline models.Pipeline
	jobs     []models.Job
	entries  []failedJobEntry
}

func (*pipelineListView) sealed() {}
func (*jobListView) sealed()      {}
func (*jobDetailView) sealed()    {}
func (*failedJobsView) sealed()   {}

func (v *pipelineListView) title() string {
	if s := v.filter.String(); s != "" {
		return "Pipelines (" + s + ")"
	}
	return "Pipelines"
}

func (v *jobListView) title() string {
	return fmt.Sprintf("Pipeline #%d (%s)", v.pipeline.ID, v.pipeline.Ref)
}

func (v *jobDetailView) title() string {
	return fmt.Sprintf("Job #%d %s", v.job.ID, v.job.Name)
}

func (v *failedJobsView) title() string {
	return fmt.Sprintf("Failed jobs of #%d", v.pipeline.ID)
}

// frame is one entry of the navigation stack
type frame struct {
	id       string
	view     view
	cursor   int
	loading  bool
	loaded   bool // at least one load has completed
	err      error
	loadedAt time.Time
	version  int // bumped whenever displayed data changes
}

func (f *frame) rowCount() int {
	switch v := f.view.(type) {
	case *pipelineListView:
		return len(v.rows)
	case *jobListView:
		return len(v.rows)
	case *failedJobsView:
		return len(v.entries)
	}
	return 0
}

func (f *frame) clampCursor() {
	n := f.rowCount()
	if f.cursor >= n {
		f.cursor = n - 1
	}
	if f.cursor < 0 {
		f.cursor = 0
	}
}
