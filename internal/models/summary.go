package models

// StatusCounts holds one counter per status
type StatusCounts struct {
	Created  int `json:"created"`
	Pending  int `json:"pending"`
	Running  int `json:"running"`
	Success  int `json:"success"`
	Failed   int `json:"failed"`
	Canceled int `json:"canceled"`
	Skipped  int `json:"skipped"`
	Manual   int `json:"manual"`
	Unknown  int `json:"unknown"`
}

// Add increments the bucket for s
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusCreated:
		c.Created++
	case StatusPending:
		c.Pending++
	case StatusRunning:
		c.Running++
	case StatusSuccess:
		c.Success++
	case StatusFailed:
		c.Failed++
	case StatusCanceled:
		c.Canceled++
	case StatusSkipped:
		c.Skipped++
	case StatusManual:
		c.Manual++
	default:
		c.Unknown++
	}
}

// Get returns the count for s
func (c StatusCounts) Get(s Status) int {
	switch s {
	case StatusCreated:
		return c.Created
	case StatusPending:
		return c.Pending
	case StatusRunning:
		return c.Running
	case StatusSuccess:
		return c.Success
	case StatusFailed:
		return c.Failed
	case StatusCanceled:
		return c.Canceled
	case StatusSkipped:
		return c.Skipped
	case StatusManual:
		return c.Manual
	default:
		return c.Unknown
	}
}

// Completed counts jobs in a terminal status
func (c StatusCounts) Completed() int {
	return c.Success + c.Failed + c.Canceled + c.Skipped
}

// Sum totals every bucket
func (c StatusCounts) Sum() int {
	return c.Created + c.Pending + c.Running + c.Completed() + c.Manual + c.Unknown
}

// StageSummary aggregates the jobs of a single stage
type StageSummary struct {
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Counts StatusCounts `json:"counts"`
}

// Completed counts the stage's jobs in a terminal status
func (s StageSummary) Completed() int {
	return s.Counts.Completed()
}

// Progress describes how far a pipeline has come
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NewProgress computes floor(100*completed/total), 0 for an empty pipeline
func NewProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = completed * 100 / total
	}
	return p
}

// PipelineSummary is derived from a PipelineDetail and never stored
type PipelineSummary struct {
	Pipeline   Pipeline                 `json:"pipeline"`
	Total      int                      `json:"total"`
	Counts     StatusCounts             `json:"counts"`
	FailedJobs []Job                    `json:"failed_jobs"`
	StageOrder []string                 `json:"stage_order"`
	Stages     map[string]*StageSummary `json:"stages"`
	StageJobs  map[string][]Job         `json:"stage_jobs"`
	Progress   Progress                 `json:"progress"`
}
