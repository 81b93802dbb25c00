package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state shared by pipelines and jobs
type Status string

const (
	StatusCreated  Status = "created"
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
	StatusManual   Status = "manual"
	StatusUnknown  Status = "unknown"
)

// ParseStatus maps a GitLab status string onto the known status set.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusCreated, StatusPending, StatusRunning, StatusSuccess, StatusFailed,
		StatusCanceled, StatusSkipped, StatusManual:
		return st
	case "preparing", "waiting_for_resource", "scheduled":
		return StatusPending
	case "canceling":
		return StatusRunning
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCanceled, StatusSkipped:
		return true
	}
	return false
}

// Pipeline represents a CI pipeline
type Pipeline struct {
	ID         int        `json:"id"`
	IID        int        `json:"iid"`
	ProjectID  int        `json:"project_id"`
	Status     Status     `json:"status"`
	Source     string     `json:"source,omitempty"`
	Ref        string     `json:"ref"`
	SHA        string     `json:"sha"`
	User       string     `json:"user,omitempty"`
	WebURL     string     `json:"web_url"`
	Duration   int        `json:"duration"` // seconds
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ShortSHA returns the abbreviated commit hash
func (p Pipeline) ShortSHA() string {
	if len(p.SHA) > 8 {
		return p.SHA[:8]
	}
	return p.SHA
}

// Job represents a job within a pipeline
type Job struct {
	ID            int        `json:"id"`
	PipelineID    int        `json:"pipeline_id"`
	Name          string     `json:"name"`
	Stage         string     `json:"stage"`
	Status        Status     `json:"status"`
	Duration      *float64   `json:"duration,omitempty"` // seconds, nil when never started
	AllowFailure  bool       `json:"allow_failure,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	WebURL        string     `json:"web_url"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// PipelineDetail is a pipeline together with all of its jobs
type PipelineDetail struct {
	Pipeline Pipeline `json:"pipeline"`
	Jobs     []Job    `json:"jobs"`
}
