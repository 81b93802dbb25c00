package models

import "time"

// PipelineRef points at a pipeline without carrying its jobs
type PipelineRef struct {
	ID     int    `json:"id"`
	Status Status `json:"status"`
}

// MergeRequest represents a merge request and its head pipeline
type MergeRequest struct {
	ID           int          `json:"id"`
	IID          int          `json:"iid"`
	Title        string       `json:"title"`
	State        string       `json:"state"` // opened, merged, closed, locked
	Author       string       `json:"author"`
	SourceBranch string       `json:"source_branch"`
	TargetBranch string       `json:"target_branch"`
	WebURL       string       `json:"web_url"`
	HasConflicts bool         `json:"has_conflicts"`
	MergeStatus  string       `json:"merge_status"`
	HeadPipeline *PipelineRef `json:"head_pipeline,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
