package gitlab

import (
	"context"
	"fmt"

	"github.com/codewandler/glpipe/internal/models"

	"github.com/xanzy/go-gitlab"
)

// ListPipelinesOptions configures the pipeline list query
type ListPipelinesOptions struct {
	Ref      string // branch or tag name
	Username string // user who triggered the pipeline
	Status   string // running, pending, success, failed, canceled, skipped, manual, created
	Limit    int
}

// ListPipelines fetches the most recent pipelines of the project, newest first
func (c *Client) ListPipelines(ctx context.Context, opts ListPipelinesOptions) ([]models.Pipeline, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	listOpts := &gitlab.ListProjectPipelinesOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: min(opts.Limit, 100),
			Page:    1,
		},
		OrderBy: gitlab.Ptr("id"),
		Sort:    gitlab.Ptr("desc"),
	}
	if opts.Ref != "" {
		listOpts.Ref = gitlab.Ptr(opts.Ref)
	}
	if opts.Username != "" {
		listOpts.Username = gitlab.Ptr(opts.Username)
	}
	if opts.Status != "" {
		listOpts.Status = gitlab.Ptr(gitlab.BuildStateValue(opts.Status))
	}

	var result []models.Pipeline

	for {
		pipelines, resp, err := c.gl.Pipelines.ListProjectPipelines(c.project, listOpts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list pipelines: %w", err)
		}

		for _, p := range pipelines {
			result = append(result, pipelineFromInfo(p))
			if len(result) >= opts.Limit {
				return result, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	return result, nil
}

// GetPipeline fetches a single pipeline
func (c *Client) GetPipeline(ctx context.Context, pipelineID int) (*models.Pipeline, error) {
	p, _, err := c.gl.Pipelines.GetPipeline(c.project, pipelineID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get pipeline %d: %w", pipelineID, err)
	}
	pipeline := pipelineFromAPI(p)
	return &pipeline, nil
}

// ListPipelineJobs fetches every job of a pipeline, following pagination
func (c *Client) ListPipelineJobs(ctx context.Context, pipelineID int) ([]models.Job, error) {
	opts := &gitlab.ListJobsOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: 100,
			Page:    1,
		},
	}

	var result []models.Job

	for {
		jobs, resp, err := c.gl.Jobs.ListPipelineJobs(c.project, pipelineID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list jobs of pipeline %d: %w", pipelineID, err)
		}

		for _, j := range jobs {
			result = append(result, jobFromAPI(j))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

func pipelineFromAPI(p *gitlab.Pipeline) models.Pipeline {
	pl := models.Pipeline{
		ID:         p.ID,
		IID:        p.IID,
		ProjectID:  p.ProjectID,
		Status:     models.ParseStatus(p.Status),
		Source:     string(p.Source),
		Ref:        p.Ref,
		SHA:        p.SHA,
		WebURL:     p.WebURL,
		Duration:   p.Duration,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
	}
	if p.User != nil {
		pl.User = p.User.Username
	}
	if p.CreatedAt != nil {
		pl.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		pl.UpdatedAt = *p.UpdatedAt
	}
	return pl
}

func pipelineFromInfo(p *gitlab.PipelineInfo) models.Pipeline {
	pl := models.Pipeline{
		ID:        p.ID,
		IID:       p.IID,
		ProjectID: p.ProjectID,
		Status:    models.ParseStatus(p.Status),
		Source:    string(p.Source),
		Ref:       p.Ref,
		SHA:       p.SHA,
		WebURL:    p.WebURL,
	}
	if p.CreatedAt != nil {
		pl.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		pl.UpdatedAt = *p.UpdatedAt
	}
	return pl
}
