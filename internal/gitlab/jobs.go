package gitlab

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/codewandler/glpipe/internal/models"

	"github.com/xanzy/go-gitlab"
)

// GetJob fetches a single job
func (c *Client) GetJob(ctx context.Context, jobID int) (*models.Job, error) {
	j, _, err := c.gl.Jobs.GetJob(c.project, jobID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}
	job := jobFromAPI(j)
	return &job, nil
}

// GetJobTrace fetches the raw log output of a job
func (c *Client) GetJobTrace(ctx context.Context, jobID int) (string, error) {
	trace, _, err := c.gl.Jobs.GetTraceFile(c.project, jobID, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("get trace of job %d: %w", jobID, err)
	}

	var logs strings.Builder
	if _, err := io.Copy(&logs, trace); err != nil {
		return "", fmt.Errorf("read trace of job %d: %w", jobID, err)
	}
	return logs.String(), nil
}

func jobFromAPI(j *gitlab.Job) models.Job {
	job := models.Job{
		ID:            j.ID,
		PipelineID:    j.Pipeline.ID,
		Name:          j.Name,
		Stage:         j.Stage,
		Status:        models.ParseStatus(j.Status),
		AllowFailure:  j.AllowFailure,
		FailureReason: j.FailureReason,
		WebURL:        j.WebURL,
		StartedAt:     j.StartedAt,
		FinishedAt:    j.FinishedAt,
	}
	// GitLab reports 0 for jobs that never ran
	if j.StartedAt != nil {
		d := j.Duration
		job.Duration = &d
	}
	if j.CreatedAt != nil {
		job.CreatedAt = *j.CreatedAt
	}
	return job
}
