package gitlab

import (
	"context"
	"fmt"

	"github.com/codewandler/glpipe/internal/models"

	"github.com/xanzy/go-gitlab"
)

// ListBranchMergeRequests fetches the merge requests whose source branch is branch.
// state is one of opened, merged, closed or all.
func (c *Client) ListBranchMergeRequests(ctx context.Context, branch, state string) ([]models.MergeRequest, error) {
	if state == "" {
		state = "all"
	}

	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: 100,
			Page:    1,
		},
		SourceBranch: gitlab.Ptr(branch),
		State:        gitlab.Ptr(state),
		OrderBy:      gitlab.Ptr("created_at"),
		Sort:         gitlab.Ptr("desc"),
	}

	var result []models.MergeRequest

	for {
		mrs, resp, err := c.gl.MergeRequests.ListProjectMergeRequests(c.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list merge requests for %s: %w", branch, err)
		}

		for _, m := range mrs {
			result = append(result, mergeRequestFromAPI(m))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

// GetMergeRequest fetches a merge request by its project-scoped iid
func (c *Client) GetMergeRequest(ctx context.Context, mrIID int) (*models.MergeRequest, error) {
	m, _, err := c.gl.MergeRequests.GetMergeRequest(c.project, mrIID, &gitlab.GetMergeRequestsOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get merge request !%d: %w", mrIID, err)
	}
	mr := mergeRequestFromAPI(m)
	return &mr, nil
}

// ListMergeRequestPipelines fetches the pipelines that ran for a merge request
func (c *Client) ListMergeRequestPipelines(ctx context.Context, mrIID int) ([]models.Pipeline, error) {
	pipelines, _, err := c.gl.MergeRequests.ListMergeRequestPipelines(c.project, mrIID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list pipelines of !%d: %w", mrIID, err)
	}

	result := make([]models.Pipeline, 0, len(pipelines))
	for _, p := range pipelines {
		result = append(result, pipelineFromInfo(p))
	}
	return result, nil
}

func mergeRequestFromAPI(m *gitlab.MergeRequest) models.MergeRequest {
	mr := models.MergeRequest{
		ID:           m.ID,
		IID:          m.IID,
		Title:        m.Title,
		State:        m.State,
		SourceBranch: m.SourceBranch,
		TargetBranch: m.TargetBranch,
		WebURL:       m.WebURL,
		HasConflicts: m.HasConflicts,
		MergeStatus:  m.MergeStatus,
	}
	if m.Author != nil {
		mr.Author = m.Author.Username
	}
	if m.CreatedAt != nil {
		mr.CreatedAt = *m.CreatedAt
	}
	if m.UpdatedAt != nil {
		mr.UpdatedAt = *m.UpdatedAt
	}
	if m.HeadPipeline != nil {
		mr.HeadPipeline = &models.PipelineRef{
			ID:     m.HeadPipeline.ID,
			Status: models.ParseStatus(m.HeadPipeline.Status),
		}
	}
	return mr
}
