package gitlab

import (
	"context"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// ProjectInfo is the subset of project metadata shown by `config --check`
type ProjectInfo struct {
	ID                int
	PathWithNamespace string
	DefaultBranch     string
	WebURL            string
}

// GetProject looks up the configured project, verifying it is reachable with the token.
func (c *Client) GetProject(ctx context.Context) (*ProjectInfo, error) {
	p, _, err := c.gl.Projects.GetProject(c.project, &gitlab.GetProjectOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", c.project, err)
	}
	return &ProjectInfo{
		ID:                p.ID,
		PathWithNamespace: p.PathWithNamespace,
		DefaultBranch:     p.DefaultBranch,
		WebURL:            p.WebURL,
	}, nil
}
