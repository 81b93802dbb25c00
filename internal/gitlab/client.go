package gitlab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// Client talks to the GitLab API on behalf of a single project.
type Client struct {
	gl      *gitlab.Client
	project string
}

func NewClient(url, token, project string) (*Client, error) {
	if strings.TrimSpace(project) == "" {
		return nil, errors.New("failed to create GitLab client: project is required")
	}
	baseURL := strings.TrimSuffix(url, "/") + "/api/v4"
	gl, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &Client{gl: gl, project: project}, nil
}

// Project returns the project path or id the client is scoped to
func (c *Client) Project() string {
	return c.project
}

// TestAuth verifies the token works and returns the username it belongs to
func (c *Client) TestAuth(ctx context.Context) (string, error) {
	user, _, err := c.gl.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("auth test failed: %w", err)
	}
	return user.Username, nil
}
