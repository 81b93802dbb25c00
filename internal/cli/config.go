package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/config"
	"github.com/codewandler/glpipe/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
	Long: `Show or update the configuration stored in ~/.glpipe/config.json.

The token is read from GITLAB_TOKEN and is never written to disk. Every
setting can be overridden by its environment variable: GITLAB_URL,
GITLAB_TOKEN, GITLAB_PROJECT, GITLAB_REFRESH_INTERVAL, GLPIPE_CACHE_DIR,
GLPIPE_MAX_PIPELINES and GLPIPE_LOG_LEVEL.

Examples:
  glpipe config --gitlab-url https://gitlab.example.com --project group/app
  glpipe config --show

Run 'glpipe doctor' to verify the settings against the GitLab API.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		show, _ := cmd.Flags().GetBool("show")
		url, _ := cmd.Flags().GetString("gitlab-url")
		project, _ := cmd.Flags().GetString("project")

		if url != "" || project != "" {
			saveSettings(url, project)
		}

		if show {
			cfg, err := config.Load()
			if err != nil {
				fatalf("Configuration error: %v", err)
			}
			path, _ := config.ConfigPath()
			output.PrintConfig(os.Stdout, cfg, path)
		}

		if !show && url == "" && project == "" {
			_ = cmd.Help()
		}
	},
}

// saveSettings updates the file config only, so values coming from the
// environment are not persisted.
func saveSettings(url, project string) {
	cfg, err := config.LoadFromFile()
	if err != nil {
		fatalf("Configuration error: %v", err)
	}
	if url != "" {
		cfg.GitLab.URL = strings.TrimRight(url, "/")
	}
	if project != "" {
		cfg.GitLab.Project = strings.Trim(project, "/")
	}
	if err := config.Save(cfg); err != nil {
		fatalf("Failed to save configuration: %v", err)
	}
	fmt.Println("Configuration saved")
}

func init() {
	configCmd.Flags().Bool("show", false, "Show the effective configuration")
	configCmd.Flags().String("gitlab-url", "", "GitLab server URL")
	configCmd.Flags().String("project", "", "GitLab project path (e.g. group/project)")
}
