package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion records the build version shown by `glpipe version`.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "glpipe",
	Short: "Inspect GitLab CI pipelines, merge requests and jobs",
	Long: `glpipe - GitLab pipeline explorer.

Query merge requests, pipelines and job failures of one project, or watch
them live in a terminal dashboard. Finished pipelines are cached locally
and never fetched twice.

Examples:
  # Full workflow from the current branch
  glpipe branch $(git branch --show-current) --latest
  glpipe mr <mr_iid_from_above>
  glpipe status <pipeline_id_from_above>
  glpipe failures <job_id>

  # Live dashboard
  glpipe monitor --ref main`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the glpipe version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("glpipe", version)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(mrCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(batchFailuresCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(doctorCmd)
}
