package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/output"
	"github.com/codewandler/glpipe/internal/summary"
)

var mrStates = []string{"opened", "merged", "closed", "all"}

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "List merge requests opened from a branch",
	Long: `List merge requests whose source branch is <name>, newest first,
with the status of each head pipeline.

Examples:
  glpipe branch $(git branch --show-current)
  glpipe branch feature-xyz --state all
  glpipe branch feature-xyz --latest`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, _ := cmd.Flags().GetString("state")
		latest, _ := cmd.Flags().GetBool("latest")
		if !validState(state) {
			fatalf("Error: invalid --state %q (use opened, merged, closed or all)", state)
		}

		s := newSession(cmd, false)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := s.sum.BranchMRs(ctx, args[0], state)
		if !res.OK() {
			output.PrintCouldNotFetch(os.Stdout, "merge requests for branch", args[0])
			return
		}
		output.PrintMergeRequests(os.Stdout, args[0], state, res.Value, latest)
	},
}

func validState(state string) bool {
	for _, s := range mrStates {
		if s == state {
			return true
		}
	}
	return false
}

var mrCmd = &cobra.Command{
	Use:   "mr <iid>",
	Short: "List pipelines of a merge request",
	Long: `List the pipelines of merge request !<iid>, newest first.

Examples:
  glpipe mr 1234
  glpipe mr 1234 --latest`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		iid := mustParseID(args[0], "merge request iid")
		latest, _ := cmd.Flags().GetBool("latest")

		s := newSession(cmd, true)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := s.sum.MRPipelines(ctx, iid)
		if !res.OK() {
			output.PrintCouldNotFetch(os.Stdout, "pipelines for MR", iid)
			return
		}
		output.PrintMRPipelines(os.Stdout, iid, res.Value, latest)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <pipeline-id>",
	Short: "Show job progress of a pipeline",
	Long: `Show progress and job counts of a pipeline. Finished pipelines are
served from the local cache.

Examples:
  glpipe status 567890
  glpipe status 567890 --detailed
  glpipe status 567890 --no-cache`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := mustParseID(args[0], "pipeline id")
		detailed, _ := cmd.Flags().GetBool("detailed")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		s := newSession(cmd, true)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := s.sum.FetchDetail(ctx, id, !noCache)
		if !res.OK() {
			output.PrintCouldNotFetch(os.Stdout, "pipeline", id)
			return
		}
		output.PrintPipelineStatus(os.Stdout, summary.BuildSummary(res.Value), detailed)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs <pipeline-id>",
	Short: "List the jobs of a pipeline",
	Long: `List the jobs of a pipeline, optionally filtered and sorted.

Examples:
  glpipe jobs 567890
  glpipe jobs 567890 --status failed
  glpipe jobs 567890 --stage test --sort duration`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := mustParseID(args[0], "pipeline id")
		status, _ := cmd.Flags().GetString("status")
		stage, _ := cmd.Flags().GetString("stage")
		sortFlag, _ := cmd.Flags().GetString("sort")

		by, ok := summary.ParseJobSort(sortFlag)
		if !ok {
			fatalf("Error: invalid --sort %q (use duration, name or created)", sortFlag)
		}
		if status != "" && models.ParseStatus(status) == models.StatusUnknown && !strings.EqualFold(status, "unknown") {
			fatalf("Error: unknown --status %q", status)
		}

		s := newSession(cmd, true)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := s.sum.FetchDetail(ctx, id, true)
		if !res.OK() {
			output.PrintCouldNotFetch(os.Stdout, "pipeline", id)
			return
		}
		jobs := summary.FilterJobs(res.Value.Jobs, status, stage)
		summary.SortJobs(jobs, by)
		output.PrintJobs(os.Stdout, id, jobs)
	},
}

func init() {
	branchCmd.Flags().StringP("state", "s", "opened", "MR state: opened, merged, closed, all")
	branchCmd.Flags().BoolP("latest", "l", false, "Show latest MR and pipeline IDs")

	mrCmd.Flags().BoolP("latest", "l", false, "Show latest pipeline ID")

	statusCmd.Flags().BoolP("detailed", "d", false, "Show stage-by-stage progress with all jobs")
	statusCmd.Flags().Bool("no-cache", false, "Always fetch from API, don't read the cache")

	jobsCmd.Flags().String("status", "", "Filter by status (success, failed, running, ...)")
	jobsCmd.Flags().String("stage", "", "Filter by stage name")
	jobsCmd.Flags().String("sort", "created", "Sort by: duration, name, created")
}
