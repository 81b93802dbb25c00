package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/output"
	"github.com/codewandler/glpipe/internal/summary"
)

const maxConcurrentJobs = 4

var failuresCmd = &cobra.Command{
	Use:   "failures <job-id>",
	Short: "Show why a job failed",
	Long: `Fetch a job's trace and show the failures found in it: pytest short
summary, detailed failures and captured stderr, or the error lines of the
log when no test runner output is present.

Examples:
  glpipe failures 123456
  glpipe failures 123456 --verbose`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := mustParseID(args[0], "job id")
		verbose, _ := cmd.Flags().GetBool("verbose")

		s := newSession(cmd, false)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res := s.sum.JobFailures(ctx, id)
		if !res.OK() {
			output.PrintCouldNotFetch(os.Stdout, "job", id)
			return
		}
		output.PrintJobFailures(os.Stdout, res.Value, verbose)
	},
}

var batchFailuresCmd = &cobra.Command{
	Use:   "batch-failures <job-id>...",
	Short: "Show failed tests of several jobs",
	Long: `Show the first failed tests of each job. Jobs are fetched in parallel
and printed in the order given; a job that cannot be fetched does not stop
the others.

Examples:
  glpipe batch-failures 123456 123457 123458`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids := make([]int, len(args))
		for i, arg := range args {
			ids[i] = mustParseID(arg, "job id")
		}

		s := newSession(cmd, false)
		defer s.Close()
		ctx, cancel := commandContext(cmd)
		defer cancel()

		for i, r := range fetchFailures(ctx, s.sum, ids) {
			output.PrintBatchFailure(os.Stdout, ids[i], r)
		}
	},
}

// jobFailureSource is implemented by *summary.Summarizer
type jobFailureSource interface {
	JobFailures(ctx context.Context, jobID int) summary.Result[*models.JobFailureReport]
}

// fetchFailures returns one report per id, in order; nil marks a failed fetch.
func fetchFailures(ctx context.Context, src jobFailureSource, ids []int) []*models.JobFailureReport {
	reports := make([]*models.JobFailureReport, len(ids))

	var g errgroup.Group
	g.SetLimit(maxConcurrentJobs)
	for i, id := range ids {
		i, id := i, id // per-iteration copies for go1.21 loop semantics
		g.Go(func() error {
			if res := src.JobFailures(ctx, id); res.OK() {
				reports[i] = res.Value
			}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func init() {
	failuresCmd.Flags().BoolP("verbose", "v", false, "Show all failure details rendered as markdown")
}
