package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/summary"
)

// PrintMergeRequests lists the merge requests of a branch, newest first.
func PrintMergeRequests(w io.Writer, branch, state string, mrs []models.MergeRequest, latest bool) {
	if len(mrs) == 0 {
		dimColor.Fprintf(w, "No %s MRs found for branch '%s'\n", state, branch)
		return
	}

	printBanner(w, 80, "Merge Requests for branch '%s' (state: %s)", branch, state)

	t := newTable(w)
	t.AppendHeader(table.Row{"MR", "State", "Pipeline", "Title", "Author", "Target"})
	for _, mr := range mrs {
		pipeline := dimColor.Sprint("No pipeline")
		if mr.HeadPipeline != nil {
			pipeline = fmt.Sprintf("%s %d", statusIcon(mr.HeadPipeline.Status), mr.HeadPipeline.ID)
		}
		title := truncate(mr.Title, 50)
		if mr.HasConflicts {
			title += errorColor.Sprint(" ⚠")
		}
		t.AppendRow(table.Row{
			hyperlink(mr.WebURL, fmt.Sprintf("!%d", mr.IID)),
			formatMRState(mr.State),
			pipeline,
			title,
			mr.Author,
			mr.TargetBranch,
		})
	}
	t.Render()

	if latest {
		mr := mrs[0]
		fmt.Fprintf(w, "\nLatest MR: !%d (ID: %d)\n", mr.IID, mr.ID)
		if mr.HeadPipeline != nil {
			fmt.Fprintf(w, "Latest pipeline: %d (status: %s)\n", mr.HeadPipeline.ID, mr.HeadPipeline.Status)
		}
	}
}

// PrintMRPipelines lists the pipelines of a merge request, newest first.
func PrintMRPipelines(w io.Writer, mrIID int, pipelines []models.Pipeline, latest bool) {
	if len(pipelines) == 0 {
		dimColor.Fprintf(w, "No pipelines found for MR !%d\n", mrIID)
		return
	}

	printBanner(w, 80, "Pipelines for MR !%d", mrIID)
	printPipelineTable(w, pipelines)

	if latest {
		fmt.Fprintf(w, "\nLatest pipeline: %d\n", pipelines[0].ID)
	}
}

func printPipelineTable(w io.Writer, pipelines []models.Pipeline) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Status", "Ref", "SHA", "User", "Created"})
	for _, p := range pipelines {
		t.AppendRow(table.Row{
			hyperlink(p.WebURL, fmt.Sprintf("%d", p.ID)),
			statusText(p.Status),
			truncate(p.Ref, 30),
			p.ShortSHA(),
			p.User,
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

// PrintPipelineStatus shows progress and job counts of a pipeline. With
// detailed, every stage is listed with its jobs.
func PrintPipelineStatus(w io.Writer, sum *models.PipelineSummary, detailed bool) {
	p := sum.Pipeline
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "%s Pipeline %d - %s\n", statusIcon(p.Status), p.ID, strings.ToUpper(string(p.Status)))
	printField(w, "Ref", fmt.Sprintf("%s @ %s", p.Ref, p.ShortSHA()))
	printField(w, "URL", hyperlink(p.WebURL, p.WebURL))
	printField(w, "Created", formatTimestamp(p.CreatedAt))
	if p.Duration > 0 {
		printField(w, "Duration", formatSeconds(p.Duration))
	}
	pr := sum.Progress
	printField(w, "Progress", fmt.Sprintf("[%s] %d/%d (%d%%)", ProgressBar(pr.Percentage, 40), pr.Completed, pr.Total, pr.Percentage))
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if detailed {
		printStages(w, sum)
		return
	}

	c := sum.Counts
	fmt.Fprintf(w, "Total Jobs:    %d\n", sum.Total)
	fmt.Fprintf(w, "  ✅ Success:  %d\n", c.Success)
	fmt.Fprintf(w, "  ❌ Failed:   %d\n", c.Failed)
	fmt.Fprintf(w, "  🔄 Running:  %d\n", c.Running)
	fmt.Fprintf(w, "  ⏸  Pending:  %d\n", c.Pending+c.Created)
	fmt.Fprintf(w, "  ⏭  Skipped:  %d\n", c.Skipped)
	fmt.Fprintf(w, "  🚫 Canceled: %d\n", c.Canceled)
	fmt.Fprintf(w, "  👤 Manual:   %d\n", c.Manual)

	if len(sum.FailedJobs) > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Failed Jobs:")
		t := newTable(w)
		t.AppendHeader(table.Row{"ID", "Stage", "Name", "Duration"})
		for _, j := range sum.FailedJobs {
			t.AppendRow(table.Row{hyperlink(j.WebURL, fmt.Sprintf("%d", j.ID)), j.Stage, truncate(j.Name, 40), FormatDuration(j.Duration)})
		}
		t.Render()
	}
}

func stageIcon(st *models.StageSummary) string {
	switch {
	case st.Counts.Failed > 0:
		return "❌"
	case st.Counts.Running > 0:
		return "🔄"
	case st.Counts.Pending > 0 || st.Counts.Created > 0:
		return "⏸"
	case st.Counts.Success == st.Total:
		return "✅"
	}
	return "⚠️"
}

func printStages(w io.Writer, sum *models.PipelineSummary) {
	sectionColor.Fprintln(w, "\nStage Progress:")
	for _, name := range sum.StageOrder {
		st := sum.Stages[name]
		fmt.Fprintf(w, "\n%s Stage: %s [%d/%d]\n", stageIcon(st), strings.ToUpper(name), st.Completed(), st.Total)
		fmt.Fprintln(w, "  "+strings.Repeat("─", 76))

		jobs := append([]models.Job(nil), sum.StageJobs[name]...)
		summary.SortJobs(jobs, summary.SortByName)
		for _, j := range jobs {
			duration := "-"
			if j.Duration != nil {
				duration = FormatDuration(j.Duration)
			}
			line := fmt.Sprintf("%-10d %-50s %-10s", j.ID, truncate(j.Name, 50), duration)
			if c, ok := statusColors[j.Status]; ok {
				line = c.Sprint(line)
			}
			fmt.Fprintf(w, "  %s %s\n", statusIcon(j.Status), line)
		}
	}
}

// PrintJobs lists the jobs of a pipeline in the given order.
func PrintJobs(w io.Writer, pipelineID int, jobs []models.Job) {
	printBanner(w, 80, "Jobs in Pipeline %d (%d)", pipelineID, len(jobs))
	if len(jobs) == 0 {
		dimColor.Fprintln(w, "No jobs match")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Status", "Stage", "Name", "Duration", "Finished"})
	for _, j := range jobs {
		finished := ""
		if j.FinishedAt != nil {
			finished = j.FinishedAt.Local().Format("15:04:05")
		}
		t.AppendRow(table.Row{
			hyperlink(j.WebURL, fmt.Sprintf("%d", j.ID)),
			statusText(j.Status),
			j.Stage,
			truncate(j.Name, 40),
			FormatDuration(j.Duration),
			finished,
		})
	}
	t.Render()
}
