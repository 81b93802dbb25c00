package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/codewandler/glpipe/internal/models"
)

// fixedCell pads or truncates s to exactly width display cells.
func fixedCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		return ansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-ansi.StringWidth(s))
}

// window returns the slice bounds of at most height rows that keep cursor visible.
func window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

// jobWindow is window for a job list, where every stage change inside the
// window costs an extra header line.
func jobWindow(cursor int, rows []models.Job, height int) (int, int) {
	start, end := window(cursor, len(rows), height)
	for end-start > 1 && jobLines(rows, start, end) > height {
		if end-1 > cursor {
			end--
		} else {
			start++
		}
	}
	return start, end
}

func jobLines(rows []models.Job, start, end int) int {
	n := end - start
	stage := ""
	if start > 0 {
		stage = rows[start-1].Stage
	}
	for i := start; i < end; i++ {
		if rows[i].Stage != stage {
			stage = rows[i].Stage
			n++
		}
	}
	return n
}

func renderStatus(s models.Status, width int) string {
	return statusStyle(s).Render(fixedCell(string(s), width))
}

func formatJobDuration(d *float64) string {
	if d == nil {
		return "-"
	}
	return (time.Duration(*d) * time.Second).String()
}

func renderRow(line string, selected bool, width int) string {
	if selected {
		return selectedStyle.Render(fixedCell(ansi.Strip(line), width))
	}
	return line
}

func renderPipelineList(f *frame, v *pipelineListView, width, height int) string {
	if len(v.rows) == 0 {
		return mutedStyle.Render(emptyText(f, "No pipelines"))
	}
	var b strings.Builder
	start, end := window(f.cursor, len(v.rows), height)
	for i := start; i < end; i++ {
		p := v.rows[i]
		line := fmt.Sprintf("%s %s %s %s %s %s",
			fixedCell(fmt.Sprintf("#%d", p.ID), 12),
			renderStatus(p.Status, 9),
			fixedCell(p.Ref, 30),
			fixedCell(p.ShortSHA(), 8),
			fixedCell(p.User, 16),
			mutedStyle.Render(humanize.Time(p.CreatedAt)),
		)
		b.WriteString(renderRow(line, i == f.cursor, width))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderJobList(f *frame, v *jobListView, width, height int) string {
	if v.summary == nil {
		return mutedStyle.Render(emptyText(f, "No jobs"))
	}
	var b strings.Builder
	p := v.summary.Progress
	fmt.Fprintf(&b, "%s %s  %d/%d jobs complete (%d%%)  %d failed\n",
		renderStatus(v.pipeline.Status, 9), v.pipeline.Ref, p.Completed, p.Total, p.Percentage, v.summary.Counts.Failed)
	if len(v.rows) == 0 {
		b.WriteString(mutedStyle.Render("Pipeline has no jobs"))
		return b.String()
	}

	start, end := jobWindow(f.cursor, v.rows, height-1)
	stage := ""
	if start > 0 {
		stage = v.rows[start-1].Stage
	}
	for i := start; i < end; i++ {
		j := v.rows[i]
		if j.Stage != stage {
			stage = j.Stage
			st := v.summary.Stages[stage]
			b.WriteString(stageStyle.Render(fmt.Sprintf("%s (%d/%d)", stage, st.Completed(), st.Total)))
			b.WriteByte('\n')
		}
		flag := ""
		if j.AllowFailure && j.Status == models.StatusFailed {
			flag = mutedStyle.Render(" (allowed)")
		}
		line := fmt.Sprintf("  %s %s %s%s",
			fixedCell(j.Name, 40),
			renderStatus(j.Status, 9),
			fixedCell(formatJobDuration(j.Duration), 10),
			flag,
		)
		b.WriteString(renderRow(line, i == f.cursor, width))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderFailedJobs(f *frame, v *failedJobsView, width, height int) string {
	if len(v.entries) == 0 {
		return mutedStyle.Render(emptyText(f, "No failed jobs"))
	}
	var b strings.Builder
	start, end := window(f.cursor, len(v.entries), height/2)
	for i := start; i < end; i++ {
		e := v.entries[i]
		line := fmt.Sprintf("%s %s %s",
			fixedCell(e.job.Name, 40),
			fixedCell(e.job.Stage, 16),
			mutedStyle.Render(e.job.FailureReason),
		)
		b.WriteString(renderRow(line, i == f.cursor, width))
		b.WriteByte('\n')
		b.WriteString("    " + failureHeadline(e) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// failureHeadline condenses an entry to a single line for the failed-jobs list.
func failureHeadline(e failedJobEntry) string {
	if e.err != nil {
		return errorStyle.Render("could not fetch trace")
	}
	if tests := e.extract.FailedTests(); len(tests) > 0 {
		s := tests[0]
		if len(tests) > 1 {
			s += fmt.Sprintf(" (+%d more)", len(tests)-1)
		}
		return s
	}
	if len(e.extract.ErrorLines) > 0 {
		return strings.TrimSpace(e.extract.ErrorLines[0])
	}
	return mutedStyle.Render("no failure details found")
}

// detailContent is the text shown in the job detail viewport.
func detailContent(f *frame, v *jobDetailView) string {
	if !f.loaded {
		return mutedStyle.Render("Loading trace…")
	}
	if v.failuresOnly {
		if v.extract == nil {
			return mutedStyle.Render("Job did not fail")
		}
		return failureContent(*v.extract)
	}
	if v.trace == "" {
		return mutedStyle.Render(emptyText(f, "Trace is empty"))
	}
	return v.trace
}

func failureContent(ex models.FailureExtract) string {
	if ex.IsEmpty() {
		return mutedStyle.Render("No failure details found in trace")
	}
	var b strings.Builder
	block := func(title, body string) {
		if body == "" {
			return
		}
		b.WriteString(stageStyle.Render(title) + "\n" + body + "\n\n")
	}
	block("Short test summary", ex.ShortSummary)
	block("Failures", ex.DetailedFailures)
	block("Captured stderr", ex.CapturedStderr)
	if !ex.HasStructured() {
		block("Error lines", strings.Join(ex.ErrorLines, "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func emptyText(f *frame, fallback string) string {
	switch {
	case f.err != nil:
		return "Could not fetch data: " + f.err.Error()
	case !f.loaded:
		return "Loading…"
	}
	return fallback
}

func renderHeader(crumbs []string, width int) string {
	title := headerStyle.Render("glpipe")
	path := crumbStyle.Render(strings.Join(crumbs, " › "))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", ansi.Truncate(path, max(width-lipgloss.Width(title)-1, 0), "…"))
}

func renderFooter(f *frame, status string, auto bool, interval time.Duration, spin string, helpView string, width int) string {
	var parts []string
	if f.loading {
		parts = append(parts, spin+" loading")
	} else if !f.loadedAt.IsZero() {
		parts = append(parts, "updated "+humanize.Time(f.loadedAt))
	}
	if auto {
		parts = append(parts, "auto-refresh "+interval.String())
	} else {
		parts = append(parts, "auto-refresh off")
	}
	if f.err != nil && f.loaded {
		parts = append(parts, errorStyle.Render("refresh failed"))
	}
	if status != "" {
		parts = append(parts, status)
	}
	return footerStyle.Width(width).Render(strings.Join(parts, " · ") + "\n" + helpView)
}
