package tui

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/glpipe/internal/gitlab"
	"github.com/codewandler/glpipe/internal/logging"
	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/summary"
	"github.com/codewandler/glpipe/internal/trace"
)

const (
	idAlphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
	defaultLoadTimeout = time.Minute
	extractConcurrency = 4
)

// Source provides the data behind every view. *summary.Summarizer implements it.
type Source interface {
	RecentPipelines(ctx context.Context, opts gitlab.ListPipelinesOptions) summary.Result[[]models.Pipeline]
	FetchDetail(ctx context.Context, pipelineID int, useCache bool) summary.Result[*models.PipelineDetail]
	Job(ctx context.Context, jobID int) summary.Result[*models.Job]
	JobTrace(ctx context.Context, jobID int) summary.Result[string]
}

// frameResult is a finished load addressed to a frame
type frameResult interface {
	target() string
}

type pipelinesLoadedMsg struct {
	frameID   string
	filter    pipelineFilter
	pipelines []models.Pipeline
	err       error
}

type jobsLoadedMsg struct {
	frameID string
	detail  *models.PipelineDetail
	err     error
}

type traceLoadedMsg struct {
	frameID string
	job     models.Job
	trace   string
	extract *models.FailureExtract
	err     error
}

type failuresLoadedMsg struct {
	frameID string
	entries []failedJobEntry
}

func (m pipelinesLoadedMsg) target() string { return m.frameID }
func (m jobsLoadedMsg) target() string      { return m.frameID }
func (m traceLoadedMsg) target() string     { return m.frameID }
func (m failuresLoadedMsg) target() string  { return m.frameID }

// EngineOptions configures a navigation Engine
type EngineOptions struct {
	MaxPipelines int
	Ref          string
	User         string
	LoadTimeout  time.Duration
}

// Engine owns the view stack. All methods must be called from the event
// loop; the commands it returns run elsewhere and only report back through
// messages passed to Apply.
type Engine struct {
	src          Source
	log          *logging.Logger
	stack        []*frame
	failures     map[int]models.FailureExtract // per job id, kept for the session
	maxPipelines int
	timeout      time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	seq          atomic.Int64
}

// NewEngine creates an engine whose permanent bottom frame is the pipeline list.
func NewEngine(src Source, opts EngineOptions, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		src:          src,
		log:          log.With("component", "tui"),
		failures:     make(map[int]models.FailureExtract),
		maxPipelines: opts.MaxPipelines,
		timeout:      opts.LoadTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	e.stack = []*frame{e.newFrame(&pipelineListView{filter: pipelineFilter{ref: opts.Ref, user: opts.User}})}
	return e
}

func (e *Engine) newFrame(v view) *frame {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		id = fmt.Sprintf("frame-%d", e.seq.Add(1))
	}
	return &frame{id: id, view: v}
}

// Close cancels all in-flight loads.
func (e *Engine) Close() {
	e.cancel()
}

// Top returns the active frame.
func (e *Engine) Top() *frame {
	return e.stack[len(e.stack)-1]
}

// Depth returns the number of frames on the stack.
func (e *Engine) Depth() int {
	return len(e.stack)
}

func (e *Engine) find(id string) *frame {
	for _, f := range e.stack {
		if f.id == id {
			return f
		}
	}
	return nil
}

// Push puts a new frame on top and starts loading it.
func (e *Engine) Push(v view) tea.Cmd {
	f := e.newFrame(v)
	e.stack = append(e.stack, f)
	return e.load(f)
}

// Pop removes the top frame. The bottom frame is never removed. If the
// revealed frame never finished a load, its reload command is returned.
func (e *Engine) Pop() (tea.Cmd, bool) {
	if len(e.stack) <= 1 {
		return nil, false
	}
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]

	top := e.Top()
	if !top.loaded && !top.loading {
		return e.load(top), true
	}
	return nil, true
}

// Reload refreshes the active frame in place. It returns nil when a load for
// that frame is already in flight.
func (e *Engine) Reload() tea.Cmd {
	top := e.Top()
	if top.loading {
		return nil
	}
	return e.load(top)
}

func (e *Engine) load(f *frame) tea.Cmd {
	f.loading = true
	id := f.id
	root, timeout, src := e.ctx, e.timeout, e.src

	switch v := f.view.(type) {
	case *pipelineListView:
		filter := v.filter
		opts := gitlab.ListPipelinesOptions{Ref: filter.ref, Username: filter.user, Limit: e.maxPipelines}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(root, timeout)
			defer cancel()
			res := src.RecentPipelines(ctx, opts)
			return pipelinesLoadedMsg{frameID: id, filter: filter, pipelines: res.Value, err: res.Err}
		}

	case *jobListView:
		pipelineID := v.pipeline.ID
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(root, timeout)
			defer cancel()
			res := src.FetchDetail(ctx, pipelineID, true)
			return jobsLoadedMsg{frameID: id, detail: res.Value, err: res.Err}
		}

	case *jobDetailView:
		job := v.job
		known, cached := e.failures[job.ID]
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(root, timeout)
			defer cancel()
			// a job that was still running when opened may have finished since
			if !job.Status.IsTerminal() {
				if fresh := src.Job(ctx, job.ID); fresh.OK() {
					job = *fresh.Value
				}
			}
			res := src.JobTrace(ctx, job.ID)
			msg := traceLoadedMsg{frameID: id, job: job, trace: res.Value, err: res.Err}
			if res.OK() && job.Status == models.StatusFailed {
				ex := known
				if !cached {
					ex = trace.Extract(res.Value)
				}
				msg.extract = &ex
			}
			return msg
		}

	case *failedJobsView:
		jobs := slices.Clone(v.jobs)
		known := make(map[int]models.FailureExtract, len(jobs))
		for _, j := range jobs {
			if ex, ok := e.failures[j.ID]; ok {
				known[j.ID] = ex
			}
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(root, timeout)
			defer cancel()
			return failuresLoadedMsg{frameID: id, entries: extractAll(ctx, src, jobs, known)}
		}
	}

	f.loading = false
	return nil
}

// extractAll fetches and parses the traces of jobs concurrently. A failing
// job only marks its own entry.
func extractAll(ctx context.Context, src Source, jobs []models.Job, known map[int]models.FailureExtract) []failedJobEntry {
	entries := make([]failedJobEntry, len(jobs))

	var g errgroup.Group
	g.SetLimit(extractConcurrency)
	for i, job := range jobs {
		entries[i].job = job
		if ex, ok := known[job.ID]; ok {
			entries[i].extract = ex
			continue
		}
		i, job := i, job // per-iteration copies for go1.21 loop semantics
		g.Go(func() error {
			res := src.JobTrace(ctx, job.ID)
			if !res.OK() {
				entries[i].err = res.Err
				return nil
			}
			entries[i].extract = trace.Extract(res.Value)
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

// Apply stores a finished load in its frame. Results for frames that were
// popped, or that are no longer on top, are dropped. It may return a
// command when the result was issued for an outdated filter.
func (e *Engine) Apply(res frameResult) tea.Cmd {
	f := e.find(res.target())
	if f == nil {
		e.log.Debug("dropping result for closed frame", "frame", res.target())
		return nil
	}
	f.loading = false
	if f != e.Top() {
		e.log.Debug("dropping result for covered frame", "frame", f.id)
		return nil
	}

	switch r := res.(type) {
	case pipelinesLoadedMsg:
		v, ok := f.view.(*pipelineListView)
		if !ok {
			return nil
		}
		if r.filter != v.filter {
			return e.load(f)
		}
		f.err = r.err
		if r.err == nil {
			v.rows = r.pipelines
		}

	case jobsLoadedMsg:
		v, ok := f.view.(*jobListView)
		if !ok {
			return nil
		}
		f.err = r.err
		if r.err == nil {
			v.pipeline = r.detail.Pipeline
			v.summary = summary.BuildSummary(r.detail)
			v.rows = summary.OrderedJobs(v.summary)
		}

	case traceLoadedMsg:
		v, ok := f.view.(*jobDetailView)
		if !ok {
			return nil
		}
		v.job = r.job
		f.err = r.err
		if r.err == nil {
			v.trace = r.trace
			if r.extract != nil {
				v.extract = r.extract
				e.failures[v.job.ID] = *r.extract
			}
		}

	case failuresLoadedMsg:
		v, ok := f.view.(*failedJobsView)
		if !ok {
			return nil
		}
		f.err = nil
		v.entries = r.entries
		for _, entry := range r.entries {
			if entry.err == nil {
				e.failures[entry.job.ID] = entry.extract
			}
		}
	}

	f.loaded = true
	f.loadedAt = time.Now()
	f.version++
	f.clampCursor()
	return nil
}

// MoveCursor moves the selection of the active frame.
func (e *Engine) MoveCursor(delta int) {
	top := e.Top()
	top.cursor += delta
	top.clampCursor()
}

// Enter drills down from the selected row of the active frame.
func (e *Engine) Enter() tea.Cmd {
	top := e.Top()
	switch v := top.view.(type) {
	case *pipelineListView:
		if top.cursor < len(v.rows) {
			return e.Push(&jobListView{pipeline: v.rows[top.cursor]})
		}
	case *jobListView:
		if top.cursor < len(v.rows) {
			return e.Push(&jobDetailView{job: v.rows[top.cursor]})
		}
	case *failedJobsView:
		if top.cursor < len(v.entries) {
			return e.Push(&jobDetailView{job: v.entries[top.cursor].job})
		}
	}
	return nil
}

// ShowFailed opens the failed-jobs view for the active job list. The
// returned text explains why nothing happened when there is nothing to show.
func (e *Engine) ShowFailed() (tea.Cmd, string) {
	top := e.Top()
	v, ok := top.view.(*jobListView)
	if !ok {
		return nil, ""
	}
	if v.summary == nil {
		return nil, "Jobs are still loading"
	}
	if len(v.summary.FailedJobs) == 0 {
		return nil, fmt.Sprintf("No failed jobs in pipeline #%d", v.pipeline.ID)
	}
	return e.Push(&failedJobsView{pipeline: v.pipeline, jobs: slices.Clone(v.summary.FailedJobs)}), ""
}

// SetFilter changes the pipeline list filter and reloads. Rows of the old
// filter are cleared and the frame counts as unloaded until a result for the
// new filter arrives, so Pop reloads it if that result was dropped. A load
// already in flight is left alone; its result is discarded as outdated and
// reissued.
func (e *Engine) SetFilter(ref, user string) tea.Cmd {
	top := e.Top()
	v, ok := top.view.(*pipelineListView)
	if !ok {
		return nil
	}
	filter := pipelineFilter{ref: ref, user: user}
	if filter == v.filter && top.loaded {
		return e.Reload()
	}
	v.filter = filter
	v.rows = nil
	top.cursor = 0
	top.err = nil
	top.loaded = false
	top.version++
	if top.loading {
		return nil
	}
	return e.load(top)
}

// Filter returns the active pipeline list filter.
func (e *Engine) Filter() (ref, user string, ok bool) {
	v, ok := e.Top().view.(*pipelineListView)
	if !ok {
		return "", "", false
	}
	return v.filter.ref, v.filter.user, true
}

// ToggleFailuresOnly switches a job detail between the full trace and its failures.
func (e *Engine) ToggleFailuresOnly() bool {
	top := e.Top()
	v, ok := top.view.(*jobDetailView)
	if !ok {
		return false
	}
	v.failuresOnly = !v.failuresOnly
	top.version++
	return true
}

// SelectedURL returns the web link of whatever the active frame points at.
func (e *Engine) SelectedURL() string {
	top := e.Top()
	switch v := top.view.(type) {
	case *pipelineListView:
		if top.cursor < len(v.rows) {
			return v.rows[top.cursor].WebURL
		}
	case *jobListView:
		if top.cursor < len(v.rows) {
			return v.rows[top.cursor].WebURL
		}
		return v.pipeline.WebURL
	case *jobDetailView:
		return v.job.WebURL
	case *failedJobsView:
		if top.cursor < len(v.entries) {
			return v.entries[top.cursor].job.WebURL
		}
		return v.pipeline.WebURL
	}
	return ""
}

// Breadcrumb lists the titles of all frames, bottom first.
func (e *Engine) Breadcrumb() []string {
	out := make([]string, len(e.stack))
	for i, f := range e.stack {
		out[i] = f.view.title()
	}
	return out
}
