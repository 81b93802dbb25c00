// Package summary fetches pipeline data (cache first for finished runs) and
// folds jobs into per-stage and per-pipeline statistics.
package summary

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/codewandler/glpipe/internal/gitlab"
	"github.com/codewandler/glpipe/internal/logging"
	"github.com/codewandler/glpipe/internal/models"
	"github.com/codewandler/glpipe/internal/trace"
)

// API is the subset of the GitLab client the summarizer needs
type API interface {
	GetPipeline(ctx context.Context, pipelineID int) (*models.Pipeline, error)
	ListPipelineJobs(ctx context.Context, pipelineID int) ([]models.Job, error)
	ListPipelines(ctx context.Context, opts gitlab.ListPipelinesOptions) ([]models.Pipeline, error)
	ListMergeRequestPipelines(ctx context.Context, mrIID int) ([]models.Pipeline, error)
	ListBranchMergeRequests(ctx context.Context, branch, state string) ([]models.MergeRequest, error)
	GetJob(ctx context.Context, jobID int) (*models.Job, error)
	GetJobTrace(ctx context.Context, jobID int) (string, error)
}

// Store is the pipeline cache. *cache.Store implements it.
type Store interface {
	Get(ctx context.Context, pipelineID int) (*models.PipelineDetail, bool)
	Put(ctx context.Context, detail *models.PipelineDetail) error
	LinkMergeRequest(ctx context.Context, mrIID, pipelineID int, createdAt time.Time) error
}

// Result holds a fetched value, or the zero value and the error that
// prevented the fetch. The error has already been logged.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the fetch succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Summarizer is safe for concurrent use if its API and Store are.
type Summarizer struct {
	api   API
	store Store
	log   *logging.Logger
}

// New creates a Summarizer. store may be nil to disable caching.
func New(api API, store Store, log *logging.Logger) *Summarizer {
	if log == nil {
		log = logging.Nop()
	}
	return &Summarizer{api: api, store: store, log: log.With("component", "summary")}
}

func fail[T any](s *Summarizer, what string, err error, args ...any) Result[T] {
	if errors.Is(err, context.Canceled) {
		s.log.Debug("fetch canceled", append([]any{"what", what}, args...)...)
	} else {
		s.log.Warn("fetch failed", append([]any{"what", what, "err", err}, args...)...)
	}
	return Result[T]{Err: err}
}

// FetchDetail returns a pipeline and all its jobs. With useCache, a cached
// terminal pipeline is returned without touching the API. A freshly fetched
// pipeline is written to the cache if and only if it is terminal.
func (s *Summarizer) FetchDetail(ctx context.Context, pipelineID int, useCache bool) Result[*models.PipelineDetail] {
	if useCache && s.store != nil {
		if detail, ok := s.store.Get(ctx, pipelineID); ok {
			s.log.Debug("cache hit", "pipeline", pipelineID)
			return Result[*models.PipelineDetail]{Value: detail}
		}
	}

	pipeline, err := s.api.GetPipeline(ctx, pipelineID)
	if err != nil {
		return fail[*models.PipelineDetail](s, "pipeline", err, "pipeline", pipelineID)
	}
	jobs, err := s.api.ListPipelineJobs(ctx, pipelineID)
	if err != nil {
		return fail[*models.PipelineDetail](s, "pipeline jobs", err, "pipeline", pipelineID)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	detail := &models.PipelineDetail{Pipeline: *pipeline, Jobs: jobs}
	if s.store != nil && pipeline.Status.IsTerminal() {
		if err := s.store.Put(ctx, detail); err != nil {
			s.log.Warn("cache write failed", "pipeline", pipelineID, "err", err)
		}
	}
	return Result[*models.PipelineDetail]{Value: detail}
}

// Summarize fetches a pipeline (cache first) and builds its summary.
func (s *Summarizer) Summarize(ctx context.Context, pipelineID int) Result[*models.PipelineSummary] {
	res := s.FetchDetail(ctx, pipelineID, true)
	if !res.OK() {
		return Result[*models.PipelineSummary]{Err: res.Err}
	}
	return Result[*models.PipelineSummary]{Value: BuildSummary(res.Value)}
}

// MRPipelines returns the pipelines of a merge request, newest first.
func (s *Summarizer) MRPipelines(ctx context.Context, mrIID int) Result[[]models.Pipeline] {
	pipelines, err := s.api.ListMergeRequestPipelines(ctx, mrIID)
	if err != nil {
		return fail[[]models.Pipeline](s, "merge request pipelines", err, "mr", mrIID)
	}

	SortPipelinesNewestFirst(pipelines)

	if s.store != nil {
		for _, p := range pipelines {
			if err := s.store.LinkMergeRequest(ctx, mrIID, p.ID, p.CreatedAt); err != nil {
				s.log.Warn("cache link failed", "mr", mrIID, "pipeline", p.ID, "err", err)
				break
			}
		}
	}
	return Result[[]models.Pipeline]{Value: pipelines}
}

// BranchMRs returns the merge requests opened from branch, newest first.
func (s *Summarizer) BranchMRs(ctx context.Context, branch, state string) Result[[]models.MergeRequest] {
	mrs, err := s.api.ListBranchMergeRequests(ctx, branch, state)
	if err != nil {
		return fail[[]models.MergeRequest](s, "merge requests", err, "branch", branch, "state", state)
	}

	slices.SortStableFunc(mrs, func(a, b models.MergeRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.IID, a.IID)
	})
	return Result[[]models.MergeRequest]{Value: mrs}
}

// RecentPipelines lists the newest pipelines of the project.
func (s *Summarizer) RecentPipelines(ctx context.Context, opts gitlab.ListPipelinesOptions) Result[[]models.Pipeline] {
	pipelines, err := s.api.ListPipelines(ctx, opts)
	if err != nil {
		return fail[[]models.Pipeline](s, "pipelines", err, "ref", opts.Ref, "user", opts.Username)
	}
	SortPipelinesNewestFirst(pipelines)
	return Result[[]models.Pipeline]{Value: pipelines}
}

// JobTrace fetches the raw log of a job.
func (s *Summarizer) JobTrace(ctx context.Context, jobID int) Result[string] {
	text, err := s.api.GetJobTrace(ctx, jobID)
	if err != nil {
		return fail[string](s, "job trace", err, "job", jobID)
	}
	return Result[string]{Value: text}
}

// Job fetches the current record of a single job.
func (s *Summarizer) Job(ctx context.Context, jobID int) Result[*models.Job] {
	job, err := s.api.GetJob(ctx, jobID)
	if err != nil {
		return fail[*models.Job](s, "job", err, "job", jobID)
	}
	return Result[*models.Job]{Value: job}
}

// JobFailures fetches a job and its trace and extracts the failures.
func (s *Summarizer) JobFailures(ctx context.Context, jobID int) Result[*models.JobFailureReport] {
	res := s.Job(ctx, jobID)
	if !res.OK() {
		return Result[*models.JobFailureReport]{Err: res.Err}
	}
	job := res.Value
	text := s.JobTrace(ctx, jobID)
	if !text.OK() {
		return Result[*models.JobFailureReport]{Err: fmt.Errorf("job %d trace: %w", jobID, text.Err)}
	}
	return Result[*models.JobFailureReport]{Value: &models.JobFailureReport{
		Job:     *job,
		Extract: trace.Extract(text.Value),
	}}
}

// SortPipelinesNewestFirst orders pipelines by creation time descending,
// breaking ties by id.
func SortPipelinesNewestFirst(pipelines []models.Pipeline) {
	slices.SortStableFunc(pipelines, func(a, b models.Pipeline) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
