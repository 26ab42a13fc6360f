// Package jobs drives one crawl job through its lifecycle. The runner
// is the adapter an external task queue calls exactly once per job;
// retries, if any, belong to the queue, never to the runner.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagegraph/pagegraph/internal/crawler"
	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/metrics"
	"github.com/pagegraph/pagegraph/internal/store"
)

// Analyzer is the engine contract the runner drives.
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
}

var _ Analyzer = (*crawler.Engine)(nil)

// Runner executes one analysis per job and persists the outcome.
type Runner struct {
	store   store.Store
	engine  Analyzer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(st store.Store, engine Analyzer, logger *slog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{store: st, engine: engine, logger: logger, metrics: m}
}

// Run marks the job running, invokes the engine once, and persists
// either the full result or the terminal failure. A fetch failure is
// final for the job; per-link and per-category failures were already
// absorbed inside the engine.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.MarkRunning(time.Now().UTC())
	if err := r.store.UpdateJob(ctx, job); err != nil {
		return err
	}

	start := time.Now()
	result, err := r.engine.Analyze(ctx, model.AnalysisRequest{URL: job.URL})
	r.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return r.fail(ctx, job, err.Error())
	}
	if !result.Success {
		return r.fail(ctx, job, result.Error)
	}

	if err := r.store.SavePageInfo(ctx, job.ID, result.PageInfo); err != nil {
		return r.fail(ctx, job, err.Error())
	}
	if err := r.store.SaveLinks(ctx, job.ID, result.Links); err != nil {
		return r.fail(ctx, job, err.Error())
	}

	checked := min(len(result.Links), crawler.MaxStatusChecks)
	r.metrics.LinksChecked.Add(float64(checked))

	job.TotalLinks = result.TotalLinks
	job.InternalLinks = result.InternalLinks
	job.ExternalLinks = result.ExternalLinks
	job.MarkCompleted(time.Now().UTC())
	if err := r.store.UpdateJob(ctx, job); err != nil {
		return err
	}

	r.metrics.AnalysesTotal.WithLabelValues(string(model.JobCompleted)).Inc()
	r.logger.Info("job completed",
		"job_id", job.ID,
		"url", job.URL,
		"total_links", job.TotalLinks,
		"internal_links", job.InternalLinks,
		"external_links", job.ExternalLinks,
	)
	return nil
}

func (r *Runner) fail(ctx context.Context, job *model.CrawlJob, msg string) error {
	job.MarkFailed(time.Now().UTC(), msg)
	if err := r.store.UpdateJob(ctx, job); err != nil {
		return err
	}

	r.metrics.AnalysesTotal.WithLabelValues(string(model.JobFailed)).Inc()
	r.logger.Error("job failed", "job_id", job.ID, "url", job.URL, "error", msg)
	return nil
}
