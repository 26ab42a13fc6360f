// Package api exposes the job lifecycle over HTTP: create a crawl job,
// inspect its results, and render the link graph built from them.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pagegraph/pagegraph/internal/graph"
	"github.com/pagegraph/pagegraph/internal/jobs"
	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/errs"
	"github.com/pagegraph/pagegraph/internal/platform/requestid"
	"github.com/pagegraph/pagegraph/internal/store"
)

// listLimit caps dashboard-style job listings.
const listLimit = 20

// Service coordinates the store, the job runner, and the graph builder.
type Service struct {
	store  store.Store
	runner *jobs.Runner
	logger *slog.Logger
}

// NewService creates a Service backed by the given collaborators.
func NewService(st store.Store, runner *jobs.Runner, logger *slog.Logger) *Service {
	return &Service{store: st, runner: runner, logger: logger}
}

// JobListing is the dashboard view: recent jobs plus lifecycle stats.
type JobListing struct {
	Jobs  []model.CrawlJob `json:"jobs"`
	Stats model.JobStats   `json:"stats"`
}

// JobDetail is one job with its persisted analysis output.
type JobDetail struct {
	Job      model.CrawlJob     `json:"job"`
	PageInfo *model.PageInfo    `json:"page_info,omitempty"`
	Links    []model.LinkRecord `json:"links"`
}

// CreateJob validates the URL, persists a pending job, and starts the
// analysis in the background. The engine runs at most once per job.
func (s *Service) CreateJob(ctx context.Context, rawURL string) (*model.CrawlJob, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com).",
			Cause:   err,
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs are supported.",
		}
	}

	job := &model.CrawlJob{
		ID:        uuid.New().String(),
		URL:       rawURL,
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, &errs.AppError{
			Kind:    errs.StorageFailed,
			Message: "Failed to persist the crawl job.",
			Cause:   err,
		}
	}

	logger := s.logger.With("job_id", job.ID, "url", job.URL, "request_id", requestid.FromContext(ctx))
	logger.Info("job created")

	// Detach from the request context: the analysis outlives the
	// HTTP exchange and reports through the job record.
	go func() {
		if err := s.runner.Run(context.Background(), job.ID); err != nil {
			logger.Error("job run aborted", "error", err)
		}
	}()

	return job, nil
}

// ListJobs returns the most recent jobs together with lifecycle stats.
func (s *Service) ListJobs(ctx context.Context) (*JobListing, error) {
	jobList, err := s.store.ListJobs(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.JobStats(ctx)
	if err != nil {
		return nil, err
	}
	return &JobListing{Jobs: jobList, Stats: stats}, nil
}

// JobDetail returns a job with whatever analysis output has been
// persisted for it so far.
func (s *Service) JobDetail(ctx context.Context, id string) (*JobDetail, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &JobDetail{Job: *job}

	info, err := s.store.GetPageInfo(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	detail.PageInfo = info

	links, err := s.store.GetLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Links = links

	return detail, nil
}

// DeleteJob removes a job and everything persisted for it.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	err := s.store.DeleteJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &errs.AppError{Kind: errs.NotFound, Message: "No such crawl job."}
	}
	return err
}

// Graph builds the layered link graph from the job's persisted links.
func (s *Service) Graph(ctx context.Context, id string) (*model.Graph, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.store.GetLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return graph.Build(job.URL, links), nil
}

func (s *Service) getJob(ctx context.Context, id string) (*model.CrawlJob, error) {
	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "No such crawl job."}
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}
