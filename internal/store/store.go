// Package store persists crawl jobs and their analysis results. The
// engine writes into it once per job; the graph builder and the API
// read from it.
package store

import (
	"context"
	"errors"

	"github.com/pagegraph/pagegraph/internal/model"
)

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("store: job not found")

// Store is the persistence contract shared by the in-memory and Redis
// implementations.
type Store interface {
	CreateJob(ctx context.Context, job *model.CrawlJob) error
	GetJob(ctx context.Context, id string) (*model.CrawlJob, error)
	UpdateJob(ctx context.Context, job *model.CrawlJob) error
	DeleteJob(ctx context.Context, id string) error
	// ListJobs returns up to limit jobs, newest first.
	ListJobs(ctx context.Context, limit int) ([]model.CrawlJob, error)
	JobStats(ctx context.Context) (model.JobStats, error)

	SavePageInfo(ctx context.Context, jobID string, info *model.PageInfo) error
	GetPageInfo(ctx context.Context, jobID string) (*model.PageInfo, error)

	SaveLinks(ctx context.Context, jobID string, links []model.LinkRecord) error
	GetLinks(ctx context.Context, jobID string) ([]model.LinkRecord, error)
}
