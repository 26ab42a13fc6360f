package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pagegraph/pagegraph/internal/model"
)

// Memory is a mutex-guarded in-process Store. It is the default when no
// Redis address is configured, and the test double everywhere else.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[string]model.CrawlJob
	pages map[string]model.PageInfo
	links map[string][]model.LinkRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:  make(map[string]model.CrawlJob),
		pages: make(map[string]model.PageInfo),
		links: make(map[string][]model.LinkRecord),
	}
}

func (m *Memory) CreateJob(_ context.Context, job *model.CrawlJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (*model.CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (m *Memory) UpdateJob(_ context.Context, job *model.CrawlJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	delete(m.pages, id)
	delete(m.links, id)
	return nil
}

func (m *Memory) ListJobs(_ context.Context, limit int) ([]model.CrawlJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]model.CrawlJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *Memory) JobStats(_ context.Context) (model.JobStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := model.JobStats{Total: len(m.jobs)}
	for _, job := range m.jobs {
		switch job.Status {
		case model.JobCompleted:
			stats.Completed++
		case model.JobRunning:
			stats.Running++
		case model.JobFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (m *Memory) SavePageInfo(_ context.Context, jobID string, info *model.PageInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[jobID] = *info
	return nil
}

func (m *Memory) GetPageInfo(_ context.Context, jobID string) (*model.PageInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.pages[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &info, nil
}

func (m *Memory) SaveLinks(_ context.Context, jobID string, links []model.LinkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[jobID] = append([]model.LinkRecord(nil), links...)
	return nil
}

func (m *Memory) GetLinks(_ context.Context, jobID string) ([]model.LinkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.LinkRecord(nil), m.links[jobID]...), nil
}
