package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pagegraph/pagegraph/internal/model"
)

// Redis persists jobs as JSON values with a creation-time sorted index,
// so listings come back newest first without scanning the keyspace.
type Redis struct {
	client *redis.Client
}

const jobIndexKey = "jobs:index"

// NewRedis returns a Store backed by the given Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func jobKey(id string) string   { return "job:" + id }
func pageKey(id string) string  { return "job:" + id + ":page" }
func linksKey(id string) string { return "job:" + id + ":links" }

func (r *Redis) CreateJob(ctx context.Context, job *model.CrawlJob) error {
	if err := r.setJSON(ctx, jobKey(job.ID), job); err != nil {
		return err
	}
	err := r.client.ZAdd(ctx, jobIndexKey, redis.Z{
		Score:  float64(job.CreatedAt.UnixNano()),
		Member: job.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("store: index job: %w", err)
	}
	return nil
}

func (r *Redis) GetJob(ctx context.Context, id string) (*model.CrawlJob, error) {
	var job model.CrawlJob
	if err := r.getJSON(ctx, jobKey(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *Redis) UpdateJob(ctx context.Context, job *model.CrawlJob) error {
	exists, err := r.client.Exists(ctx, jobKey(job.ID)).Result()
	if err != nil {
		return fmt.Errorf("store: check job: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return r.setJSON(ctx, jobKey(job.ID), job)
}

func (r *Redis) DeleteJob(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, jobKey(id), pageKey(id), linksKey(id)).Result()
	if err != nil {
		return fmt.Errorf("store: delete job: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return r.client.ZRem(ctx, jobIndexKey, id).Err()
}

func (r *Redis) ListJobs(ctx context.Context, limit int) ([]model.CrawlJob, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.ZRevRange(ctx, jobIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}

	jobs := make([]model.CrawlJob, 0, len(ids))
	for _, id := range ids {
		var job model.CrawlJob
		err := r.getJSON(ctx, jobKey(id), &job)
		if errors.Is(err, ErrNotFound) {
			// Index entry outlived its job; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *Redis) JobStats(ctx context.Context) (model.JobStats, error) {
	jobs, err := r.ListJobs(ctx, 0)
	if err != nil {
		return model.JobStats{}, err
	}

	stats := model.JobStats{Total: len(jobs)}
	for _, job := range jobs {
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

func (r *Redis) SavePageInfo(ctx context.Context, jobID string, info *model.PageInfo) error {
	return r.setJSON(ctx, pageKey(jobID), info)
}

func (r *Redis) GetPageInfo(ctx context.Context, jobID string) (*model.PageInfo, error) {
	var info model.PageInfo
	if err := r.getJSON(ctx, pageKey(jobID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *Redis) SaveLinks(ctx context.Context, jobID string, links []model.LinkRecord) error {
	return r.setJSON(ctx, linksKey(jobID), links)
}

func (r *Redis) GetLinks(ctx context.Context, jobID string) ([]model.LinkRecord, error) {
	var links []model.LinkRecord
	err := r.getJSON(ctx, linksKey(jobID), &links)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *Redis) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) getJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: unmarshal %s: %w", key, err)
	}
	return nil
}
